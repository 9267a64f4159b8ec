package settings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/zaqqye/tg_contact_form/internal/apperr"
	"github.com/zaqqye/tg_contact_form/internal/models"
)

var validate = validator.New()

// Store reads and writes settings rows.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context) (Settings, error) {
	var rows []models.AppConfig
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	raw := make(map[string]string, len(rows))
	for _, r := range rows {
		raw[r.Key] = r.Value
	}
	return FromMap(raw), nil
}

// Update validates every entry before writing any of them. A sensitive key
// submitted with MaskedValue keeps its stored value.
func (s *Store) Update(ctx context.Context, values map[string]string) (Settings, error) {
	clean := make(map[string]string, len(values))
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def, ok := lookup(key)
		if !ok {
			return Settings{}, apperr.New(apperr.CodeSettingsInvalid, "unknown setting: "+key)
		}
		val, err := normalize(def, values[key])
		if err != nil {
			return Settings{}, err
		}
		if def.Sensitive && val == MaskedValue {
			continue
		}
		clean[key] = val
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			val, ok := clean[key]
			if !ok {
				continue
			}
			def, _ := lookup(key)
			row := models.AppConfig{Key: key, Value: val, Description: def.Description}
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return s.Load(ctx)
}

func normalize(def definition, value string) (string, error) {
	switch def.Kind {
	case kindBool:
		b, ok := parseBool(value)
		if !ok {
			return "", apperr.New(apperr.CodeSettingsInvalid, def.Key+" must be a boolean")
		}
		return strconv.FormatBool(b), nil
	case kindEmail:
		v := strings.TrimSpace(value)
		if err := validate.Var(v, "omitempty,email"); err != nil {
			return "", apperr.New(apperr.CodeSettingsInvalid, def.Key+" must be a valid email address")
		}
		return v, nil
	default:
		if def.Key == KeyCustomCSS {
			// rendered inside <style>; markup would end the element
			if strings.Contains(value, "<") {
				return "", apperr.New(apperr.CodeSettingsInvalid, def.Key+" must not contain markup")
			}
			return value, nil
		}
		return strings.TrimSpace(value), nil
	}
}

// Describe lists the known keys with their defaults for the admin API.
func Describe() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(definitions))
	for _, d := range definitions {
		kindName := "string"
		switch d.Kind {
		case kindBool:
			kindName = "bool"
		case kindEmail:
			kindName = "email"
		}
		out = append(out, map[string]interface{}{
			"key":         d.Key,
			"type":        kindName,
			"default":     d.Default,
			"description": d.Description,
			"sensitive":   d.Sensitive,
		})
	}
	return out
}
