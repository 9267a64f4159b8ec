// Package settings holds the admin-managed form configuration. Values are
// stored as strings in the app_configs table; every key has a default, so a
// fresh database behaves like a fully configured one.
package settings

import (
	"strconv"
	"strings"
)

const (
	KeyBotEnabled         = "bot_enabled"
	KeyBotToken           = "bot_token"
	KeyChatID             = "chat_id"
	KeyCaptchaEnabled     = "captcha_enabled"
	KeyAntiSpamEnabled    = "antispam_enabled"
	KeyAntiSpamAPIKey     = "antispam_api_key"
	KeyAdminEmail         = "admin_email"
	KeySubmitButtonText   = "submit_button_text"
	KeyEnqueueBasicStyles = "enqueue_basic_styles"
	KeyCustomCSS          = "custom_css"
)

// MaskedValue replaces sensitive values in admin reads.
const MaskedValue = "********"

type kind int

const (
	kindString kind = iota
	kindBool
	kindEmail
)

type definition struct {
	Key         string
	Kind        kind
	Default     string
	Description string
	Sensitive   bool
}

var definitions = buildDefinitions()

func buildDefinitions() []definition {
	defs := []definition{
		{Key: KeyBotEnabled, Kind: kindBool, Default: "true", Description: "Send notifications to Telegram"},
		{Key: KeyBotToken, Kind: kindString, Description: "Telegram bot token", Sensitive: true},
		{Key: KeyChatID, Kind: kindString, Description: "Telegram chat id or @channel"},
		{Key: KeyCaptchaEnabled, Kind: kindBool, Default: "true", Description: "Require the arithmetic captcha"},
		{Key: KeyAntiSpamEnabled, Kind: kindBool, Default: "false", Description: "Check submissions with the anti-spam service"},
		{Key: KeyAntiSpamAPIKey, Kind: kindString, Description: "Anti-spam service API key", Sensitive: true},
		{Key: KeyAdminEmail, Kind: kindEmail, Description: "Address that receives email notifications"},
		{Key: KeySubmitButtonText, Kind: kindString, Default: "Send Request", Description: "Submit button label"},
		{Key: KeyEnqueueBasicStyles, Kind: kindBool, Default: "true", Description: "Include the basic form stylesheet"},
		{Key: KeyCustomCSS, Kind: kindString, Description: "CSS appended after the basic styles"},
	}
	for _, f := range fieldCatalog {
		required := "false"
		if f.Name == FieldName || f.Name == FieldEmail {
			required = "true"
		}
		defs = append(defs,
			definition{Key: visibleKey(f.Name), Kind: kindBool, Default: "true", Description: "Show the " + f.Label + " field"},
			definition{Key: requiredKey(f.Name), Kind: kindBool, Default: required, Description: "Require the " + f.Label + " field"},
		)
	}
	return defs
}

func visibleKey(field string) string  { return "field_" + field + "_visible" }
func requiredKey(field string) string { return "field_" + field + "_required" }

func lookup(key string) (definition, bool) {
	for _, d := range definitions {
		if d.Key == key {
			return d, true
		}
	}
	return definition{}, false
}

type FieldFlags struct {
	Visible  bool
	Required bool
}

// Settings is an immutable snapshot of the configuration, loaded once per
// request and passed explicitly to the pipeline.
type Settings struct {
	BotEnabled         bool
	BotToken           string
	ChatID             string
	CaptchaEnabled     bool
	AntiSpamEnabled    bool
	AntiSpamAPIKey     string
	AdminEmail         string
	SubmitButtonText   string
	EnqueueBasicStyles bool
	CustomCSS          string
	Flags              map[string]FieldFlags
}

func Defaults() Settings {
	return FromMap(nil)
}

// FromMap parses raw stored values; missing or unparsable entries fall back
// to their defaults.
func FromMap(raw map[string]string) Settings {
	get := func(key string) string {
		if v, ok := raw[key]; ok {
			return v
		}
		d, _ := lookup(key)
		return d.Default
	}
	getBool := func(key string) bool {
		if b, ok := parseBool(get(key)); ok {
			return b
		}
		d, _ := lookup(key)
		b, _ := parseBool(d.Default)
		return b
	}

	s := Settings{
		BotEnabled:         getBool(KeyBotEnabled),
		BotToken:           strings.TrimSpace(get(KeyBotToken)),
		ChatID:             strings.TrimSpace(get(KeyChatID)),
		CaptchaEnabled:     getBool(KeyCaptchaEnabled),
		AntiSpamEnabled:    getBool(KeyAntiSpamEnabled),
		AntiSpamAPIKey:     strings.TrimSpace(get(KeyAntiSpamAPIKey)),
		AdminEmail:         strings.TrimSpace(get(KeyAdminEmail)),
		SubmitButtonText:   get(KeySubmitButtonText),
		EnqueueBasicStyles: getBool(KeyEnqueueBasicStyles),
		CustomCSS:          get(KeyCustomCSS),
		Flags:              make(map[string]FieldFlags, len(fieldCatalog)),
	}
	if strings.TrimSpace(s.SubmitButtonText) == "" {
		s.SubmitButtonText = "Send Request"
	}
	for _, f := range fieldCatalog {
		s.Flags[f.Name] = FieldFlags{
			Visible:  getBool(visibleKey(f.Name)),
			Required: getBool(requiredKey(f.Name)),
		}
	}
	return s
}

// ToMap is the inverse of FromMap.
func (s Settings) ToMap() map[string]string {
	out := map[string]string{
		KeyBotEnabled:         strconv.FormatBool(s.BotEnabled),
		KeyBotToken:           s.BotToken,
		KeyChatID:             s.ChatID,
		KeyCaptchaEnabled:     strconv.FormatBool(s.CaptchaEnabled),
		KeyAntiSpamEnabled:    strconv.FormatBool(s.AntiSpamEnabled),
		KeyAntiSpamAPIKey:     s.AntiSpamAPIKey,
		KeyAdminEmail:         s.AdminEmail,
		KeySubmitButtonText:   s.SubmitButtonText,
		KeyEnqueueBasicStyles: strconv.FormatBool(s.EnqueueBasicStyles),
		KeyCustomCSS:          s.CustomCSS,
	}
	for _, f := range fieldCatalog {
		flags := s.Flags[f.Name]
		out[visibleKey(f.Name)] = strconv.FormatBool(flags.Visible)
		out[requiredKey(f.Name)] = strconv.FormatBool(flags.Required)
	}
	return out
}

// Masked is ToMap with sensitive values hidden.
func (s Settings) Masked() map[string]string {
	out := s.ToMap()
	for _, d := range definitions {
		if d.Sensitive && out[d.Key] != "" {
			out[d.Key] = MaskedValue
		}
	}
	return out
}

// BotConfigured reports whether both Telegram credentials are present.
func (s Settings) BotConfigured() bool {
	return s.BotToken != "" && s.ChatID != ""
}

// AntiSpamActive reports whether submissions go through the reputation check.
func (s Settings) AntiSpamActive() bool {
	return s.AntiSpamEnabled && s.AntiSpamAPIKey != ""
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y", "on":
		return true, true
	case "false", "0", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
