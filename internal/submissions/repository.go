package submissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zaqqye/tg_contact_form/internal/models"
)

var ErrNotFound = errors.New("submission not found")

// ListOptions pages the recency-ordered listing. All ignores Limit and Page.
type ListOptions struct {
	All     bool
	Limit   int
	Page    int
	SortDir string
	Query   string
}

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Page <= 0 {
		o.Page = 1
	}
	o.SortDir = strings.ToUpper(o.SortDir)
	if o.SortDir != "ASC" && o.SortDir != "DESC" {
		o.SortDir = "DESC"
	}
	o.Query = strings.TrimSpace(o.Query)
	return o
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Analytics struct {
	Total      int64        `json:"total"`
	Last24h    int64        `json:"last_24h"`
	Last7Days  int64        `json:"last_7_days"`
	Last30Days int64        `json:"last_30_days"`
	Days       int          `json:"days"`
	Daily      []DailyCount `json:"daily"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID != 0 {
		return fmt.Errorf("submission already has id %d", sub.ID)
	}
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *Repository) filtered(ctx context.Context, q string) *gorm.DB {
	base := r.db.WithContext(ctx).Model(&models.Submission{})
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(message) LIKE ?", like, like, like)
	}
	return base
}

// List returns submissions newest first together with the unpaged total.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]models.Submission, int64, error) {
	opts = opts.normalized()

	var total int64
	if err := r.filtered(ctx, opts.Query).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := fmt.Sprintf("submitted_at %s, id %s", opts.SortDir, opts.SortDir)
	listQ := r.filtered(ctx, opts.Query).Order(order)
	if !opts.All {
		listQ = listQ.Offset((opts.Page - 1) * opts.Limit).Limit(opts.Limit)
	}
	var out []models.Submission
	if err := listQ.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (models.Submission, error) {
	var sub models.Submission
	err := r.db.WithContext(ctx).First(&sub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Submission{}, ErrNotFound
	}
	return sub, err
}

// Delete removes exactly one row. A missing id is ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Submission{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Analytics counts submissions relative to now. Daily buckets are UTC days,
// oldest first, and include days without submissions.
func (r *Repository) Analytics(ctx context.Context, days int, now time.Time) (Analytics, error) {
	if days <= 0 {
		days = 30
	}
	now = now.UTC()
	out := Analytics{Days: days}

	if err := r.db.WithContext(ctx).Model(&models.Submission{}).Count(&out.Total).Error; err != nil {
		return out, err
	}
	windows := []struct {
		dst  *int64
		from time.Time
	}{
		{&out.Last24h, now.Add(-24 * time.Hour)},
		{&out.Last7Days, now.AddDate(0, 0, -7)},
		{&out.Last30Days, now.AddDate(0, 0, -30)},
	}
	for _, w := range windows {
		if err := r.db.WithContext(ctx).Model(&models.Submission{}).
			Where("submitted_at >= ?", w.from).Count(w.dst).Error; err != nil {
			return out, err
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))
	var stamps []time.Time
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submitted_at >= ?", start).Pluck("submitted_at", &stamps).Error; err != nil {
		return out, err
	}

	counts := make(map[string]int64, days)
	for _, ts := range stamps {
		counts[ts.UTC().Format("2006-01-02")]++
	}
	out.Daily = make([]DailyCount, 0, days)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out.Daily = append(out.Daily, DailyCount{Date: key, Count: counts[key]})
	}
	return out, nil
}
