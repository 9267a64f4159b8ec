package models

import "time"

// AppConfig stores key/value settings managed via the admin API.
type AppConfig struct {
	Key         string `gorm:"size:128;primaryKey"`
	Value       string `gorm:"type:text"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AllModels lists every table created by AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&AppConfig{},
		&Submission{},
	}
}
