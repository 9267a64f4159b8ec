package models

import "time"

// Submission is one accepted contact-form request. Rows are insert-only;
// fields of hidden form inputs are stored empty.
type Submission struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"size:255" json:"name"`
	Email          string    `gorm:"size:255" json:"email"`
	Phone          string    `gorm:"size:50" json:"phone"`
	TelegramHandle string    `gorm:"size:255" json:"telegram_handle"`
	Message        string    `gorm:"type:text" json:"message"`
	IPAddress      string    `gorm:"size:45" json:"ip_address"`
	SubmittedAt    time.Time `gorm:"not null;index" json:"submitted_at"`
}

// Column limits mirrored by field validation.
const (
	MaxNameLen     = 255
	MaxEmailLen    = 255
	MaxPhoneLen    = 50
	MaxTelegramLen = 255
	MaxMessageLen  = 10000
)

// Value returns the stored value for a form field name.
func (s Submission) Value(field string) string {
	switch field {
	case "name":
		return s.Name
	case "email":
		return s.Email
	case "phone":
		return s.Phone
	case "telegram_handle":
		return s.TelegramHandle
	case "message":
		return s.Message
	}
	return ""
}

// NewSubmission builds a row from form values keyed by field name. Missing
// keys are stored empty.
func NewSubmission(values map[string]string, ip string, at time.Time) Submission {
	return Submission{
		Name:           values["name"],
		Email:          values["email"],
		Phone:          values["phone"],
		TelegramHandle: values["telegram_handle"],
		Message:        values["message"],
		IPAddress:      ip,
		SubmittedAt:    at.UTC(),
	}
}
