package notify

import (
	"strings"

	"github.com/zaqqye/tg_contact_form/internal/models"
	"github.com/zaqqye/tg_contact_form/internal/settings"
)

const (
	Subject         = "New Contact Form Submission"
	TimestampLayout = "2006-01-02 15:04:05"
)

// FormatMessage renders the plain-text notification shared by the bot and
// email channels. Only fields visible in s are listed.
func FormatMessage(sub models.Submission, s settings.Settings) string {
	var b strings.Builder
	b.WriteString(Subject)
	b.WriteString("\n\n")
	for _, f := range s.VisibleFields() {
		b.WriteString(f.MessageLabel)
		b.WriteString(": ")
		b.WriteString(sub.Value(f.Name))
		b.WriteString("\n")
	}
	b.WriteString("IP: ")
	b.WriteString(sub.IPAddress)
	b.WriteString("\n")
	b.WriteString("Submitted: ")
	b.WriteString(sub.SubmittedAt.UTC().Format(TimestampLayout))
	b.WriteString("\n")
	return b.String()
}
