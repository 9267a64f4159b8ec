package settings

import "github.com/zaqqye/tg_contact_form/internal/models"

const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldTelegram = "telegram_handle"
	FieldMessage  = "message"
)

// FieldDescriptor drives form rendering, validation and the notification
// text from one place.
type FieldDescriptor struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	MessageLabel string `json:"-"`
	InputType    string `json:"input_type"`
	Placeholder  string `json:"placeholder,omitempty"`
	MaxLen       int    `json:"max_len"`
	Visible      bool   `json:"visible"`
	Required     bool   `json:"required"`
}

// fieldCatalog is ordered as the form and the notification show it.
var fieldCatalog = []FieldDescriptor{
	{Name: FieldName, Label: "Name", MessageLabel: "Name", InputType: "text", MaxLen: models.MaxNameLen},
	{Name: FieldEmail, Label: "Email", MessageLabel: "Email", InputType: "email", MaxLen: models.MaxEmailLen},
	{Name: FieldPhone, Label: "Phone", MessageLabel: "Phone", InputType: "tel", MaxLen: models.MaxPhoneLen},
	{Name: FieldTelegram, Label: "Telegram Username", MessageLabel: "Telegram", InputType: "text", Placeholder: "@username", MaxLen: models.MaxTelegramLen},
	{Name: FieldMessage, Label: "Message", MessageLabel: "Message", InputType: "textarea", MaxLen: models.MaxMessageLen},
}

// Fields returns every descriptor with the flags of this snapshot applied.
func (s Settings) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(fieldCatalog))
	for _, f := range fieldCatalog {
		flags := s.Flags[f.Name]
		f.Visible = flags.Visible
		// a hidden field can never be required
		f.Required = flags.Visible && flags.Required
		out = append(out, f)
	}
	return out
}

func (s Settings) VisibleFields() []FieldDescriptor {
	all := s.Fields()
	out := all[:0]
	for _, f := range all {
		if f.Visible {
			out = append(out, f)
		}
	}
	return out
}

// FieldNames lists every form field name in display order.
func FieldNames() []string {
	out := make([]string, 0, len(fieldCatalog))
	for _, f := range fieldCatalog {
		out = append(out, f.Name)
	}
	return out
}
