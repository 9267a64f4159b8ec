// Package gate decides whether a submission may be stored. Checks run in a
// fixed order and stop at the first rejection: field rules, captcha, then
// the external anti-spam service.
package gate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/zaqqye/tg_contact_form/internal/antispam"
	"github.com/zaqqye/tg_contact_form/internal/apperr"
	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/metrics"
	"github.com/zaqqye/tg_contact_form/internal/settings"
)

const (
	MsgCaptchaIncorrect = "Incorrect captcha answer."
	MsgSpamFlagged      = "Your message was flagged as spam."
	MsgInvalidEmail     = "Please enter a valid email address."
)

var validate = validator.New()

// Payload holds the values of visible fields only, already trimmed.
type Payload struct {
	IP            string
	Values        map[string]string
	CaptchaAnswer string
}

func (p Payload) Value(field string) string {
	return p.Values[field]
}

// NewPayload keeps visible fields and drops everything else.
func NewPayload(raw map[string]string, s settings.Settings, ip, captchaAnswer string) Payload {
	values := make(map[string]string, len(raw))
	for _, f := range s.VisibleFields() {
		values[f.Name] = strings.TrimSpace(raw[f.Name])
	}
	return Payload{IP: ip, Values: values, CaptchaAnswer: strings.TrimSpace(captchaAnswer)}
}

type Decision struct {
	Accepted bool
	Code     apperr.Code
	Reason   string
	Field    string
}

func accept() Decision { return Decision{Accepted: true} }

func reject(code apperr.Code, reason, field string) Decision {
	return Decision{Code: code, Reason: reason, Field: field}
}

// Err converts a rejection into a coded error, nil when accepted.
func (d Decision) Err() error {
	if d.Accepted {
		return nil
	}
	return apperr.New(d.Code, d.Reason)
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, sessionToken, answer string) (bool, error)
}

type Gate struct {
	captcha CaptchaVerifier
	spam    antispam.Checker
	log     logger.Logger
}

func New(captcha CaptchaVerifier, spam antispam.Checker, log logger.Logger) *Gate {
	return &Gate{captcha: captcha, spam: spam, log: log}
}

func (g *Gate) Check(ctx context.Context, sessionToken string, p Payload, s settings.Settings) Decision {
	if d := ValidateFields(p, s); !d.Accepted {
		return d
	}
	if s.CaptchaEnabled {
		if d := g.checkCaptcha(ctx, sessionToken, p.CaptchaAnswer); !d.Accepted {
			return d
		}
	}
	if s.AntiSpamActive() && g.spam != nil {
		return g.checkSpam(ctx, p, s.AntiSpamAPIKey)
	}
	return accept()
}

// ValidateFields applies the per-field rules. It has no side effects.
func ValidateFields(p Payload, s settings.Settings) Decision {
	for _, f := range s.VisibleFields() {
		v := p.Value(f.Name)
		if v == "" {
			if f.Required {
				return reject(apperr.CodeFieldInvalid, f.Label+" is required.", f.Name)
			}
			continue
		}
		if f.MaxLen > 0 && utf8.RuneCountInString(v) > f.MaxLen {
			return reject(apperr.CodeFieldInvalid,
				fmt.Sprintf("%s must be at most %d characters.", f.Label, f.MaxLen), f.Name)
		}
		if f.Name == settings.FieldEmail && validate.Var(v, "email") != nil {
			return reject(apperr.CodeFieldInvalid, MsgInvalidEmail, f.Name)
		}
	}
	return accept()
}

func (g *Gate) checkCaptcha(ctx context.Context, sessionToken, answer string) Decision {
	if g.captcha == nil {
		return reject(apperr.CodeCaptchaIncorrect, MsgCaptchaIncorrect, "captcha")
	}
	ok, err := g.captcha.Verify(ctx, sessionToken, answer)
	if err != nil {
		g.log.WithError(err).Error("captcha store unavailable", nil)
		return reject(apperr.CodeCaptchaIncorrect, MsgCaptchaIncorrect, "captcha")
	}
	if !ok {
		return reject(apperr.CodeCaptchaIncorrect, MsgCaptchaIncorrect, "captcha")
	}
	return accept()
}

// checkSpam fails open: when the service cannot give a verdict the
// submission is accepted and the event is logged and counted.
func (g *Gate) checkSpam(ctx context.Context, p Payload, apiKey string) Decision {
	allow, err := g.spam.Allow(ctx, apiKey, antispam.Query{
		IP:      p.IP,
		Email:   p.Value(settings.FieldEmail),
		Message: p.Value(settings.FieldMessage),
	})
	if err != nil {
		metrics.AntiSpamFailOpen.Inc()
		g.log.WithError(err).Warn("anti-spam check failed, accepting submission", map[string]interface{}{
			"ip": p.IP,
		})
		return accept()
	}
	if !allow {
		return reject(apperr.CodeSpamFlagged, MsgSpamFlagged, "")
	}
	return accept()
}
