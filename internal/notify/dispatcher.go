// Package notify forwards accepted submissions to the Telegram bot and to the
// admin mailbox. Delivery is best effort: results are reported per channel
// and nothing is retried.
package notify

import (
	"context"
	"errors"

	"github.com/zaqqye/tg_contact_form/internal/apperr"
	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/models"
	"github.com/zaqqye/tg_contact_form/internal/settings"
)

type Channel string

const (
	ChannelBot   Channel = "bot"
	ChannelEmail Channel = "email"
)

type Status string

const (
	StatusOK             Status = "ok"
	StatusSkipped        Status = "skipped"
	StatusTransportError Status = "transport_error"
	StatusRejected       Status = "rejected"
	StatusMisconfigured  Status = "misconfigured"
)

const (
	MsgBotMisconfigured = "Telegram settings are not configured."
	MsgBotTransport     = "Failed to send to Telegram."
	MsgBotRejected      = "Telegram API error."
)

type ChannelResult struct {
	Channel Channel `json:"channel"`
	Status  Status  `json:"status"`
	Err     error   `json:"-"`
}

type Report struct {
	Bot   ChannelResult `json:"bot"`
	Email ChannelResult `json:"email"`
}

// Surfaced returns the error the caller should see. Only bot failures are
// surfaced; email failures stay in the report.
func (r Report) Surfaced() error {
	switch r.Bot.Status {
	case StatusMisconfigured:
		return apperr.Wrap(apperr.CodeBotMisconfigured, MsgBotMisconfigured, r.Bot.Err)
	case StatusTransportError:
		return apperr.Wrap(apperr.CodeBotTransport, MsgBotTransport, r.Bot.Err)
	case StatusRejected:
		return apperr.Wrap(apperr.CodeBotRejected, MsgBotRejected, r.Bot.Err)
	}
	return nil
}

// BotSender is implemented by TelegramSender.
type BotSender interface {
	Send(ctx context.Context, token, chatID, text string) error
}

type Dispatcher struct {
	bot    BotSender
	mailer Mailer
	log    logger.Logger
}

// NewDispatcher accepts a nil mailer when no email transport is configured.
func NewDispatcher(bot BotSender, mailer Mailer, log logger.Logger) *Dispatcher {
	return &Dispatcher{bot: bot, mailer: mailer, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, sub models.Submission, s settings.Settings) Report {
	text := FormatMessage(sub, s)
	return Report{
		Bot:   d.sendBot(ctx, text, s),
		Email: d.sendEmail(ctx, sub, text, s),
	}
}

func (d *Dispatcher) sendBot(ctx context.Context, text string, s settings.Settings) ChannelResult {
	res := ChannelResult{Channel: ChannelBot}
	switch {
	case !s.BotEnabled:
		res.Status = StatusSkipped
		return res
	case !s.BotConfigured() || d.bot == nil:
		res.Status = StatusMisconfigured
		return res
	}

	err := d.bot.Send(ctx, s.BotToken, s.ChatID, text)
	switch {
	case err == nil:
		res.Status = StatusOK
	case errors.Is(err, ErrBotToken):
		res.Status, res.Err = StatusMisconfigured, err
	case errors.Is(err, ErrBotRejected):
		res.Status, res.Err = StatusRejected, err
	default:
		res.Status, res.Err = StatusTransportError, err
	}
	if res.Err != nil {
		d.log.WithError(res.Err).Error("telegram delivery failed", map[string]interface{}{
			"status": string(res.Status),
		})
	}
	return res
}

func (d *Dispatcher) sendEmail(ctx context.Context, sub models.Submission, text string, s settings.Settings) ChannelResult {
	res := ChannelResult{Channel: ChannelEmail}
	if s.AdminEmail == "" || d.mailer == nil {
		res.Status = StatusSkipped
		return res
	}
	if err := d.mailer.Send(ctx, s.AdminEmail, Subject, text); err != nil {
		res.Status, res.Err = StatusTransportError, err
		d.log.WithError(err).Warn("email notification failed", map[string]interface{}{
			"submission_id": sub.ID,
		})
		return res
	}
	res.Status = StatusOK
	return res
}
