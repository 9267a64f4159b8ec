// Package submissions stores contact-form requests and runs the submit
// pipeline: gate, persist, notify, broadcast.
package submissions

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/zaqqye/tg_contact_form/internal/apperr"
	"github.com/zaqqye/tg_contact_form/internal/gate"
	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/metrics"
	"github.com/zaqqye/tg_contact_form/internal/models"
	"github.com/zaqqye/tg_contact_form/internal/notify"
	"github.com/zaqqye/tg_contact_form/internal/settings"
	"github.com/zaqqye/tg_contact_form/internal/ws"
)

const MsgSuccess = "Your request has been sent successfully!"

type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

type Gatekeeper interface {
	Check(ctx context.Context, sessionToken string, p gate.Payload, s settings.Settings) gate.Decision
}

type Notifier interface {
	Dispatch(ctx context.Context, sub models.Submission, s settings.Settings) notify.Report
}

type Publisher interface {
	Publish(eventType string, data interface{})
}

type Store interface {
	Create(ctx context.Context, sub *models.Submission) error
	Delete(ctx context.Context, id uint) error
}

type Request struct {
	SessionToken  string
	IP            string
	Values        map[string]string
	CaptchaAnswer string
}

type Result struct {
	Accepted   bool
	Decision   gate.Decision
	Submission models.Submission
	Report     notify.Report
}

// Err is the caller-visible outcome: the gate rejection, the surfaced bot
// failure, or nil.
func (r Result) Err() error {
	if !r.Accepted {
		return r.Decision.Err()
	}
	return r.Report.Surfaced()
}

type Service struct {
	settings SettingsLoader
	gate     Gatekeeper
	store    Store
	notifier Notifier
	feed     Publisher
	log      logger.Logger
	now      func() time.Time
}

func NewService(st SettingsLoader, g Gatekeeper, store Store, n Notifier, feed Publisher, log logger.Logger) *Service {
	return &Service{settings: st, gate: g, store: store, notifier: n, feed: feed, log: log, now: time.Now}
}

// Submit runs one request through the pipeline. The returned error is set
// only when nothing could be decided or stored; rejections and delivery
// failures are carried by Result.
func (s *Service) Submit(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	defer func() {
		outcome := "accepted"
		switch {
		case err != nil:
			outcome = "error"
		case !res.Accepted:
			outcome = "rejected"
		}
		metrics.SubmitDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	cfg, err := s.settings.Load(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return Result{}, apperr.Wrap(apperr.CodeStorageFailed, "could not load settings", err)
	}

	payload := gate.NewPayload(req.Values, cfg, req.IP, req.CaptchaAnswer)
	decision := s.gate.Check(ctx, req.SessionToken, payload, cfg)
	if !decision.Accepted {
		metrics.SubmissionsRejected.WithLabelValues(string(decision.Code)).Inc()
		s.log.Info("submission rejected", map[string]interface{}{
			"reason": string(decision.Code),
			"field":  decision.Field,
			"ip":     req.IP,
		})
		return Result{Decision: decision}, nil
	}

	sub := models.NewSubmission(payload.Values, req.IP, s.now())
	if err := s.store.Create(ctx, &sub); err != nil {
		sentry.CaptureException(err)
		s.log.WithError(err).Error("failed to store submission", nil)
		return Result{Decision: decision}, apperr.Wrap(apperr.CodeStorageFailed, "could not save request", err)
	}
	metrics.SubmissionsAccepted.Inc()

	report := s.notifier.Dispatch(ctx, sub, cfg)
	for _, ch := range []notify.ChannelResult{report.Bot, report.Email} {
		metrics.DispatchTotal.WithLabelValues(string(ch.Channel), string(ch.Status)).Inc()
	}
	if report.Bot.Err != nil {
		sentry.CaptureException(report.Bot.Err)
	}

	s.feed.Publish(ws.EventSubmissionCreated, sub)
	s.log.Info("submission stored", map[string]interface{}{
		"id":           sub.ID,
		"bot_status":   string(report.Bot.Status),
		"email_status": string(report.Email.Status),
	})
	return Result{Accepted: true, Decision: decision, Submission: sub, Report: report}, nil
}

// Delete removes one request and tells live dashboards about it.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.Wrap(apperr.CodeNotFound, "request not found", err)
		}
		return apperr.Wrap(apperr.CodeStorageFailed, "could not delete request", err)
	}
	s.feed.Publish(ws.EventSubmissionDeleted, map[string]interface{}{"id": id})
	s.log.Info("submission deleted", map[string]interface{}{"id": id})
	return nil
}
