package submissions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/tg_contact_form/internal/antispam"
	"github.com/zaqqye/tg_contact_form/internal/apperr"
	"github.com/zaqqye/tg_contact_form/internal/captcha"
	"github.com/zaqqye/tg_contact_form/internal/database"
	"github.com/zaqqye/tg_contact_form/internal/gate"
	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/models"
	"github.com/zaqqye/tg_contact_form/internal/notify"
	"github.com/zaqqye/tg_contact_form/internal/settings"
	"github.com/zaqqye/tg_contact_form/internal/ws"
)

type recordingFeed struct {
	mu     sync.Mutex
	events []string
}

func (f *recordingFeed) Publish(eventType string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, token, chatID, text string) error {
	return m.Called(ctx, token, chatID, text).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type failingStore struct{}

func (failingStore) Create(ctx context.Context, sub *models.Submission) error {
	return errors.New("disk full")
}

func (failingStore) Delete(ctx context.Context, id uint) error { return errors.New("disk full") }

type fixture struct {
	svc      *Service
	repo     *Repository
	settings *settings.Store
	captcha  *captcha.Service
	bot      *mockSender
	mailer   *mockMailer
	feed     *recordingFeed
}

func newFixture(t *testing.T, values map[string]string, antispamURL string) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	st := settings.NewStore(db)
	_, err = st.Update(context.Background(), values)
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	cs := captcha.NewService(captcha.NewMemoryStore(), time.Minute)
	g := gate.New(cs, antispam.NewClient(antispamURL, 200*time.Millisecond), log)
	bot := &mockSender{}
	mailer := &mockMailer{}
	feed := &recordingFeed{}
	repo := NewRepository(db)

	return &fixture{
		svc:      NewService(st, g, repo, notify.NewDispatcher(bot, mailer, log), feed, log),
		repo:     repo,
		settings: st,
		captcha:  cs,
		bot:      bot,
		mailer:   mailer,
		feed:     feed,
	}
}

func (f *fixture) count(t *testing.T) int64 {
	_, total, err := f.repo.List(context.Background(), ListOptions{All: true})
	require.NoError(t, err)
	return total
}

func TestSubmit_CaptchaScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{settings.KeyBotEnabled: "false"}, "")

	require.NoError(t, f.captcha.Put(ctx, "sess", captcha.NewChallenge(4, 5)))
	res, err := f.svc.Submit(ctx, Request{
		SessionToken:  "sess",
		IP:            "198.51.100.2",
		Values:        map[string]string{"name": "A", "email": "a@b.com"},
		CaptchaAnswer: "9",
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.NoError(t, res.Err())
	assert.NotZero(t, res.Submission.ID)
	assert.EqualValues(t, 1, f.count(t))
	assert.Equal(t, []string{ws.EventSubmissionCreated}, f.feed.events)
	f.bot.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, f.captcha.Put(ctx, "sess", captcha.NewChallenge(4, 5)))
	req := Request{
		SessionToken:  "sess",
		Values:        map[string]string{"name": "A", "email": "a@b.com"},
		CaptchaAnswer: "8",
	}
	res, err = f.svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, gate.MsgCaptchaIncorrect, res.Decision.Reason)
	assert.Equal(t, apperr.CodeCaptchaIncorrect, apperr.CodeOf(res.Err()))

	req.CaptchaAnswer = "9"
	res, err = f.svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Accepted, "challenge is cleared after a failed attempt")
	assert.EqualValues(t, 1, f.count(t))
}

func TestSubmit_AntiSpamUnreachableFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := newFixture(t, map[string]string{
		settings.KeyBotEnabled:      "false",
		settings.KeyCaptchaEnabled:  "false",
		settings.KeyAntiSpamEnabled: "true",
		settings.KeyAntiSpamAPIKey:  "k",
	}, url)

	res, err := f.svc.Submit(context.Background(), Request{Values: map[string]string{"name": "A", "email": "a@b.com"}})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.EqualValues(t, 1, f.count(t))
}

func TestSubmit_AntiSpamFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"allow":false}`))
	}))
	defer srv.Close()

	f := newFixture(t, map[string]string{
		settings.KeyCaptchaEnabled:  "false",
		settings.KeyAntiSpamEnabled: "true",
		settings.KeyAntiSpamAPIKey:  "k",
	}, srv.URL)

	res, err := f.svc.Submit(context.Background(), Request{Values: map[string]string{"name": "A", "email": "a@b.com"}})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, gate.MsgSpamFlagged, res.Decision.Reason)
	assert.EqualValues(t, 0, f.count(t))
}

func TestSubmit_BotFailureKeepsRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{
		settings.KeyCaptchaEnabled: "false",
		settings.KeyBotToken:       "123:abc",
		settings.KeyChatID:         "42",
		settings.KeyAdminEmail:     "admin@example.com",
	}, "")
	f.bot.On("Send", ctx, "123:abc", "42", mock.Anything).Return(notify.ErrBotTransport).Once()
	f.mailer.On("Send", ctx, "admin@example.com", notify.Subject, mock.Anything).Return(errors.New("smtp down")).Once()

	res, err := f.svc.Submit(ctx, Request{Values: map[string]string{"name": "A", "email": "a@b.com"}})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, apperr.CodeBotTransport, apperr.CodeOf(res.Err()))
	assert.Equal(t, notify.StatusTransportError, res.Report.Email.Status)
	assert.EqualValues(t, 1, f.count(t))
	f.bot.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestSubmit_BotMisconfiguredStillStores(t *testing.T) {
	f := newFixture(t, map[string]string{settings.KeyCaptchaEnabled: "false"}, "")

	res, err := f.svc.Submit(context.Background(), Request{Values: map[string]string{"name": "A", "email": "a@b.com"}})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, apperr.CodeBotMisconfigured, apperr.CodeOf(res.Err()))
	assert.EqualValues(t, 1, f.count(t))
}

func TestSubmit_HiddenFieldsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{
		settings.KeyCaptchaEnabled:      "false",
		settings.KeyBotToken:            "123:abc",
		settings.KeyChatID:              "42",
		"field_email_visible":           "false",
		"field_telegram_handle_visible": "false",
	}, "")
	f.bot.On("Send", ctx, "123:abc", "42", mock.MatchedBy(func(text string) bool {
		return !strings.Contains(text, "Email:") && !strings.Contains(text, "Telegram:") && strings.Contains(text, "Name: A\n")
	})).Return(nil).Once()

	res, err := f.svc.Submit(ctx, Request{Values: map[string]string{
		"name":            "A",
		"email":           "not-an-email",
		"telegram_handle": "@a",
	}})
	require.NoError(t, err)
	require.True(t, res.Accepted)

	stored, err := f.repo.Get(ctx, res.Submission.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Email)
	assert.Empty(t, stored.TelegramHandle)
	f.bot.AssertExpectations(t)
}

func TestSubmit_StorageFailure(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	st := settings.NewStore(db)
	_, err = st.Update(context.Background(), map[string]string{settings.KeyCaptchaEnabled: "false"})
	require.NoError(t, err)

	log := logger.NewNoOpLogger()
	feed := &recordingFeed{}
	svc := NewService(st, gate.New(nil, nil, log), failingStore{}, notify.NewDispatcher(nil, nil, log), feed, log)

	_, err = svc.Submit(context.Background(), Request{Values: map[string]string{"name": "A", "email": "a@b.com"}})
	assert.Equal(t, apperr.CodeStorageFailed, apperr.CodeOf(err))
	assert.Empty(t, feed.events)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{settings.KeyCaptchaEnabled: "false", settings.KeyBotEnabled: "false"}, "")
	res, err := f.svc.Submit(ctx, Request{Values: map[string]string{"name": "A", "email": "a@b.com"}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, res.Submission.ID))
	assert.EqualValues(t, 0, f.count(t))
	assert.Equal(t, []string{ws.EventSubmissionCreated, ws.EventSubmissionDeleted}, f.feed.events)

	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(f.svc.Delete(ctx, res.Submission.ID)))
}
