package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	ta "github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/ratelimit"
)

var (
	// ErrBotRejected means the Bot API answered with ok:false.
	ErrBotRejected = errors.New("telegram api rejected the message")
	// ErrBotTransport means no usable answer came back.
	ErrBotTransport = errors.New("telegram api unreachable")
	// ErrBotToken means the configured token could not build a client.
	ErrBotToken = errors.New("telegram bot token is invalid")
)

// BotAPI is the part of telego.Bot the dispatcher needs.
type BotAPI interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// BotFactory returns a client for a bot token. Tokens live in the settings
// table and can change at any time, so clients are built on demand.
type BotFactory func(token string) (BotAPI, error)

// NewBotFactory builds telego clients against apiURL and caches one per token.
func NewBotFactory(apiURL string, timeout time.Duration) BotFactory {
	var (
		mu    sync.Mutex
		cache = map[string]BotAPI{}
	)
	httpClient := &http.Client{Timeout: timeout}
	return func(token string) (BotAPI, error) {
		mu.Lock()
		defer mu.Unlock()
		if bot, ok := cache[token]; ok {
			return bot, nil
		}
		opts := []telego.BotOption{telego.WithHTTPClient(httpClient), telego.WithDiscardLogger()}
		if apiURL != "" {
			opts = append(opts, telego.WithAPIServer(strings.TrimRight(apiURL, "/")))
		}
		bot, err := telego.NewBot(token, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBotToken, err)
		}
		cache[token] = bot
		return bot, nil
	}
}

type TelegramSender struct {
	factory BotFactory
	limiter ratelimit.Limiter
}

// NewTelegramSender throttles outbound calls to perSecond messages.
func NewTelegramSender(factory BotFactory, perSecond int) *TelegramSender {
	var limiter ratelimit.Limiter = ratelimit.NewUnlimited()
	if perSecond > 0 {
		limiter = ratelimit.New(perSecond)
	}
	return &TelegramSender{factory: factory, limiter: limiter}
}

// Send posts text to chatID. Errors wrap ErrBotToken, ErrBotRejected or
// ErrBotTransport.
func (t *TelegramSender) Send(ctx context.Context, token, chatID, text string) error {
	bot, err := t.factory(token)
	if err != nil {
		return err
	}
	t.limiter.Take()
	_, err = bot.SendMessage(ctx, tu.Message(chatTarget(chatID), text))
	if err == nil {
		return nil
	}
	var apiErr *ta.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %d %s", ErrBotRejected, apiErr.ErrorCode, apiErr.Description)
	}
	return fmt.Errorf("%w: %v", ErrBotTransport, err)
}

// chatTarget accepts numeric ids (including negative group ids) and
// @channel usernames.
func chatTarget(chatID string) telego.ChatID {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return tu.ID(id)
	}
	return tu.Username(chatID)
}
