// Package captcha issues and checks the arithmetic challenge shown on the
// public form. Challenges are keyed by the caller's session token and are
// single use: Verify always deletes the stored answer.
package captcha

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zaqqye/tg_contact_form/internal/utils"
)

var ErrNoChallenge = errors.New("captcha: no challenge for session")

const (
	minOperand = 1
	maxOperand = 10
)

type Challenge struct {
	Operand1 int    `json:"-"`
	Operand2 int    `json:"-"`
	Question string `json:"question"`
}

func (c Challenge) Sum() int {
	return c.Operand1 + c.Operand2
}

func NewChallenge(a, b int) Challenge {
	return Challenge{Operand1: a, Operand2: b, Question: fmt.Sprintf("%d + %d", a, b)}
}

// SessionStore keeps expected answers between form render and submit.
type SessionStore interface {
	Put(ctx context.Context, sessionToken string, expected int, ttl time.Duration) error
	// Take returns the expected answer and removes it, or ErrNoChallenge.
	Take(ctx context.Context, sessionToken string) (int, error)
}

type Service struct {
	store   SessionStore
	ttl     time.Duration
	operand func(min, max int) (int, error)
}

func NewService(store SessionStore, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl, operand: utils.RandomInt}
}

// Issue stores a fresh challenge for the session, replacing any earlier one.
func (s *Service) Issue(ctx context.Context, sessionToken string) (Challenge, error) {
	a, err := s.operand(minOperand, maxOperand)
	if err != nil {
		return Challenge{}, fmt.Errorf("captcha operand: %w", err)
	}
	b, err := s.operand(minOperand, maxOperand)
	if err != nil {
		return Challenge{}, fmt.Errorf("captcha operand: %w", err)
	}
	ch := NewChallenge(a, b)
	if err := s.Put(ctx, sessionToken, ch); err != nil {
		return Challenge{}, err
	}
	return ch, nil
}

// Put stores a specific challenge.
func (s *Service) Put(ctx context.Context, sessionToken string, ch Challenge) error {
	if sessionToken == "" {
		return ErrNoChallenge
	}
	if err := s.store.Put(ctx, sessionToken, ch.Sum(), s.ttl); err != nil {
		return fmt.Errorf("store captcha: %w", err)
	}
	return nil
}

// Verify compares answer with the stored sum. The stored value is removed
// whatever the outcome. A missing challenge or a non-numeric answer is a
// mismatch; only store failures are returned as errors.
func (s *Service) Verify(ctx context.Context, sessionToken, answer string) (bool, error) {
	if sessionToken == "" {
		return false, nil
	}
	expected, err := s.store.Take(ctx, sessionToken)
	if errors.Is(err, ErrNoChallenge) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read captcha: %w", err)
	}
	got, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return false, nil
	}
	return got == expected, nil
}
