package formtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	tok, err := s.Issue("sess-1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		signer  *Signer
		token   string
		session string
		wantErr bool
	}{
		{name: "valid", signer: s, token: tok, session: "sess-1"},
		{name: "other session", signer: s, token: tok, session: "sess-2", wantErr: true},
		{name: "empty token", signer: s, token: "", session: "sess-1", wantErr: true},
		{name: "empty session", signer: s, token: tok, session: "", wantErr: true},
		{name: "wrong secret", signer: NewSigner("other", time.Hour), token: tok, session: "sess-1", wantErr: true},
		{name: "garbage", signer: s, token: "a.b.c", session: "sess-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.signer.Verify(tt.token, tt.session)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSigner_Expired(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	issued := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	tok, err := s.Issue("sess")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(30 * time.Second) }
	assert.NoError(t, s.Verify(tok, "sess"))

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	assert.ErrorIs(t, s.Verify(tok, "sess"), ErrInvalid)
}
