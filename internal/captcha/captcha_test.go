package captcha

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]SessionStore {
	rs, _ := newRedisStore(t)
	return map[string]SessionStore{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func TestIssue_OperandsInRange(t *testing.T) {
	svc := NewService(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		ch, err := svc.Issue(ctx, "sess")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ch.Operand1, 1)
		assert.LessOrEqual(t, ch.Operand1, 10)
		assert.GreaterOrEqual(t, ch.Operand2, 1)
		assert.LessOrEqual(t, ch.Operand2, 10)
	}
}

func TestNewChallenge_Question(t *testing.T) {
	ch := NewChallenge(4, 5)
	assert.Equal(t, "4 + 5", ch.Question)
	assert.Equal(t, 9, ch.Sum())
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			svc := NewService(store, time.Minute)

			require.NoError(t, svc.Put(ctx, "s1", NewChallenge(4, 5)))
			ok, err := svc.Verify(ctx, "s1", " 9 ")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = svc.Verify(ctx, "s1", "9")
			require.NoError(t, err)
			assert.False(t, ok, "challenge must be single use")
		})
	}
}

func TestVerify_WrongAnswerClearsChallenge(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			svc := NewService(store, time.Minute)
			require.NoError(t, svc.Put(ctx, "s2", NewChallenge(4, 5)))

			ok, err := svc.Verify(ctx, "s2", "8")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = svc.Verify(ctx, "s2", "9")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerify_NonNumericAndMissing(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), time.Minute)
	require.NoError(t, svc.Put(ctx, "s3", NewChallenge(1, 1)))

	ok, err := svc.Verify(ctx, "s3", "two")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Verify(ctx, "unknown", "2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Verify(ctx, "", "2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	m := NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "a", 3, time.Minute))
	now = now.Add(2 * time.Minute)

	_, err := m.Take(ctx, "a")
	assert.ErrorIs(t, err, ErrNoChallenge)

	require.NoError(t, m.Put(ctx, "b", 3, time.Minute))
	require.NoError(t, m.Put(ctx, "c", 4, time.Hour))
	now = now.Add(5 * time.Minute)
	require.NoError(t, m.Put(ctx, "d", 5, time.Minute))
	assert.Equal(t, 2, m.Len(), "expired entries are swept on write")
}

func TestRedisStore_TTLAndErrors(t *testing.T) {
	rs, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, rs.Put(ctx, "t", 7, 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL(redisKeyPrefix+"t"))

	mr.FastForward(time.Minute)
	_, err := rs.Take(ctx, "t")
	assert.ErrorIs(t, err, ErrNoChallenge)

	require.NoError(t, mr.Set(redisKeyPrefix+"bad", "x"))
	_, err = rs.Take(ctx, "bad")
	assert.Error(t, err)

	assert.NoError(t, rs.Ping(ctx))
	mr.Close()
	assert.Error(t, rs.Ping(ctx))
}
