package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const (
	codeDigits = 6
	// maxCodeAttempts wrong guesses discard the code
	maxCodeAttempts = 5
)

// CodeStore keeps one-time access codes until they are used or expire
type CodeStore interface {
	Save(ctx context.Context, phone, code string, ttl time.Duration) error
	// Consume reports whether code matches the stored code for phone and, if
	// so, removes it. A wrong code counts as a failed attempt; after
	// maxCodeAttempts the stored code is removed as well.
	Consume(ctx context.Context, phone, code string) (bool, error)
}

// CodeSender delivers a one-time code to a phone number in E.164 form
type CodeSender interface {
	SendAccessCode(ctx context.Context, phone, code string) error
}

func newCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func codesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// consumeScript compares, counts and deletes in one step so concurrent
// verifies cannot both use the same code.
// KEYS[1] code, KEYS[2] attempts; ARGV[1] guess, ARGV[2] max attempts.
var consumeScript = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
	return 0
end
if stored == ARGV[1] then
	redis.call('DEL', KEYS[1], KEYS[2])
	return 1
end
local n = redis.call('INCR', KEYS[2])
if n == 1 then
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl > 0 then
		redis.call('PEXPIRE', KEYS[2], ttl)
	end
end
if n >= tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1], KEYS[2])
end
return 0
`)

type RedisCodeStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client, prefix: "access-code:"}
}

func (s *RedisCodeStore) keys(phone string) []string {
	return []string{s.prefix + phone, s.prefix + phone + ":attempts"}
}

func (s *RedisCodeStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	keys := s.keys(phone)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keys[0], code, ttl)
		pipe.Del(ctx, keys[1])
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Consume(ctx context.Context, phone, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, s.keys(phone), code, maxCodeAttempts).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}
	return n == 1, nil
}

type memoryCode struct {
	code     string
	expires  time.Time
	attempts int
}

// MemoryCodeStore is a process-local CodeStore for single-instance setups
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]memoryCode
	now   func() time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]memoryCode), now: time.Now}
}

func (s *MemoryCodeStore) Save(_ context.Context, phone, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = memoryCode{code: code, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Consume(_ context.Context, phone, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[phone]
	if !ok {
		return false, nil
	}
	if !s.now().Before(c.expires) {
		delete(s.codes, phone)
		return false, nil
	}
	if !codesEqual(c.code, code) {
		c.attempts++
		if c.attempts >= maxCodeAttempts {
			delete(s.codes, phone)
		} else {
			s.codes[phone] = c
		}
		return false, nil
	}
	delete(s.codes, phone)
	return true, nil
}

// LogSender writes codes to the log instead of delivering them. Used when no
// messaging channel is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "CodeSender").Logger()}
}

func (s *LogSender) SendAccessCode(_ context.Context, phone, code string) error {
	s.log.Warn().Str("phone", phone).Str("code", code).Msg("Access code (no delivery channel configured)")
	return nil
}
