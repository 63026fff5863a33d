package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/andrebq/connectia/internal/logutil"
	"github.com/cespare/xxhash/v2"
)

type (
	// SessionStore binds opaque tokens to user ids
	SessionStore interface {
		Bind(ctx context.Context, userID int64) (token string, err error)
		Lookup(ctx context.Context, token string) (userID int64, found bool, err error)
		Drop(ctx context.Context, token string) error
	}

	MemSessionStore struct {
		cache  *bigcache.BigCache
		ttl    time.Duration
		now    func() time.Time
		random io.Reader
	}

	xxhasher struct{}
)

const (
	tokenBytes = 32
	entrySize  = 16
)

// InMemorySessionStore keeps sessions for ttl after they are bound.
// The cleanup worker runs until Close is called, ctx only provides the logger.
func InMemorySessionStore(ctx context.Context, ttl time.Duration) (*MemSessionStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %v", ttl)
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10_000
	cfg.MaxEntrySize = entrySize
	cfg.CleanWindow = cleanWindow(ttl)
	cfg.Hasher = xxhasher{}
	cfg.Verbose = false
	cfg.Logger = logutil.Printf(logutil.GetOrDefault(ctx).With().Str("component", "sessions").Logger())
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create session cache, cause %w", err)
	}
	return &MemSessionStore{
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		random: rand.Reader,
	}, nil
}

func (m *MemSessionStore) Bind(ctx context.Context, userID int64) (string, error) {
	var raw [tokenBytes]byte
	_, err := io.ReadFull(m.random, raw[:])
	if err != nil {
		return "", fmt.Errorf("unable to generate session token, cause %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw[:])
	var entry [entrySize]byte
	binary.BigEndian.PutUint64(entry[:8], uint64(userID))
	binary.BigEndian.PutUint64(entry[8:], uint64(m.now().Add(m.ttl).UnixNano()))
	err = m.cache.Set(token, entry[:])
	if err != nil {
		return "", fmt.Errorf("unable to save session, cause %w", err)
	}
	return token, nil
}

func (m *MemSessionStore) Lookup(ctx context.Context, token string) (int64, bool, error) {
	if len(token) == 0 {
		return 0, false, nil
	}
	buf, err := m.cache.Get(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("unable to lookup session, cause %w", err)
	}
	if len(buf) != entrySize {
		return 0, false, fmt.Errorf("invalid session entry of %v bytes", len(buf))
	}
	expires := time.Unix(0, int64(binary.BigEndian.Uint64(buf[8:])))
	if !m.now().Before(expires) {
		// cleanup runs on its own schedule, expired entries may still be around
		if err := m.Drop(ctx, token); err != nil {
			log := logutil.GetOrDefault(ctx)
			log.Warn().Err(err).Msg("Unable to drop expired session")
		}
		return 0, false, nil
	}
	return int64(binary.BigEndian.Uint64(buf[:8])), true, nil
}

func (m *MemSessionStore) Drop(_ context.Context, token string) error {
	err := m.cache.Delete(token)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("unable to drop session, cause %w", err)
	}
	return nil
}

func (m *MemSessionStore) Close() error {
	return m.cache.Close()
}

func (xxhasher) Sum64(key string) uint64 {
	return xxhash.Sum64String(key)
}

func cleanWindow(ttl time.Duration) time.Duration {
	w := ttl / 4
	switch {
	case w < time.Second:
		return time.Second
	case w > 5*time.Minute:
		return 5 * time.Minute
	}
	return w
}
