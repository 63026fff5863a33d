package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/andrebq/connectia/credstore"
	"github.com/andrebq/connectia/internal/logutil"
)

type (
	// AuthStore is the subset of a credential store consumed by the Backend.
	// A nil user with a nil error means "not found".
	AuthStore interface {
		FindByUsername(ctx context.Context, username string) (*credstore.User, error)
		FindByID(ctx context.Context, id int64) (*credstore.User, error)
		InsertIfAbsent(ctx context.Context, username, passwordHash string) (credstore.InsertOutcome, error)
	}

	PasswordHasher interface {
		Hash(passwd PlainText) (string, error)
		Verify(passwd PlainText, digest string) (bool, error)
	}

	// Backend orchestrates the credential store and the password hasher.
	// It holds no mutable state of its own and is safe for concurrent use.
	Backend struct {
		store  AuthStore
		hasher PasswordHasher

		dummyOnce sync.Once
		dummy     string
	}
)

// NewBackend returns a backend over the given store, a nil hasher means
// NewHasher(DefaultParams, nil).
func NewBackend(store AuthStore, hasher PasswordHasher) *Backend {
	if hasher == nil {
		hasher = NewHasher(DefaultParams, nil)
	}
	return &Backend{store: store, hasher: hasher}
}

// CreateUser stores a new user unless the username is already taken, in which
// case the existing row is left untouched and no error is returned.
func (b *Backend) CreateUser(ctx context.Context, username string, passwd PlainText) (credstore.InsertOutcome, error) {
	digest, err := b.hasher.Hash(passwd)
	if err != nil {
		return 0, asHashError(err)
	}
	outcome, err := b.store.InsertIfAbsent(ctx, username, digest)
	if err != nil {
		return 0, StoreError{Op: "insert", cause: err}
	}
	log := logutil.GetOrDefault(ctx)
	log.Debug().Str("username", username).Stringer("outcome", outcome).Msg("Create user")
	return outcome, nil
}

// Authenticate returns the identity for the given credentials, or nil when
// the username does not exist or the password does not match.
func (b *Backend) Authenticate(ctx context.Context, username string, passwd PlainText) (*Identity, error) {
	u, err := b.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, StoreError{Op: "find-by-username", cause: err}
	}
	if u == nil {
		b.burnVerify(passwd)
		return nil, nil
	}
	ok, err := b.hasher.Verify(passwd, u.PasswordHash)
	if err != nil {
		return nil, asHashError(err)
	}
	if !ok {
		return nil, nil
	}
	return &Identity{ID: u.ID, Username: u.Username}, nil
}

// LoadIdentity returns the identity of user id, or nil if it does not exist.
func (b *Backend) LoadIdentity(ctx context.Context, id int64) (*Identity, error) {
	u, err := b.store.FindByID(ctx, id)
	if err != nil {
		return nil, StoreError{Op: "find-by-id", cause: err}
	}
	if u == nil {
		return nil, nil
	}
	return &Identity{ID: u.ID, Username: u.Username}, nil
}

// burnVerify spends the same work as a real verification so unknown
// usernames cannot be spotted by response time.
func (b *Backend) burnVerify(passwd PlainText) {
	b.dummyOnce.Do(func() {
		b.dummy, _ = b.hasher.Hash(PlainText("connectia/unknown-user"))
	})
	if b.dummy == "" {
		return
	}
	_, _ = b.hasher.Verify(passwd, b.dummy)
}

func asHashError(err error) error {
	var malformed MalformedDigest
	var hashErr HashError
	if errors.As(err, &malformed) || errors.As(err, &hashErr) {
		return err
	}
	return HashError{cause: err}
}
