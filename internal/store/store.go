package store

import "context"

// Account is a persisted login record. PassHash is a bcrypt hash; the
// protocol core treats it as opaque.
type Account struct {
	User     string
	PassHash string
}

// AccountStore defines the interface for persistent account storage.
// Username lookups are case-insensitive.
type AccountStore interface {
	// FindByUsername looks up an account, returning nil when absent.
	FindByUsername(ctx context.Context, user string) (*Account, error)
	// Insert persists a new account.
	Insert(ctx context.Context, acc *Account) error
	// Close releases storage resources.
	Close() error
}
