// Package credstore keeps one row per registered user in a relational table:
//
//	users(id, username, password_hash)
//
// Lookups are exact matches on the stored username, no case folding or
// trimming happens here. The store never interprets password_hash, it is an
// opaque string produced by the auth package.
//
// Two implementations are provided: SQL (SQLite or PostgreSQL, see Open) and
// Memory. Both guarantee that InsertIfAbsent never creates a second row for a
// username, even when called concurrently.
package credstore

type (
	User struct {
		ID           int64
		Username     string
		PasswordHash string
	}

	InsertOutcome byte
)

const (
	Inserted InsertOutcome = iota + 1
	AlreadyExists
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already-exists"
	default:
		return "unknown"
	}
}
