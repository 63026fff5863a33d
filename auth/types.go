package auth

type (
	// PlainText holds a password while it is being hashed or verified,
	// call Zero once it is not needed anymore
	PlainText []byte

	Identity struct {
		ID       int64
		Username string
	}

	Principal struct {
		Identity
		Admin bool
	}
)

func (p PlainText) Zero() {
	for i := range p {
		p[i] = 0
	}
}

// String never returns the actual content, this keeps passwords out
// of any log line that formats a PlainText by accident.
func (p PlainText) String() string {
	return "[redacted]"
}
