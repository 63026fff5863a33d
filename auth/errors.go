package auth

import "fmt"

type (
	// MalformedDigest is returned when a stored digest cannot be parsed,
	// which indicates data corruption and never a wrong password.
	MalformedDigest struct {
		Reason string
	}

	HashError struct {
		cause error
	}

	StoreError struct {
		Op    string
		cause error
	}
)

func (m MalformedDigest) Error() string {
	return fmt.Sprintf("malformed password digest: %v", m.Reason)
}

func (h HashError) Error() string {
	return fmt.Sprintf("unable to hash password, cause %v", h.cause)
}

func (h HashError) Unwrap() error {
	return h.cause
}

func (s StoreError) Error() string {
	return fmt.Sprintf("credential store failed during %v, cause %v", s.Op, s.cause)
}

func (s StoreError) Unwrap() error {
	return s.cause
}
