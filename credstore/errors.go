package credstore

import "fmt"

type (
	UnsupportedURL struct {
		URL string
	}
)

func (u UnsupportedURL) Error() string {
	return fmt.Sprintf("database url %q is not supported, use sqlite://<path> or postgres://...", u.URL)
}
