package serve

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/andrebq/connectia/auth"
	"github.com/andrebq/connectia/internal/logutil"
)

type (
	SuperUser struct {
		Username string
		Password auth.PlainText
	}
)

var (
	errInvalidSuperUser = errors.New("super user must be given as name:password")
)

// ParseSuperUser splits name:password at the first colon, passwords
// may contain colons.
func ParseSuperUser(val string) (*SuperUser, error) {
	idx := strings.IndexByte(val, ':')
	if idx <= 0 || idx == len(val)-1 {
		return nil, errInvalidSuperUser
	}
	return &SuperUser{
		Username: val[:idx],
		Password: auth.PlainText(val[idx+1:]),
	}, nil
}

// SuperUserFromEnv reads and clears varname, a missing variable returns nil
func SuperUserFromEnv(ctx context.Context, varname string, getfn func(string) string, unsetfn func(string) error) (*SuperUser, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if unsetfn == nil {
		unsetfn = os.Unsetenv
	}
	val := getfn(varname)
	if val == "" {
		return nil, nil
	}
	if err := unsetfn(varname); err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Err(err).Str("envvar", varname).Msg("Unable to clear super user from the environment")
	}
	return ParseSuperUser(val)
}
