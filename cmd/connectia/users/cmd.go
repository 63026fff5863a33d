package users

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andrebq/connectia/auth"
	"github.com/andrebq/connectia/credstore"
	"github.com/andrebq/connectia/internal/cmdflags"
	"github.com/andrebq/connectia/internal/config"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func Cmd() *cli.Command {
	databaseURL := config.DefaultDatabaseURL
	return &cli.Command{
		Name:  "users",
		Usage: "Manage the users table",
		Flags: []cli.Flag{
			cmdflags.DatabaseURL(&databaseURL),
		},
		Subcommands: []*cli.Command{
			createCmd(&databaseURL),
		},
	}
}

func createCmd(databaseURL *string) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new user (password is read from the terminal or the first line of stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the user to create",
				Destination: &username,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			passwd, err := readPassword(os.Stdin, ctx.App.ErrWriter)
			if err != nil {
				return err
			}
			defer passwd.Zero()
			store, err := credstore.Open(ctx.Context, *databaseURL)
			if err != nil {
				return err
			}
			defer store.Close()
			outcome, err := auth.NewBackend(store, nil).CreateUser(ctx.Context, username, passwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "%v: %v\n", username, outcome)
			return nil
		},
	}
}

func readPassword(in *os.File, prompt io.Writer) (auth.PlainText, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		buf, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return nil, fmt.Errorf("unable to read password, cause %w", err)
		}
		if len(buf) == 0 {
			return nil, errors.New("password cannot be empty")
		}
		return auth.PlainText(buf), nil
	}
	return readPasswordLine(in)
}

// readPasswordLine reads the first line of r, only the line terminator is
// removed
func readPasswordLine(r io.Reader) (auth.PlainText, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("missing password from stdin")
	}
	line := strings.TrimRight(sc.Text(), "\r")
	if len(line) == 0 {
		return nil, errors.New("missing password from stdin")
	}
	return auth.PlainText(line), nil
}
