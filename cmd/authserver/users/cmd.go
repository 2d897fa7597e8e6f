package users

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/boligweb/authserver/auth"
	"github.com/boligweb/authserver/internal/cmdflags"
	"github.com/boligweb/authserver/userstore"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var storageDir string
	var backend string
	return &cli.Command{
		Name:  "users",
		Usage: "Inspect or seed the user store without going through HTTP",
		Flags: []cli.Flag{
			cmdflags.StorageDir(&storageDir),
			cmdflags.Store(&backend),
		},
		Subcommands: []*cli.Command{
			listCmd(&storageDir, &backend),
			registerCmd(&storageDir, &backend),
		},
	}
}

func listCmd(storageDir, backend *string) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Print every user (without password digests) as one JSON document per line",
		Action: func(ctx *cli.Context) error {
			store, closeStore, err := userstore.Open(ctx.Context, *backend, *storageDir)
			if err != nil {
				return err
			}
			defer closeStore()
			enc := json.NewEncoder(ctx.App.Writer)
			for _, u := range store.LoadAll(ctx.Context) {
				if err := enc.Encode(u.Public()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func registerCmd(storageDir, backend *string) *cli.Command {
	var req auth.SignupRequest
	var scheme string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new user (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email of the user to register",
				Destination: &req.Email,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "first-name",
				Destination: &req.FirstName,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "last-name",
				Destination: &req.LastName,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "phone",
				Destination: &req.Phone,
			},
			cmdflags.PasswordScheme(&scheme),
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				if sc.Err() != nil {
					return sc.Err()
				}
				return errors.New("missing password from stdin")
			}
			req.Password = strings.TrimSpace(sc.Text())
			if len(req.Password) == 0 {
				return errors.New("missing password from stdin")
			}
			hasher, err := auth.HasherFor(scheme)
			if err != nil {
				return err
			}
			store, closeStore, err := userstore.Open(ctx.Context, *backend, *storageDir)
			if err != nil {
				return err
			}
			defer closeStore()
			sessions, err := auth.InMemorySessions()
			if err != nil {
				return err
			}
			s, err := auth.NewService(store, sessions, auth.WithHasher(hasher)).Signup(ctx.Context, req)
			if err != nil {
				return err
			}
			return json.NewEncoder(ctx.App.Writer).Encode(s.User.Public())
		},
	}
}
