package serve

import (
	"fmt"
	"net/http"

	"github.com/boligweb/authserver/auth"
	authapi "github.com/boligweb/authserver/auth/api"
	"github.com/boligweb/authserver/internal/cmdflags"
	"github.com/boligweb/authserver/internal/httpserver"
	"github.com/boligweb/authserver/internal/logutil"
	"github.com/boligweb/authserver/internal/metrics"
	"github.com/boligweb/authserver/internal/origins"
	"github.com/boligweb/authserver/userstore"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	host := ""
	port := "4000"
	corsOrigin := origins.Wildcard
	var storageDir string
	var backend string
	var scheme string
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the auth HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "host",
				Usage:       "Interface to bind, empty means all of them",
				Value:       host,
				Destination: &host,
			},
			&cli.StringFlag{
				Name:        "port",
				Aliases:     []string{"p"},
				Usage:       "Port to listen on",
				EnvVars:     []string{"PORT", "AUTH_PORT"},
				Value:       port,
				Destination: &port,
			},
			&cli.StringFlag{
				Name:        "cors-origin",
				Usage:       "Allowed browser origins: * for any, a single origin or a comma separated list",
				EnvVars:     []string{"CORS_ORIGIN"},
				Value:       corsOrigin,
				Destination: &corsOrigin,
			},
			cmdflags.StorageDir(&storageDir),
			cmdflags.Store(&backend),
			cmdflags.PasswordScheme(&scheme),
		},
		Action: func(ctx *cli.Context) error {
			log := logutil.GetOrDefault(ctx.Context)
			hasher, err := auth.HasherFor(scheme)
			if err != nil {
				return err
			}
			store, closeStore, err := userstore.Open(ctx.Context, backend, storageDir)
			if err != nil {
				return err
			}
			defer closeStore()
			sessions, err := auth.InMemorySessions()
			if err != nil {
				return err
			}
			svc := auth.NewService(store, sessions, auth.WithHasher(hasher))
			policy := origins.Parse(corsOrigin)
			log.Info().
				Str("store.backend", backend).
				Str("store.dir", storageDir).
				Bool("cors.allowAll", policy.AllowAll()).
				Msg("Auth service configured")

			var handler http.Handler = authapi.AsHandler(ctx.Context, svc, metrics.New())
			handler = policy.Handler(handler)
			handler = logutil.Middleware(log, handler)
			return httpserver.Serve(ctx.Context, fmt.Sprintf("%v:%v", host, port), handler)
		},
	}
}
