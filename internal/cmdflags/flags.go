package cmdflags

import (
	"github.com/boligweb/authserver/auth"
	"github.com/boligweb/authserver/userstore"
	"github.com/urfave/cli/v2"
)

func StorageDir(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = "./server"
	}
	return &cli.StringFlag{
		Name:        "storage-dir",
		Aliases:     []string{"d"},
		Usage:       "Directory that holds the user store",
		EnvVars:     []string{"STORAGE_DIR"},
		Destination: out,
		Value:       *out,
	}
}

func Store(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = userstore.BackendJSON
	}
	return &cli.StringFlag{
		Name:        "store",
		Usage:       "User store backend (json or sqlite)",
		EnvVars:     []string{"AUTH_STORE"},
		Destination: out,
		Value:       *out,
	}
}

func PasswordScheme(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = auth.SchemeSHA256
	}
	return &cli.StringFlag{
		Name:        "password-scheme",
		Usage:       "Digest used for new passwords (sha256 or argon2id), existing digests of either kind are always accepted",
		EnvVars:     []string{"PASSWORD_SCHEME"},
		Destination: out,
		Value:       *out,
	}
}
