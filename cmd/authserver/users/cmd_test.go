package users

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/boligweb/authserver/internal/testutil"
	"github.com/boligweb/authserver/userstore"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestList(t *testing.T) {
	dir, cleanup := testutil.AcquireStorageDir(t, "store")
	defer cleanup()
	store, err := userstore.OpenFile(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveAll(context.Background(), []userstore.User{
		{ID: "1", Email: "a@b.dk", FirstName: "A", LastName: "B", PasswordHash: "secret-digest", CreatedAt: time.Unix(0, 0).UTC()},
	}))

	var out bytes.Buffer
	app := &cli.App{
		Writer:   &out,
		Commands: []*cli.Command{Cmd()},
	}
	require.NoError(t, app.Run([]string{"authserver", "users", "--storage-dir", dir, "list"}))
	require.Contains(t, out.String(), `"email":"a@b.dk"`)
	require.NotContains(t, out.String(), "secret-digest")
}
