package logutil

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/require"
)

func TestGetOrDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), logger)
	l := GetOrDefault(ctx)
	l.Info().Msg("hello")
	require.Contains(t, buf.String(), `"message":"hello"`)
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	handler := Middleware(zerolog.New(&buf), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := GetOrDefault(r.Context())
		log.Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	apitest.New().
		Handler(handler).
		Get("/brew").
		Header(RequestIDHeader, "req-1").
		Expect(t).
		Status(http.StatusTeapot).
		Header(RequestIDHeader, "req-1").
		End()

	out := buf.String()
	require.Contains(t, out, `"req.id":"req-1","message":"inside"`)
	require.Contains(t, out, `"res.status":418`)
	require.Contains(t, out, `"req.path":"/brew"`)
}
