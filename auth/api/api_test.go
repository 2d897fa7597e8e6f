package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/boligweb/authserver/auth"
	"github.com/boligweb/authserver/internal/logutil"
	"github.com/boligweb/authserver/internal/metrics"
	"github.com/boligweb/authserver/internal/testutil"
	"github.com/boligweb/authserver/userstore"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

func tempHandler(t *testing.T) (http.Handler, *userstore.FileStore, func()) {
	dir, cleanup := testutil.AcquireStorageDir(t, "store")
	store, err := userstore.OpenFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	sessions, err := auth.InMemorySessions()
	if err != nil {
		t.Fatal(err)
	}
	svc := auth.NewService(store, sessions)
	return AsHandler(context.Background(), svc, metrics.New()), store, cleanup
}

func postForToken(t *testing.T, handler http.Handler, path, body string) string {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK && rec.Code != http.StatusCreated {
		t.Fatalf("%v returned %v: %v", path, rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	err := json.NewDecoder(rec.Body).Decode(&out)
	if err != nil {
		t.Fatal(err)
	}
	return out.Token
}

func bearer(token string) string {
	return fmt.Sprintf("Bearer %v", token)
}

func TestScenario(t *testing.T) {
	handler, _, cleanup := tempHandler(t)
	defer cleanup()

	apitest.New().
		Handler(handler).
		Post("/auth/signup").
		JSON(`{"email":"a@b.dk","password":"secret1","firstName":"A","lastName":"B"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Present("$.token")).
		Assert(jsonpath.Equal("$.user.email", "a@b.dk")).
		Assert(jsonpath.Equal("$.user.phone", "")).
		Assert(jsonpath.NotPresent("$.user.passwordHash")).
		End()

	apitest.New().
		Handler(handler).
		Post("/auth/signup").
		JSON(`{"email":"A@B.dk","password":"secret1","firstName":"A","lastName":"B"}`).
		Expect(t).
		Status(http.StatusConflict).
		Body(`{"error":"User already exists"}`).
		End()

	apitest.New().
		Handler(handler).
		Post("/auth/login").
		JSON(`{"email":"a@b.dk","password":"wrong"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "Invalid credentials")).
		Assert(jsonpath.NotPresent("$.token")).
		End()

	token := postForToken(t, handler, "/auth/login", `{"email":"a@b.dk","password":"secret1"}`)
	require.Len(t, token, 48)

	apitest.New().
		Handler(handler).
		Get("/auth/me").
		Header("Authorization", bearer(token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.firstName", "A")).
		Assert(jsonpath.NotPresent("$.user.passwordHash")).
		End()

	for i := 0; i < 2; i++ {
		apitest.New().
			Handler(handler).
			Post("/auth/logout").
			Header("Authorization", bearer(token)).
			Expect(t).
			Status(http.StatusOK).
			Body(`{"ok":true}`).
			End()
	}

	apitest.New().
		Handler(handler).
		Get("/auth/me").
		Header("Authorization", bearer(token)).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"Unauthorized"}`).
		End()
}

func TestSignupMissingFields(t *testing.T) {
	handler, store, cleanup := tempHandler(t)
	defer cleanup()

	for _, body := range []string{
		`{"password":"secret1","firstName":"A","lastName":"B"}`,
		`{"email":"a@b.dk","firstName":"A","lastName":"B"}`,
		`{"email":"a@b.dk","password":"secret1","lastName":"B"}`,
		`{"email":"a@b.dk","password":"secret1","firstName":"A"}`,
		`{"email":"","password":"secret1","firstName":"A","lastName":"B"}`,
		`{"email":"a@b.dk","password":"secret1","firstName":"A","lastName":`,
		`{"email":5,"password":"secret1","firstName":"A","lastName":"B"}`,
		``,
	} {
		apitest.New().
			Handler(handler).
			Post("/auth/signup").
			Body(body).
			Header("Content-Type", "application/json").
			Expect(t).
			Status(http.StatusBadRequest).
			Body(`{"error":"Missing required fields"}`).
			End()
	}
	require.NoFileExists(t, store.Path())
}

func TestLoginMissingFields(t *testing.T) {
	handler, _, cleanup := tempHandler(t)
	defer cleanup()

	for _, body := range []string{`{"email":"a@b.dk"}`, `{"password":"x"}`, `{}`, `not json`} {
		apitest.New().
			Handler(handler).
			Post("/auth/login").
			Body(body).
			Expect(t).
			Status(http.StatusBadRequest).
			Body(`{"error":"Email and password required"}`).
			End()
	}

	apitest.New().
		Handler(handler).
		Post("/auth/login").
		JSON(`{"email":"nobody@b.dk","password":"x"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestMeRejectsBadHeaders(t *testing.T) {
	handler, _, cleanup := tempHandler(t)
	defer cleanup()
	token := postForToken(t, handler, "/auth/signup", `{"email":"a@b.dk","password":"secret1","firstName":"A","lastName":"B"}`)

	apitest.New().Handler(handler).
		Get("/auth/me").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	for _, hdr := range []string{token, "bearer " + token, "Basic " + token, "Bearer ", "Bearer unknown"} {
		apitest.New().Handler(handler).
			Get("/auth/me").
			Header("Authorization", hdr).
			Expect(t).
			Status(http.StatusUnauthorized).
			Assert(jsonpath.Equal("$.error", "Unauthorized")).
			End()
	}
	apitest.New().Handler(handler).
		Get("/auth/me").
		Header("Authorization", bearer(token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.email", "a@b.dk")).
		End()
}

func TestMeStaleSession(t *testing.T) {
	handler, store, cleanup := tempHandler(t)
	defer cleanup()
	token := postForToken(t, handler, "/auth/signup", `{"email":"a@b.dk","password":"secret1","firstName":"A","lastName":"B","phone":"12345678"}`)
	require.NoError(t, store.SaveAll(context.Background(), nil))

	apitest.New().Handler(handler).
		Get("/auth/me").
		Header("Authorization", bearer(token)).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"Invalid session"}`).
		End()
}

func TestLogoutWithoutToken(t *testing.T) {
	handler, _, cleanup := tempHandler(t)
	defer cleanup()

	apitest.New().Handler(handler).
		Post("/auth/logout").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"ok":true}`).
		End()
	apitest.New().Handler(handler).
		Post("/auth/logout").
		Header("Authorization", "Bearer never-issued").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"ok":true}`).
		End()
}

func TestSignupStorageFailure(t *testing.T) {
	dir, cleanup := testutil.AcquireStorageDir(t, "store")
	defer cleanup()
	store, err := userstore.OpenFile(dir)
	require.NoError(t, err)
	sessions, err := auth.InMemorySessions()
	require.NoError(t, err)
	handler := AsHandler(context.Background(), auth.NewService(store, sessions), nil)
	require.NoError(t, os.RemoveAll(dir))

	apitest.New().Handler(handler).
		Post("/auth/signup").
		JSON(`{"email":"a@b.dk","password":"secret1","firstName":"A","lastName":"B"}`).
		Expect(t).
		Status(http.StatusInternalServerError).
		Body(`{"error":"Internal server error"}`).
		End()
}

func TestHealthAndMetrics(t *testing.T) {
	handler, _, cleanup := tempHandler(t)
	defer cleanup()

	apitest.New().Handler(handler).
		Get("/health").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.ok", true)).
		Assert(jsonpath.Present("$.uptime")).
		End()

	postForToken(t, handler, "/auth/signup", `{"email":"a@b.dk","password":"secret1","firstName":"A","lastName":"B"}`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, bytes.Contains(rec.Body.Bytes(), []byte(`authserver_requests_total{op="signup",outcome="ok"} 1`)), rec.Body.String())
}

func TestUnknownRoutes(t *testing.T) {
	handler, _, cleanup := tempHandler(t)
	defer cleanup()

	apitest.New().Handler(handler).
		Get("/Homes").
		Expect(t).
		Status(http.StatusNotFound).
		Body(`{"error":"Not found"}`).
		End()
	apitest.New().Handler(handler).
		Get("/auth/login").
		Expect(t).
		Status(http.StatusMethodNotAllowed).
		End()
}

func TestBodyKeysAreCaseSensitive(t *testing.T) {
	handler, store, cleanup := tempHandler(t)
	defer cleanup()

	apitest.New().Handler(handler).
		Post("/auth/signup").
		JSON(`{"EMAIL":"a@b.dk","PASSWORD":"secret1","FIRSTNAME":"A","LASTNAME":"B"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Body(`{"error":"Missing required fields"}`).
		End()
	require.NoFileExists(t, store.Path())

	postForToken(t, handler, "/auth/signup", `{"email":"a@b.dk","password":"secret1","firstName":"A","lastName":"B","Email":"x@y.dk"}`)

	apitest.New().Handler(handler).
		Post("/auth/login").
		JSON(`{"Email":"a@b.dk","Password":"secret1"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Body(`{"error":"Email and password required"}`).
		End()
	apitest.New().Handler(handler).
		Post("/auth/login").
		JSON(`{"email":"a@b.dk","password":"secret1","extra":true}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.email", "a@b.dk")).
		End()
}

func TestLogsWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logutil.WithLogger(context.Background(), zerolog.New(&buf))
	dir, cleanup := testutil.AcquireStorageDir(t, "store")
	defer cleanup()
	store, err := userstore.OpenFile(dir)
	require.NoError(t, err)
	sessions, err := auth.InMemorySessions()
	require.NoError(t, err)
	svc := auth.NewService(store, sessions)
	handler := logutil.Middleware(zerolog.New(&buf), AsHandler(ctx, svc, nil))

	token := postForToken(t, handler, "/auth/signup", `{"email":"a@b.dk","password":"secret1","firstName":"A","lastName":"B"}`)
	require.NoError(t, store.SaveAll(context.Background(), nil))
	apitest.New().Handler(handler).
		Get("/auth/me").
		Header("Authorization", bearer(token)).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
	require.Contains(t, buf.String(), "Session points to a user that no longer exists")
	require.NotContains(t, buf.String(), token)
}

func TestLoginWithMalformedStoredDigest(t *testing.T) {
	handler, store, cleanup := tempHandler(t)
	defer cleanup()
	require.NoError(t, store.SaveAll(context.Background(), []userstore.User{
		{ID: "1", Email: "a@b.dk", FirstName: "A", LastName: "B", PasswordHash: "$argon2id$v=19$m=1024,t=0,p=0$AAAA$AAAA"},
	}))

	apitest.New().Handler(handler).
		Post("/auth/login").
		JSON(`{"email":"a@b.dk","password":"secret1"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"Invalid credentials"}`).
		End()
}
