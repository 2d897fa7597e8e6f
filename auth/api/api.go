package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/boligweb/authserver/auth"
	"github.com/boligweb/authserver/internal/logutil"
	"github.com/boligweb/authserver/internal/metrics"
	"github.com/boligweb/authserver/userstore"
	"github.com/julienschmidt/httprouter"
)

const (
	// signup and login bodies are tiny, anything past this is not a form
	maxBodySize = 1 << 20
)

type (
	sessionResponse struct {
		Token string               `json:"token"`
		User  userstore.PublicUser `json:"user"`
	}

	userResponse struct {
		User userstore.PublicUser `json:"user"`
	}

	okResponse struct {
		OK bool `json:"ok"`
	}

	healthResponse struct {
		OK     bool    `json:"ok"`
		Uptime float64 `json:"uptime"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

// AsHandler exposes svc over HTTP. When rec is nil no metrics are recorded
// and /metrics is not mounted.
func AsHandler(ctx context.Context, svc *auth.Service, rec *metrics.Recorder) http.Handler {
	started := time.Now()
	log := logutil.GetOrDefault(ctx)
	log.Debug().Bool("metrics", rec != nil).Msg("Mounting auth routes")
	router := httprouter.New()
	router.HandlerFunc("POST", "/auth/signup", signup(svc, rec))
	router.HandlerFunc("POST", "/auth/login", login(svc, rec))
	router.HandlerFunc("GET", "/auth/me", me(svc, rec))
	router.HandlerFunc("POST", "/auth/logout", logout(svc, rec))
	router.HandlerFunc("GET", "/health", health(started))
	if rec != nil {
		router.Handler("GET", "/metrics", rec.Handler())
	}
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Interface("panic", v).Msg("Handler panicked")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
	return router
}

func signup(svc *auth.Service, rec *metrics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.SignupRequest
		if readBody(r, &req) != nil {
			req = auth.SignupRequest{}
		}
		s, err := svc.Signup(r.Context(), req)
		if err != nil {
			writeError(w, r, rec, "signup", err)
			return
		}
		rec.Observe("signup", "ok")
		writeJSON(w, http.StatusCreated, sessionResponse{Token: s.Token, User: s.User.Public()})
	}
}

func login(svc *auth.Service, rec *metrics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if readBody(r, &req) != nil {
			req = auth.LoginRequest{}
		}
		s, err := svc.Login(r.Context(), req)
		if err != nil {
			writeError(w, r, rec, "login", err)
			return
		}
		rec.Observe("login", "ok")
		writeJSON(w, http.StatusOK, sessionResponse{Token: s.Token, User: s.User.Public()})
	}
}

func me(svc *auth.Service, rec *metrics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Me(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, rec, "me", err)
			return
		}
		rec.Observe("me", "ok")
		writeJSON(w, http.StatusOK, userResponse{User: u.Public()})
	}
}

func logout(svc *auth.Service, rec *metrics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.Logout(r.Context(), bearerToken(r))
		if err != nil {
			// logout never fails for the caller
			log := logutil.GetOrDefault(r.Context())
			log.Error().Err(err).Msg("Unable to remove session")
		}
		rec.Observe("logout", "ok")
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func health(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{OK: true, Uptime: time.Since(started).Seconds()})
	}
}

// readBody decodes a JSON object body into out. Callers discard out on error,
// so a broken body fails validation like an empty one. Keys must match the
// json tags of out exactly, "EMAIL" is not "email".
func readBody(r *http.Request, out interface{}) error {
	if r.Body == nil {
		return nil
	}
	log := logutil.GetOrDefault(r.Context())
	var fields map[string]json.RawMessage
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&fields)
	if errors.Is(err, io.EOF) {
		return nil
	} else if err != nil {
		log.Debug().Err(err).Msg("Ignoring invalid request body")
		return err
	}
	known := jsonKeys(out)
	for k := range fields {
		if !known[k] {
			delete(fields, k)
		}
	}
	buf, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	err = json.Unmarshal(buf, out)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring invalid request body")
		return err
	}
	return nil
}

// jsonKeys lists the json names of the fields of the struct pointed by v
func jsonKeys(v interface{}) map[string]bool {
	t := reflect.TypeOf(v).Elem()
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if name == "" {
			name = t.Field(i).Name
		}
		keys[name] = true
	}
	return keys
}

func writeError(w http.ResponseWriter, r *http.Request, rec *metrics.Recorder, op string, err error) {
	var (
		validation auth.ValidationError
		conflict   auth.ConflictError
		authErr    auth.AuthError
	)
	switch {
	case errors.As(err, &validation):
		rec.Observe(op, "invalid")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Error()})
	case errors.As(err, &conflict):
		rec.Observe(op, "conflict")
		writeJSON(w, http.StatusConflict, errorResponse{Error: conflict.Error()})
	case errors.As(err, &authErr):
		rec.Observe(op, "unauthorized")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: authErr.Error()})
	default:
		rec.Observe(op, "error")
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Str("op", op).Msg("Unexpected error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
