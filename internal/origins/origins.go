// Package origins decides which browser origins may call the server.
package origins

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/cors"
)

const (
	Wildcard = "*"
)

type (
	Policy struct {
		any     bool
		allowed map[string]struct{}
	}
)

// Parse accepts "*" (or nothing) to allow every origin, a single origin,
// or a comma separated list of origins.
func Parse(value string) Policy {
	value = strings.TrimSpace(value)
	if value == "" || value == Wildcard {
		return Policy{any: true}
	}
	p := Policy{allowed: map[string]struct{}{}}
	for _, o := range strings.Split(value, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		p.allowed[o] = struct{}{}
	}
	if len(p.allowed) == 0 {
		return Policy{any: true}
	}
	return p
}

func (p Policy) AllowAll() bool {
	return p.any
}

// Allowed reports whether a request carrying origin may proceed,
// requests without an Origin header are not browser cross-origin calls.
func (p Policy) Allowed(origin string) bool {
	if p.any || origin == "" {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// Handler rejects disallowed origins with 403 and decorates the rest
// with CORS headers.
func (p Policy) Handler(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc:  p.Allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		// reflect whatever the browser asks for
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})
	withCors := c.Handler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.Allowed(r.Header.Get("Origin")) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not allowed by CORS"})
			return
		}
		withCors.ServeHTTP(w, r)
	})
}
