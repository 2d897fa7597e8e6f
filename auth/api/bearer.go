package api

import (
	"net/http"
	"strings"
)

const (
	bearerPrefix = "Bearer "
)

// bearerToken returns the token of an "Authorization: Bearer <token>" header,
// or an empty string for any other form.
func bearerToken(r *http.Request) string {
	hdrVal := r.Header.Get("Authorization")
	if !strings.HasPrefix(hdrVal, bearerPrefix) {
		return ""
	}
	return hdrVal[len(bearerPrefix):]
}
