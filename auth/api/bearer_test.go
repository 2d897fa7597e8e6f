package api

import (
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	type testCase struct {
		header string
		token  string
	}
	for _, tc := range []testCase{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"Bearer ", ""},
		{"bearer abc123", ""},
		{"Token abc123", ""},
		{"Bearer abc 123", "abc 123"},
	} {
		req := httptest.NewRequest("GET", "/auth/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := bearerToken(req); got != tc.token {
			t.Errorf("bearerToken(%q) should return %q but got %q", tc.header, tc.token, got)
		}
	}
}
