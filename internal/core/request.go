// AngelaMos | 2026
// request.go

package core

import (
	"net/http"
	"strconv"
)

// QueryInt reads an integer query parameter, falling back to defaultVal
// when it is absent or malformed.
func QueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

// QueryBool returns nil when the parameter is absent or not a boolean.
func QueryBool(r *http.Request, key string) *bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}

	return &parsed
}
