package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/rutaventas-backend/pkg/errors"
)

// tokenHeader mirrors a freshly minted access token for clients that read
// headers instead of the body.
const tokenHeader = "X-RV-Token"

func parseBearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", errors.New(errors.CodeUnauthorized, "missing credentials")
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", errors.New(errors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}
