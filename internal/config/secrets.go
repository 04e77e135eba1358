package config

import (
	"os"
	"strings"
)

// GetSecret resolves a credential from, in order: the environment
// variable itself, the file named by the <VAR>_FILE variable, then the
// fallback. JWT_SECRET and OPERATOR_PASSWORD_HASH both load through
// here, so a deployment can mount them as Docker secrets
// (JWT_SECRET_FILE=/run/secrets/jwt_secret) instead of exposing them in
// the environment.
func GetSecret(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if path := os.Getenv(envVar + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return fallback
}
