package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/config"
)

// GetTestJWTSecret returns a deterministic JWT secret for testing
func GetTestJWTSecret() string {
	return "test-jwt-secret-for-account-e2e"
}

// defaultTestEnv keeps tests fast and independent of the developer's environment
var defaultTestEnv = map[string]string{
	"GIN_MODE":                  "test",
	"LOG_LEVEL":                 "error",
	"JWT_SECRET":                GetTestJWTSecret(),
	"JWT_ISSUER":                "authsvc-test",
	"OTP_TTL":                   "5m",
	"OTP_LENGTH":                "6",
	"OTP_MAX_ATTEMPTS":          "5",
	"OTP_RESEND_WINDOW":         "0s",
	"TWILIO_FROM_NUMBER":        "",
	"ACCOUNTS_AUTOLOGIN":        "false",
	"ACCOUNTS_AMBIGUOUS_ERRORS": "false",
	"ACCOUNTS_PASSWORD_COST":    "4",
}

// LoadTestConfig loads config/config.yml from the project root with test
// defaults applied, then the given overrides.
func LoadTestConfig(t *testing.T, overrides map[string]string) *config.Config {
	t.Helper()

	root := GetProjectRoot()
	if err := godotenv.Load(filepath.Join(root, ".env.test")); err != nil {
		t.Logf("no .env.test loaded: %v", err)
	}

	for key, value := range defaultTestEnv {
		t.Setenv(key, value)
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := config.LoadFile(filepath.Join(root, "config", "config.yml"))
	if err != nil {
		t.Fatalf("failed to load test configuration: %v", err)
	}
	return cfg
}

// GetProjectRoot returns the directory holding go.mod
func GetProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}

	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}
	return "."
}
