package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Addr:               ":8080",
		DatabaseURL:        "postgres://localhost/staffcore",
		Environment:        "development",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
	}
}

func TestValidateAcceptsDevelopmentDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestValidateProductionRequiresJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestValidateProductionRequiresSeedPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	cfg.JWTSecret = "long-enough-production-secret"
	cfg.RunSeed = true
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SEED_SUPER_ADMIN_PASSWORD") {
		t.Fatalf("expected seed password error, got %v", err)
	}

	cfg.RunSeed = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config with seeding disabled, got %v", err)
	}
}

func TestValidateRejectsTinyBodyLimit(t *testing.T) {
	cfg := validConfig()
	cfg.MaxBodyBytes = 512
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for tiny body limit")
	}
}

func TestValidateEmailNeedsSMTPHost(t *testing.T) {
	cfg := validConfig()
	cfg.EmailEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when email is enabled without an SMTP host")
	}

	cfg.SMTPHost = "smtp.example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config with SMTP host set, got %v", err)
	}
}
