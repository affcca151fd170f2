package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func logOutput(s *Settings) string {
	var buf bytes.Buffer
	LogWithLogger(s, slog.New(slog.NewTextHandler(&buf, nil)))
	return buf.String()
}

func TestLog(t *testing.T) {
	// Just verify it doesn't panic
	Log(validSettings())
}

func TestLogWithLogger_Transport(t *testing.T) {
	s := validSettings()
	s.Host = "10.1.2.3"

	out := logOutput(s)
	if !strings.Contains(out, "Config: transport") {
		t.Error("Expected transport in log output")
	}
	if strings.Contains(out, "10.1.2.3") {
		t.Error("Expected no host in log output for stdio transport")
	}

	s.Transport = TransportSSE
	out = logOutput(s)
	if !strings.Contains(out, "10.1.2.3") || !strings.Contains(out, "Config: port") {
		t.Error("Expected host and port in log output for SSE transport")
	}
}

func TestLogWithLogger_MasksSecrets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
		secret string
	}{
		{"basic password", func(s *Settings) {
			s.Auth = AuthSettings{Type: AuthTypeBasic, Basic: BasicAuthSettings{Username: "admin", Password: "hunter2"}}
		}, "hunter2"},
		{"api keys", func(s *Settings) {
			s.Auth = AuthSettings{Type: AuthTypeAPIKey, APIKeys: []string{"sk-live-123"}}
		}, "sk-live-123"},
		{"signing key", func(s *Settings) {
			s.Storage = StorageSettings{Backend: StorageFS, FSRoot: "/srv", SigningKey: "hmac-secret"}
		}, "hmac-secret"},
		{"model api key", func(s *Settings) { s.Models.APIKey = "openai-secret" }, "openai-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			out := logOutput(s)
			if strings.Contains(out, tt.secret) {
				t.Errorf("Secret %q leaked into log output:\n%s", tt.secret, out)
			}
		})
	}
}

func TestLogWithLogger_APIKeyCount(t *testing.T) {
	s := validSettings()
	s.Auth = AuthSettings{Type: AuthTypeAPIKey, APIKeys: []string{"a", "b"}}
	if out := logOutput(s); !strings.Contains(out, "count=2") {
		t.Errorf("Expected api key count in output:\n%s", out)
	}
}

func TestSettings_LogValue(t *testing.T) {
	s := validSettings()
	s.Auth = AuthSettings{Type: AuthTypeBasic, Basic: BasicAuthSettings{Username: "admin", Password: "hunter2"}}
	s.Models.APIKey = "model-secret"

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("settings", "settings", *s)
	out := buf.String()

	if strings.Contains(out, "hunter2") || strings.Contains(out, "model-secret") {
		t.Errorf("Secrets leaked: %s", out)
	}
	if !strings.Contains(out, "settings.auth.username=admin") {
		t.Errorf("Expected username in output: %s", out)
	}
}
