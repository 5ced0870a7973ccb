package logger

import (
	"bytes"
	"log/slog"
	"testing"
)

const fullToken = "sktk_ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklm"

func TestRedact(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"token", fullToken, "sktk_ABC...klm"},
		{"arg", fullToken, "sktk_ABC...klm"},
		{"token", "sktk_ABCDEF", "sktk_***"},
		{"password", "hunter2", redactedValue},
		{"api_secret", "s3cr3t", redactedValue},
		{"auth_token", "bearer-xyz", redactedValue},
		{"Authorization", "Bearer abc", redactedValue},
		{"credential", "cred123", redactedValue},
		{"token", "", ""},
		{"app", "chess", "chess"},
		{"session_id", "01J9Z3K4", "01J9Z3K4"},
		{"fingerprint", "a1b2c3d4e5f6", "a1b2c3d4e5f6"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			var buf bytes.Buffer
			newBuffered(t, &buf, "info").Info("frame", tt.key, tt.value)

			if got := decodeEntry(t, &buf)[tt.key]; got != tt.want {
				t.Errorf("%s = %v, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRedact_NonStringAndGroups(t *testing.T) {
	var buf bytes.Buffer
	l := newBuffered(t, &buf, "info")

	l.With("app", "chess").Info("auth",
		"token_presented", true,
		slog.Group("upgrade", "token", fullToken, "password", "p"),
	)

	entry := decodeEntry(t, &buf)
	if entry["token_presented"] != true {
		t.Errorf("token_presented = %v, bools are not redacted", entry["token_presented"])
	}
	group, ok := entry["upgrade"].(map[string]any)
	if !ok {
		t.Fatalf("upgrade group missing: %v", entry)
	}
	if group["token"] != "sktk_ABC...klm" || group["password"] != redactedValue {
		t.Errorf("group = %v", group)
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]string{
		fullToken:      "sktk_ABC...klm",
		"sktk_ABCDEFG": "sktk_ABC...EFG",
		"sktk_ABCDEF":  "sktk_***",
		"sktk_":        "sktk_***",
	}
	for in, want := range tests {
		if got := maskToken(in); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}
