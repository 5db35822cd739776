package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		enabled zapcore.Level
		wantErr bool
	}{
		{name: "console info", cfg: Config{Level: "info", Format: "console"}, enabled: zapcore.InfoLevel},
		{name: "json debug", cfg: Config{Level: "debug", Format: "json"}, enabled: zapcore.DebugLevel},
		{name: "default format", cfg: Config{Level: "warn"}, enabled: zapcore.WarnLevel},
		{name: "bad level", cfg: Config{Level: "loud", Format: "console"}, wantErr: true},
		{name: "bad format", cfg: Config{Level: "info", Format: "xml"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !logger.Core().Enabled(tc.enabled) {
				t.Fatalf("level %s should be enabled", tc.enabled)
			}
			if tc.enabled > zapcore.DebugLevel && logger.Core().Enabled(tc.enabled-1) {
				t.Fatalf("level %s should be disabled", tc.enabled-1)
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected no-op logger")
	}
}
