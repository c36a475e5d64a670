package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flip.json")
	body := `{"server":{"addr":":9000"},"shedding":{"missed_call_penalty":2},"deduction":{"win_rule":"first_exposed"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Shedding.MissedCallPenalty != 2 || cfg.Deduction.WinRule != "first_exposed" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Shedding.StartingHand != 7 || cfg.Session.QueueSize != 64 || cfg.Deduction.Exhaustion != "stalemate" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	invalid := filepath.Join(dir, "invalid.json")
	os.WriteFile(bad, []byte("{"), 0o600)
	os.WriteFile(invalid, []byte(`{"deduction":{"win_rule":"sudden_death"}}`), 0o600)

	tests := []struct {
		name string
		path string
	}{
		{name: "Missing", path: filepath.Join(dir, "nope.json")},
		{name: "Malformed", path: bad},
		{name: "Invalid", path: invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(map[string]string{
		"FLIP_ADDR":             ":7000",
		"flip_nats_url":         "nats://localhost:4222",
		"FLIP_SESSION_LOG_TAIL": "10",
		"flip_shedding_forbid_draw_when_playable": "true",
		"FLIP_BOTS_MIN_DELAY_MS":                  "0",
		"FLIP_BOTS_MAX_DELAY_MS":                  "5",
		"HOME":                                    "/root",
	})
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Server.NatsURL != "nats://localhost:4222" {
		t.Fatalf("server overrides not applied: %+v", cfg.Server)
	}
	if cfg.Session.LogTail != 10 || !cfg.Shedding.ForbidDrawWhenPlayable {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	lo, hi := cfg.BotDelay()
	if lo != 0 || hi != 5*time.Millisecond {
		t.Fatalf("bot delay = %v-%v", lo, hi)
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "NotANumber", env: map[string]string{"FLIP_SESSION_QUEUE_SIZE": "lots"}},
		{name: "NotABool", env: map[string]string{"FLIP_BOTS_ENABLED": "maybe"}},
		{name: "UnknownPolicy", env: map[string]string{"FLIP_DEDUCTION_EXHAUSTION": "reshuffle"}},
		{name: "InvertedDelay", env: map[string]string{"FLIP_BOTS_MIN_DELAY_MS": "5000"}},
		{name: "UnknownBotLevel", env: map[string]string{"FLIP_BOTS_LEVEL": "godlike"}},
		{name: "ScriptWithoutFile", env: map[string]string{"FLIP_BOTS_LEVEL": "script"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Default().ApplyEnv(tt.env); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
