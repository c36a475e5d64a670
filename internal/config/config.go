package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig configures the standalone transports.
type ServerConfig struct {
	Addr string `json:"addr"`
	// LobbyKey guards CreateGame on the HTTP surface. Empty disables the check.
	LobbyKey       string `json:"lobby_key"`
	TokenSecret    string `json:"token_secret"`
	TokenIssuer    string `json:"token_issuer"`
	TokenTTLSecond int    `json:"token_ttl_seconds"`
	// NatsURL enables the NATS bridge when set.
	NatsURL     string `json:"nats_url"`
	NatsSubject string `json:"nats_subject"`
}

// SessionConfig sizes the per-session coordinator.
type SessionConfig struct {
	QueueSize        int `json:"queue_size"`
	SubscriberBuffer int `json:"subscriber_buffer"`
	// LogTail is how many event log entries a view carries.
	LogTail int `json:"log_tail"`
}

type DeductionConfig struct {
	WinRule          string `json:"win_rule"`
	Exhaustion       string `json:"exhaustion"`
	ShowHiddenColors bool   `json:"show_hidden_colors"`
}

type SheddingConfig struct {
	StartingHand           int  `json:"starting_hand"`
	CallThreshold          int  `json:"call_threshold"`
	MissedCallPenalty      int  `json:"missed_call_penalty"`
	ForbidDrawWhenPlayable bool `json:"forbid_draw_when_playable"`
}

type BotConfig struct {
	Enabled bool `json:"enabled"`
	// MinDelayMs and MaxDelayMs bound the pause before a bot acts.
	MinDelayMs int `json:"min_delay_ms"`
	MaxDelayMs int `json:"max_delay_ms"`
	// Level is easy, smart or script. Script bots run LuaScript, a file path.
	Level     string `json:"level"`
	LuaScript string `json:"lua_script"`
}

type Config struct {
	Server    ServerConfig    `json:"server"`
	Session   SessionConfig   `json:"session"`
	Deduction DeductionConfig `json:"deduction"`
	Shedding  SheddingConfig  `json:"shedding"`
	Bots      BotConfig       `json:"bots"`
}

// Default returns a configuration that runs without any file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			TokenSecret:    "flip-dev-secret",
			TokenIssuer:    "flip",
			TokenTTLSecond: 6 * 60 * 60,
			NatsSubject:    "flip",
		},
		Session: SessionConfig{
			QueueSize:        64,
			SubscriberBuffer: 32,
			LogTail:          50,
		},
		Deduction: DeductionConfig{
			WinRule:    "last_concealed",
			Exhaustion: "stalemate",
		},
		Shedding: SheddingConfig{
			StartingHand:  7,
			CallThreshold: 2,
		},
		Bots: BotConfig{
			Enabled:    true,
			MinDelayMs: 400,
			MaxDelayMs: 1200,
			Level:      "smart",
		},
	}
}

// Load reads a JSON file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from an environment map. Keys are matched case
// insensitively with or without the "flip_" prefix, so both the process
// environment (FLIP_ADDR) and the Nakama runtime env (flip_addr) work.
func (c *Config) ApplyEnv(env map[string]string) error {
	norm := make(map[string]string, len(env))
	for k, v := range env {
		k = strings.ToLower(k)
		if !strings.HasPrefix(k, "flip_") {
			continue
		}
		norm[strings.TrimPrefix(k, "flip_")] = v
	}

	strs := map[string]*string{
		"addr":                 &c.Server.Addr,
		"lobby_key":            &c.Server.LobbyKey,
		"token_secret":         &c.Server.TokenSecret,
		"token_issuer":         &c.Server.TokenIssuer,
		"nats_url":             &c.Server.NatsURL,
		"nats_subject":         &c.Server.NatsSubject,
		"deduction_win_rule":   &c.Deduction.WinRule,
		"deduction_exhaustion": &c.Deduction.Exhaustion,
		"bots_level":           &c.Bots.Level,
		"bots_lua_script":      &c.Bots.LuaScript,
	}
	ints := map[string]*int{
		"token_ttl_seconds":            &c.Server.TokenTTLSecond,
		"session_queue_size":           &c.Session.QueueSize,
		"session_subscriber_buffer":    &c.Session.SubscriberBuffer,
		"session_log_tail":             &c.Session.LogTail,
		"shedding_starting_hand":       &c.Shedding.StartingHand,
		"shedding_call_threshold":      &c.Shedding.CallThreshold,
		"shedding_missed_call_penalty": &c.Shedding.MissedCallPenalty,
		"bots_min_delay_ms":            &c.Bots.MinDelayMs,
		"bots_max_delay_ms":            &c.Bots.MaxDelayMs,
	}
	bools := map[string]*bool{
		"deduction_show_hidden_colors":       &c.Deduction.ShowHiddenColors,
		"shedding_forbid_draw_when_playable": &c.Shedding.ForbidDrawWhenPlayable,
		"bots_enabled":                       &c.Bots.Enabled,
	}

	for k, v := range norm {
		if p, ok := strs[k]; ok {
			*p = v
			continue
		}
		if p, ok := ints[k]; ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("flip_%s: %w", k, err)
			}
			*p = n
			continue
		}
		if p, ok := bools[k]; ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("flip_%s: %w", k, err)
			}
			*p = b
		}
	}
	return c.Validate()
}

// Validate rejects settings the engines cannot run with.
func (c *Config) Validate() error {
	switch c.Deduction.WinRule {
	case "last_concealed", "first_exposed":
	default:
		return fmt.Errorf("unknown deduction win rule %q", c.Deduction.WinRule)
	}
	switch c.Deduction.Exhaustion {
	case "stalemate", "guess_only":
	default:
		return fmt.Errorf("unknown deduction exhaustion policy %q", c.Deduction.Exhaustion)
	}
	if c.Session.QueueSize <= 0 || c.Session.SubscriberBuffer <= 0 {
		return fmt.Errorf("session queue and subscriber buffer must be positive")
	}
	if c.Session.LogTail < 0 {
		return fmt.Errorf("session log tail must not be negative")
	}
	if c.Bots.MinDelayMs < 0 || c.Bots.MaxDelayMs < c.Bots.MinDelayMs {
		return fmt.Errorf("invalid bot delay range %d-%d", c.Bots.MinDelayMs, c.Bots.MaxDelayMs)
	}
	switch c.Bots.Level {
	case "", "easy", "smart":
	case "script":
		if c.Bots.LuaScript == "" {
			return fmt.Errorf("script bots need bots.lua_script")
		}
	default:
		return fmt.Errorf("unknown bot level %q", c.Bots.Level)
	}
	if c.Server.TokenTTLSecond <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	return nil
}

// TokenTTL is the lifetime of issued player tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Server.TokenTTLSecond) * time.Second
}

// BotDelay returns the bot think-time bounds.
func (c *Config) BotDelay() (time.Duration, time.Duration) {
	return time.Duration(c.Bots.MinDelayMs) * time.Millisecond, time.Duration(c.Bots.MaxDelayMs) * time.Millisecond
}
