package goJourney

import (
	"errors"
	"time"
)

// Config carries all engine tuning. Instances are cloned at Build time and
// treated as immutable afterwards.
type Config struct {
	Journey  JourneyConfig
	PostAuth PostAuthConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JOURNEY CONFIG
====================================
*/

// JourneyConfig tunes the step exchange itself.
type JourneyConfig struct {
	// SuccessType is the response type marking journey completion.
	// Defaults to "LoginSuccess".
	SuccessType string
}

/*
====================================
POSTAUTH CONFIG
====================================
*/

// PostAuthConfig tunes the fire-and-forget sequence that runs after a
// journey reports Authenticated.
type PostAuthConfig struct {
	// Enabled gates the whole sequence. Disabled means completion sets the
	// session flag and nothing else.
	Enabled bool

	// NoticeBuffer is the capacity of the asynchronous notice channel.
	// Sends never block; overflow increments the dropped counter.
	NoticeBuffer int

	// InspectToken enables unverified inspection of the access token so the
	// session flag TTL can follow the token expiry.
	InspectToken bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes the Redis-backed session flag store built by
// [Builder.WithRedis].
type SessionConfig struct {
	RedisPrefix string
	FlagTTL     time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the Builder starts from:
// post-auth enabled with token inspection, metrics on, audit off, one-hour
// session flag TTL.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Journey: JourneyConfig{
			SuccessType: stepTypeLoginSuccess,
		},
		PostAuth: PostAuthConfig{
			Enabled:      true,
			NoticeBuffer: 8,
			InspectToken: true,
		},
		Session: SessionConfig{
			RedisPrefix: "aj",
			FlagTTL:     time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are values; a shallow copy is a deep copy.
	return cfg
}

// Validate rejects configurations the engine cannot honor.
func (c *Config) Validate() error {
	if c.Journey.SuccessType == "" {
		return errors.New("Journey.SuccessType must not be empty")
	}
	if c.PostAuth.NoticeBuffer < 0 {
		return errors.New("PostAuth.NoticeBuffer must be >= 0")
	}
	if c.Session.FlagTTL < 0 {
		return errors.New("Session.FlagTTL must be >= 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when audit is enabled")
	}
	return nil
}
