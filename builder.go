package goJourney

import (
	"errors"

	"github.com/MrEthical07/goJourney/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine] from a Transport, an optional session
// store, and configuration.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config    Config
	transport Transport
	sessions  SessionStore
	redis     *redis.Client
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithTransport sets the server transport the engine drives.
//
// WithTransport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithSessionStore sets an explicit session store. Takes precedence over
// a Redis-backed store derived from WithRedis.
func (b *Builder) WithSessionStore(s SessionStore) *Builder {
	b.sessions = s
	return b
}

// WithRedis supplies a Redis client from which Build derives a
// session-flag store when no explicit store was given.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the submit latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and produces an Engine. A Builder
// can be used at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.transport == nil {
		return nil, errors.New("transport required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	sessions := b.sessions
	if sessions == nil && b.redis != nil {
		sessions = session.NewStore(
			b.redis,
			cfg.Session.RedisPrefix,
			cfg.Session.FlagTTL,
		)
	}

	// -------- AUDIT PIPELINE --------
	var dispatcher *auditDispatcher
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = NoOpSink{}
		}
		dispatcher = newAuditDispatcher(cfg.Audit, sink)
	}

	// -------- ENGINE --------
	noticeBuffer := cfg.PostAuth.NoticeBuffer
	if noticeBuffer <= 0 {
		noticeBuffer = 1
	}

	e := &Engine{
		cfg:       cfg,
		transport: b.transport,
		sessions:  sessions,
		audit:     dispatcher,
		metrics:   NewMetrics(cfg.Metrics),
		notices:   make(chan Notice, noticeBuffer),
	}

	b.built = true
	return e, nil
}
