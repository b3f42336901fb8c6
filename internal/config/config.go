// Package config holds the NetRush configuration surface (§6) shared by
// the server and client entry points.
package config

import "time"

// Config collects every recognized NetRush option and its default (§6).
type Config struct {
	Host string
	Port int

	GridSide    int
	UpdateRate  int // Hz
	FullEvery   uint32
	RedundancyK int
	MaxClients  int

	RDTTimeout        time.Duration
	MaxRetries        int
	ClientTimeout     time.Duration
	HeartbeatInterval time.Duration

	CompressionThreshold int
	MaxDatagram          int
}

// Default returns the documented default configuration (§6). The
// default port is 5000 (the Phase-2 table); the 5005 baseline from
// earlier protocol drafts is never silently substituted (§9).
func Default() Config {
	return Config{
		Host: "0.0.0.0",
		Port: 5000,

		GridSide:    20,
		UpdateRate:  20,
		FullEvery:   10,
		RedundancyK: 2,
		MaxClients:  4,

		RDTTimeout:        500 * time.Millisecond,
		MaxRetries:        3,
		ClientTimeout:     15 * time.Second,
		HeartbeatInterval: 3 * time.Second,

		CompressionThreshold: 1000,
		MaxDatagram:          1200,
	}
}

// TickPeriod is the snapshot scheduler's fixed cadence derived from
// UpdateRate.
func (c Config) TickPeriod() time.Duration {
	return time.Second / time.Duration(c.UpdateRate)
}

// Option mutates a Config; used by callers that want to override a
// handful of defaults without repeating the whole struct literal.
type Option func(*Config)

// WithPort overrides the UDP port.
func WithPort(port int) Option { return func(c *Config) { c.Port = port } }

// WithHost overrides the bind address.
func WithHost(host string) Option { return func(c *Config) { c.Host = host } }

// WithGridSide overrides the authoritative grid dimension.
func WithGridSide(n int) Option { return func(c *Config) { c.GridSide = n } }

// WithMaxClients overrides the capacity bound.
func WithMaxClients(n int) Option { return func(c *Config) { c.MaxClients = n } }

// New builds a Config from the documented defaults with the given
// overrides applied in order.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
