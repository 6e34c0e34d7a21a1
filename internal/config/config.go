// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package config defines the RRC node's typed configuration, loaded from
// a YAML file overlaying literal spec defaults and validated before the
// core starts.
package config

import "time"

// Config stores the full RRC node configuration.
type Config struct {
	LogLevel LogLevel `yaml:"log_level"`
	NodeID   uint8    `yaml:"node_id"`

	Queues      Queues      `yaml:"queues"`
	LinkQuality LinkQuality `yaml:"link_quality"`
	Tdma        Tdma        `yaml:"tdma"`
	Voice       Voice       `yaml:"voice"`
	NC          NC          `yaml:"nc"`
	Checkpoint  Checkpoint  `yaml:"checkpoint"`

	Redis   Redis   `yaml:"redis"`
	Metrics Metrics `yaml:"metrics"`
}

// Queues configures the per-class queue depths the classifier admits
// into.
type Queues struct {
	Capacity   int   `yaml:"capacity"`
	MTU        int   `yaml:"mtu"`
	InitialTTL uint8 `yaml:"initial_ttl"`
}

// LinkQuality configures the neighbor tracker's activity, change, and
// staleness thresholds.
type LinkQuality struct {
	RSSIActiveDBM float64 `yaml:"rssi_active_dbm"`
	SNRActiveDB   float64 `yaml:"snr_active_db"`
	PERActivePct  float64 `yaml:"per_active_pct"`

	RSSIChangeDBM float64 `yaml:"rssi_change_dbm"`
	SNRChangeDB   float64 `yaml:"snr_change_db"`
	PERChangePct  float64 `yaml:"per_change_pct"`

	UsableRSSIDBM float64 `yaml:"usable_rssi_dbm"`
	UsableSNRDB   float64 `yaml:"usable_snr_db"`
	UsablePERPct  float64 `yaml:"usable_per_pct"`

	StaleAfterMs int `yaml:"stale_after_ms"`
}

// Tdma holds the superframe timing. The run loop's tick interval is taken
// from SlotDurationMs; the superframe clock itself advances by the fixed
// timesync constants (10ms slots, 10 slots per frame, 200ms cold-start
// scan), and SlotsPerFrame and MaxScanTimeMs are not read by the core.
type Tdma struct {
	SlotDurationMs int `yaml:"slot_duration_ms"`
	SlotsPerFrame  int `yaml:"slots_per_frame"`
	MaxScanTimeMs  int `yaml:"max_scan_time_ms"`
}

// Voice holds the PTT/CR/CC reservation handshake timeout. The voice FSM
// uses its fixed voicefsm.NCSlotTimeout and does not read this value.
type Voice struct {
	NCSlotTimeoutMs int `yaml:"nc_slot_timeout_ms"`
}

// NC holds the network-control slot count and the per-destination
// connection context timeouts. The NC slot assignor and the connection
// context manager use their fixed package constants (ncslot.NumSlots,
// connctx.SetupTimeout, connctx.InactivityTimeout) and do not read these
// values.
type NC struct {
	NumSlots           int `yaml:"num_slots"`
	SetupTimeoutS      int `yaml:"setup_timeout_s"`
	InactivityTimeoutS int `yaml:"inactivity_timeout_s"`
}

// Checkpoint configures periodic state persistence to the KV store.
type Checkpoint struct {
	Enabled   bool `yaml:"enabled"`
	IntervalS int  `yaml:"interval_s"`
}

// Redis configures the optional Redis-backed KV and pub/sub transports.
// When Enabled is false, RRC uses its in-memory implementations.
type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
}

// Metrics configures the Prometheus metrics HTTP endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
	Port    int    `yaml:"port"`
}

// DefaultConfig returns a Config populated with the spec's literal
// default values, suitable as a starting point before a file overlay is
// applied.
func DefaultConfig() Config {
	return Config{
		LogLevel: LogLevelInfo,
		Queues: Queues{
			Capacity:   16,
			MTU:        256,
			InitialTTL: 12,
		},
		LinkQuality: LinkQuality{
			RSSIActiveDBM: -85,
			SNRActiveDB:   10,
			PERActivePct:  10,
			RSSIChangeDBM: 5,
			SNRChangeDB:   3,
			PERChangePct:  5,
			UsableRSSIDBM: -85,
			UsableSNRDB:   12,
			UsablePERPct:  5,
			StaleAfterMs:  500,
		},
		Tdma: Tdma{
			SlotDurationMs: 10,
			SlotsPerFrame:  10,
			MaxScanTimeMs:  200,
		},
		Voice: Voice{
			NCSlotTimeoutMs: 2000,
		},
		NC: NC{
			NumSlots:           40,
			SetupTimeoutS:      10,
			InactivityTimeoutS: 30,
		},
		Checkpoint: Checkpoint{
			Enabled:   true,
			IntervalS: 30,
		},
		Redis: Redis{
			Host: "localhost",
			Port: 6379,
		},
		Metrics: Metrics{
			Enabled: true,
			Bind:    "0.0.0.0",
			Port:    9090,
		},
	}
}

// StaleAfter returns the configured staleness window as a Duration.
func (l LinkQuality) StaleAfter() time.Duration {
	return time.Duration(l.StaleAfterMs) * time.Millisecond
}

// NCSlotTimeout returns the configured voice CC wait as a Duration.
func (v Voice) NCSlotTimeout() time.Duration {
	return time.Duration(v.NCSlotTimeoutMs) * time.Millisecond
}

// SetupTimeout returns the configured connection-context setup bound.
func (n NC) SetupTimeout() time.Duration {
	return time.Duration(n.SetupTimeoutS) * time.Second
}

// InactivityTimeout returns the configured connection-context idle bound.
func (n NC) InactivityTimeout() time.Duration {
	return time.Duration(n.InactivityTimeoutS) * time.Second
}

// Interval returns the configured checkpoint cadence.
func (c Checkpoint) Interval() time.Duration {
	return time.Duration(c.IntervalS) * time.Second
}
