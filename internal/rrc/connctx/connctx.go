// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

// Package connctx implements the optional per-destination
// ConnectionContext lifecycle used for QoS bookkeeping: slot allocation
// state tracked across route changes and idle teardown.
package connctx

import (
	"sync"
	"time"

	"github.com/tacticalmesh/rrc/internal/rrc/types"
)

// InactivityTimeout tears a Connected context down after this long
// without traffic.
const InactivityTimeout = 30 * time.Second

// SetupTimeout tears a Setup context down if it never reaches Connected.
const SetupTimeout = 10 * time.Second

// State is the connection-context FSM state.
type State int

const (
	Null State = iota
	Idle
	Setup
	Connected
	Reconfig
	Release
)

func (s State) String() string {
	switch s {
	case Null:
		return "Null"
	case Idle:
		return "Idle"
	case Setup:
		return "Setup"
	case Connected:
		return "Connected"
	case Reconfig:
		return "Reconfig"
	case Release:
		return "Release"
	default:
		return "Unknown"
	}
}

// Context is the per-destination QoS record.
type Context struct {
	Dest           uint8
	State          State
	QoSPriority    types.PriorityClass
	LastActivity   time.Time
	AllocatedSlots []int
	setupSince     time.Time
}

// Manager owns one Context per destination node, created on first
// accepted admission and torn down on inactivity.
type Manager struct {
	mu   sync.Mutex
	ctxs map[uint8]*Context
	now  func() time.Time
}

// NewManager creates an empty Manager. now defaults to time.Now.
func NewManager() *Manager {
	return &Manager{ctxs: make(map[uint8]*Context), now: time.Now}
}

// SetClock overrides the manager's clock, for deterministic timeout
// tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// OnAdmission records traffic to dest, creating a fresh Idle->Setup
// context on first admission and bumping last-activity otherwise.
func (m *Manager) OnAdmission(dest uint8, class types.PriorityClass) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.ctxs[dest]
	if !ok {
		c = &Context{Dest: dest, State: Idle, QoSPriority: class}
		m.ctxs[dest] = c
	}
	c.LastActivity = m.now()

	if c.State == Idle {
		c.State = Setup
		c.setupSince = m.now()
	}
	return c
}

// OnTransmitSuccess handles the first successful transmission to dest:
// Setup -> Connected.
func (m *Manager) OnTransmitSuccess(dest uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.ctxs[dest]
	if !ok || c.State != Setup {
		return
	}
	c.State = Connected
	c.LastActivity = m.now()
}

// OnRouteChange handles a route change for a Connected context:
// Connected -> Reconfig.
func (m *Manager) OnRouteChange(dest uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.ctxs[dest]
	if !ok || c.State != Connected {
		return
	}
	c.State = Reconfig
}

// OnNewRouteAccepted handles acceptance of the reconfigured route:
// Reconfig -> Connected.
func (m *Manager) OnNewRouteAccepted(dest uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.ctxs[dest]
	if !ok || c.State != Reconfig {
		return
	}
	c.State = Connected
	c.LastActivity = m.now()
}

// Teardown explicitly releases a context regardless of state.
func (m *Manager) Teardown(dest uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.ctxs[dest]
	if !ok {
		return
	}
	c.State = Release
}

// Sweep applies the SETUP_TIMEOUT and INACTIVITY_TIMEOUT rules, moving
// expired contexts to Release and removing them. Returns the destinations
// that were torn down.
func (m *Manager) Sweep() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var released []uint8
	for dest, c := range m.ctxs {
		switch c.State {
		case Setup:
			if now.Sub(c.setupSince) >= SetupTimeout {
				c.State = Release
			}
		case Connected:
			if now.Sub(c.LastActivity) >= InactivityTimeout {
				c.State = Release
			}
		}
		if c.State == Release {
			released = append(released, dest)
			delete(m.ctxs, dest)
		}
	}
	return released
}

// Get returns a copy of dest's context, if any.
func (m *Manager) Get(dest uint8) (Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.ctxs[dest]
	if !ok {
		return Context{}, false
	}
	return *c, true
}
