// Package lease implements the single retained (owner, expiry) record that
// arbitrates exclusive destructive-command authority.
package lease

import (
	"sync"
	"time"
)

// Manager tracks the single process-wide lease record.
type Manager struct {
	mu    sync.RWMutex
	owner string
	expiresTs int64
	nowFn func() time.Time
}

// New constructs an empty Manager (no active lease).
func New() *Manager {
	return &Manager{nowFn: time.Now}
}

// Update applies an inbound lease payload: accepted if there is no
// currently-active lease or the existing owner matches the incoming owner;
// rejected silently otherwise.
func (m *Manager) Update(owner string, expiresTs int64) (accepted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFn().UnixMilli()
	if m.owner == "" || m.expiresTs <= now || m.owner == owner {
		m.owner = owner
		m.expiresTs = expiresTs
		return true
	}
	return false
}

// Current returns the current (owner, expiresTs) snapshot.
func (m *Manager) Current() (owner string, expiresTs int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owner, m.expiresTs
}

// IsActive reports whether the lease currently grants exclusive control to anyone.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.nowFn().UnixMilli()
	return m.owner != "" && m.expiresTs > now
}

// Decision is the result of an authorization check.
type Decision struct {
	Allowed     bool
	Reason      string
	LocalBypass bool
}

// Validate decides whether clientID may run a command under the current
// lease state.
func (m *Manager) Validate(clientID string, isLocal bool, requiresLease, localBypass bool) Decision {
	if !requiresLease {
		return Decision{Allowed: true}
	}
	if isLocal && localBypass {
		return Decision{Allowed: true, LocalBypass: true}
	}

	m.mu.RLock()
	owner, expiresTs := m.owner, m.expiresTs
	now := m.nowFn().UnixMilli()
	m.mu.RUnlock()

	if !(owner != "" && expiresTs > now) {
		return Decision{Allowed: false, Reason: "no active lease"}
	}
	if owner != clientID {
		return Decision{Allowed: false, Reason: "lease held by " + owner}
	}
	return Decision{Allowed: true}
}
