package lease

import (
	"testing"
	"time"
)

func TestUpdateAcceptsWhenNoActiveLease(t *testing.T) {
	m := New()
	if !m.Update("alice", time.Now().Add(time.Minute).UnixMilli()) {
		t.Fatalf("expected acceptance with no prior lease")
	}
	if !m.IsActive() {
		t.Fatalf("lease should be active after accepted update")
	}
}

func TestUpdateRejectsDifferentOwnerWhileActive(t *testing.T) {
	m := New()
	m.Update("alice", time.Now().Add(time.Minute).UnixMilli())
	if m.Update("bob", time.Now().Add(time.Minute).UnixMilli()) {
		t.Fatalf("expected rejection: alice's lease is still active")
	}
	owner, _ := m.Current()
	if owner != "alice" {
		t.Fatalf("owner should remain alice, got %s", owner)
	}
}

func TestUpdateAcceptsSameOwnerRenewal(t *testing.T) {
	m := New()
	m.Update("alice", time.Now().Add(time.Minute).UnixMilli())
	if !m.Update("alice", time.Now().Add(2*time.Minute).UnixMilli()) {
		t.Fatalf("same owner should be able to renew")
	}
}

func TestUpdateAcceptsAfterExpiry(t *testing.T) {
	m := New()
	m.Update("alice", time.Now().Add(-time.Minute).UnixMilli()) // already expired
	if !m.Update("bob", time.Now().Add(time.Minute).UnixMilli()) {
		t.Fatalf("expired lease should allow a new owner")
	}
}

func TestIsActiveInvariant(t *testing.T) {
	m := New()
	if m.IsActive() {
		t.Fatalf("fresh manager should have no active lease")
	}
	m.Update("alice", time.Now().Add(-time.Second).UnixMilli())
	if m.IsActive() {
		t.Fatalf("expired expiresTs must not be active")
	}
}

func TestValidateNoLeaseRequired(t *testing.T) {
	m := New()
	d := m.Validate("anyone", false, false, false)
	if !d.Allowed {
		t.Fatalf("commands not requiring a lease must always be allowed")
	}
}

func TestValidateLocalBypass(t *testing.T) {
	m := New()
	d := m.Validate("local-api", true, true, true)
	if !d.Allowed || !d.LocalBypass {
		t.Fatalf("expected local bypass to be allowed and flagged")
	}
}

func TestValidateDeniedWithoutActiveLease(t *testing.T) {
	m := New()
	d := m.Validate("ops-42", false, true, false)
	if d.Allowed {
		t.Fatalf("expected denial with no active lease")
	}
	if d.Reason != "no active lease" {
		t.Fatalf("unexpected reason: %s", d.Reason)
	}
}

func TestValidateDeniedWrongOwner(t *testing.T) {
	m := New()
	m.Update("alice", time.Now().Add(time.Minute).UnixMilli())
	d := m.Validate("bob", false, true, false)
	if d.Allowed {
		t.Fatalf("expected denial for non-owning client")
	}
}

func TestValidateAllowedForOwner(t *testing.T) {
	m := New()
	m.Update("alice", time.Now().Add(time.Minute).UnixMilli())
	d := m.Validate("alice", false, true, false)
	if !d.Allowed {
		t.Fatalf("expected allow for lease owner")
	}
}
