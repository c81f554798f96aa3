// Package command implements the Command Processor: a registry of typed
// handlers, idempotency caching, TTL expiry, lease-based authorization,
// and acknowledgement delivery.
package command

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// Result is what a handler returns on success.
type Result struct {
	Message string
	Details map[string]any
}

// Handler executes one command type's effect. args has already been decoded
// into the command's typed struct and validated.
type Handler func(ctx context.Context, args any) (Result, error)

// Entry is one registry row: {type, requiresLease, localBypass, handler},
// plus a typed-args constructor so each command type decodes into its own
// struct validated through go-playground/validator rather than a bare
// map[string]any.
type Entry struct {
	Type          model.CommandType
	RequiresLease bool
	LocalBypass   bool
	NewArgs       func() any
	Handler       Handler
}

// SwitchBrokerArgs is the typed payload for SWITCH_BROKER.
type SwitchBrokerArgs struct {
	BrokerID string `json:"brokerId" validate:"required"`
}

// StartStreamArgs is the typed payload for START_STREAM.
type StartStreamArgs struct {
	Monitor int                 `json:"monitor" validate:"gte=0"`
	Quality model.StreamQuality `json:"quality"`
}

// SetStreamQualityArgs is the typed payload for SET_STREAM_QUALITY.
type SetStreamQualityArgs struct {
	Quality model.StreamQuality `json:"quality"`
}

// emptyArgs backs command types that take no arguments.
type emptyArgs struct{}

// Registry is the fixed, startup-populated set of command entries.
type Registry struct {
	entries  map[model.CommandType]Entry
	validate *validator.Validate
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[model.CommandType]Entry),
		validate: validator.New(),
	}
}

// Register adds an entry, overwriting any existing one for the same type.
func (r *Registry) Register(e Entry) {
	if e.NewArgs == nil {
		e.NewArgs = func() any { return &emptyArgs{} }
	}
	r.entries[e.Type] = e
}

// Lookup returns the entry for a command type, if registered.
func (r *Registry) Lookup(t model.CommandType) (Entry, bool) {
	e, ok := r.entries[t]
	return e, ok
}

// DecodeAndValidate converts a raw args map into the entry's typed struct and
// runs struct-tag validation on it.
func (r *Registry) DecodeAndValidate(e Entry, raw map[string]any) (any, error) {
	target := e.NewArgs()
	if err := decodeInto(raw, target); err != nil {
		return nil, fmt.Errorf("decode args: %w", err)
	}
	if err := r.validate.Struct(target); err != nil {
		return nil, fmt.Errorf("validate args: %w", err)
	}
	return target, nil
}
