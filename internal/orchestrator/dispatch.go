package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonvt/watchdog-agent/internal/command"
	"github.com/jonvt/watchdog-agent/internal/model"
)

// dispatch routes one inbound bus message by its topic suffix. It runs on
// the MQTT client's callback goroutine, so command handling is pushed onto
// its own goroutine to keep the bus reader unblocked.
func (o *Orchestrator) dispatch(suffix, sub string, payload []byte) {
	switch suffix {
	case "command":
		o.dispatchCommand(sub, payload)
	case "lease":
		o.dispatchLease(payload)
	case "control":
		o.dispatchLegacy(payload)
	case "webrtc":
		o.dispatchWebRTC(sub, payload)
	}
}

func (o *Orchestrator) dispatchCommand(clientID string, payload []byte) {
	if clientID == "" {
		o.log.Warn().Msg("command message without client id, dropped")
		return
	}
	var env model.CommandEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		o.log.Warn().Err(err).Str("clientId", clientID).Msg("malformed command envelope, dropped")
		return
	}
	go o.processor.Handle(context.Background(), env, clientID, false)
}

func (o *Orchestrator) dispatchLease(payload []byte) {
	if len(payload) == 0 {
		// Retained-topic clear; the current lease keeps running to expiry.
		return
	}
	var l model.Lease
	if err := json.Unmarshal(payload, &l); err != nil {
		o.log.Warn().Err(err).Msg("malformed lease payload, dropped")
		return
	}
	if o.leases.Update(l.Owner, l.ExpiresTs) {
		o.log.Info().Str("owner", l.Owner).Int64("expiresTs", l.ExpiresTs).Msg("lease updated")
	} else {
		owner, _ := o.leases.Current()
		o.log.Info().Str("rejectedOwner", l.Owner).Str("currentOwner", owner).Msg("lease update rejected")
	}
}

func (o *Orchestrator) dispatchLegacy(payload []byte) {
	var legacy model.LegacyEnvelope
	if err := json.Unmarshal(payload, &legacy); err != nil {
		o.log.Warn().Err(err).Msg("malformed legacy control payload, dropped")
		return
	}
	env, ok := command.TranslateLegacy(legacy, o.log)
	if !ok {
		return
	}
	go o.processor.Handle(context.Background(), env, "legacy", false)
}

// dispatchWebRTC routes viewer-side signaling. The bridge's own publishes
// echo back on the bidirectional topics, so anything originating from the
// current publisher id is discarded; the retained offer channel is outbound
// only and never routed inbound.
func (o *Orchestrator) dispatchWebRTC(channel string, payload []byte) {
	if channel == "offer" {
		return
	}
	// Generous outer bound: a join's offer fetch alone may take three 2s
	// attempts plus backoff.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	publisherID := o.bridge.PublisherID()

	switch channel {
	case "join":
		var msg model.JoinMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.From == "" {
			o.log.Debug().Msg("malformed join message, dropped")
			return
		}
		o.bridge.HandleJoin(ctx, msg.From)
	case "answer":
		var msg model.AnswerMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.From == "" {
			o.log.Debug().Msg("malformed answer message, dropped")
			return
		}
		if msg.From == publisherID {
			return
		}
		o.bridge.HandleAnswer(ctx, msg.From, msg.Description)
	case "ice":
		var msg model.CandidateMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.From == "" {
			o.log.Debug().Msg("malformed candidate message, dropped")
			return
		}
		if msg.From == publisherID {
			return
		}
		o.bridge.HandleRemoteICE(ctx, msg.From, msg.Candidate)
	case "leave":
		var msg model.LeaveMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.From == "" {
			o.log.Debug().Msg("malformed leave message, dropped")
			return
		}
		o.bridge.HandleLeave(ctx, msg.From)
	}
}
