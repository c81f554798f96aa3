package command

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

func TestTranslateLegacyKnownActions(t *testing.T) {
	cases := map[string]model.CommandType{
		"restart_vuos":  model.CmdRestartVUOS,
		"start_vuos":    model.CmdStartVUOS,
		"stop_vuos":     model.CmdStopVUOS,
		"quit_watchdog": model.CmdQuitWatchdog,
		"switch_broker": model.CmdSwitchBroker,
	}
	for action, want := range cases {
		env, ok := TranslateLegacy(model.LegacyEnvelope{Action: action}, zerolog.Nop())
		if !ok {
			t.Fatalf("action %q not translated", action)
		}
		if env.Type != want {
			t.Fatalf("action %q -> %q, want %q", action, env.Type, want)
		}
		if env.CommandID == "" || env.TTLMs <= 0 {
			t.Fatalf("translated envelope missing synthetic id or TTL: %+v", env)
		}
	}
}

func TestTranslateLegacyUnknownActionDropped(t *testing.T) {
	if _, ok := TranslateLegacy(model.LegacyEnvelope{Action: "format_disk"}, zerolog.Nop()); ok {
		t.Fatal("unknown legacy action must be dropped, not translated")
	}
}

func TestTranslateLegacyCarriesArgs(t *testing.T) {
	env, ok := TranslateLegacy(model.LegacyEnvelope{
		Action: "switch_broker",
		Args:   map[string]any{"brokerId": "broker-2"},
	}, zerolog.Nop())
	if !ok {
		t.Fatal("switch_broker not translated")
	}
	if env.Args["brokerId"] != "broker-2" {
		t.Fatalf("args not carried through: %+v", env.Args)
	}
}

func TestLegacyCommandIDsAreUnique(t *testing.T) {
	a, _ := TranslateLegacy(model.LegacyEnvelope{Action: "restart_vuos"}, zerolog.Nop())
	b, _ := TranslateLegacy(model.LegacyEnvelope{Action: "restart_vuos"}, zerolog.Nop())
	if a.CommandID == b.CommandID {
		t.Fatalf("two legacy translations share commandId %q", a.CommandID)
	}
}
