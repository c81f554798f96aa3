package command

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// legacyActionMap is the fixed action→type translation table for the
// transitional `control` topic. Translate, don't expand:
// no actions beyond this set are recognized.
var legacyActionMap = map[string]model.CommandType{
	"restart_vuos":  model.CmdRestartVUOS,
	"start_vuos":    model.CmdStartVUOS,
	"stop_vuos":     model.CmdStopVUOS,
	"quit_watchdog": model.CmdQuitWatchdog,
	"switch_broker": model.CmdSwitchBroker,
}

// TranslateLegacy converts a LegacyEnvelope into a standard CommandEnvelope,
// or reports ok=false for an unrecognized action (logged and dropped by the
// caller). Legacy commands always have isLocal=false and a fresh commandId,
// since the legacy wire format carries neither.
func TranslateLegacy(legacy model.LegacyEnvelope, log zerolog.Logger) (model.CommandEnvelope, bool) {
	cmdType, ok := legacyActionMap[legacy.Action]
	if !ok {
		log.Warn().Str("action", legacy.Action).Msg("unknown legacy control action, dropped")
		return model.CommandEnvelope{}, false
	}
	return model.CommandEnvelope{
		Schema:    model.CommandSchema,
		Ts:        time.Now().UnixMilli(),
		CommandID: newSyntheticID("legacy"),
		TTLMs:     localCommandTTL,
		Type:      cmdType,
		Args:      legacy.Args,
	}, true
}
