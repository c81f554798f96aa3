package signaling

import (
	"context"
	"time"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// ViewerState is one node of the per-viewer signaling state machine.
type ViewerState string

const (
	ViewerAwaitingOffer ViewerState = "AwaitingOffer"
	ViewerSentOffer     ViewerState = "SentOffer"
	ViewerAnswerApplied ViewerState = "AnswerApplied"
	ViewerTerminated    ViewerState = "Terminated"
)

const (
	joinDebounce         = 2 * time.Second
	offerAttempts        = 3
	offerAttemptTimeout  = 2 * time.Second
	offerBackoff         = 500 * time.Millisecond
	icePollInterval      = 150 * time.Millisecond
	icePollCap           = 30 * time.Second
)

// viewerSession is the runtime wrapper around model.ViewerConnection: the
// wire-visible fields plus the first-class cancellation handle for its ICE
// polling timer, so every cleanup path (leave, bridge stop, rejoin) can
// deterministically stop it.
type viewerSession struct {
	conn     *model.ViewerConnection
	state    ViewerState
	joinedAt time.Time
	pollStop context.CancelFunc
}
