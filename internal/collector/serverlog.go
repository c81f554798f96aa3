package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

const serverLockInterval = 2 * time.Second
const errorLogInterval = 10 * time.Second

// ServerLogCollector reads the target application's heartbeat lock file and
// error log. Both are application-owned files, not a platform probe, so they
// are read directly rather than behind a pluggable probe.
type ServerLogCollector struct {
	lockPath string
	log      zerolog.Logger

	mu        sync.RWMutex
	lock      *model.LockState
	errorLog  model.EventLog

	readLock func(path string) (*model.LockState, error)
	readErr  func(path string) (model.EventLog, error)
}

// NewServerLogCollector constructs a ServerLogCollector for the given lock-file path.
func NewServerLogCollector(lockPath string, log zerolog.Logger) *ServerLogCollector {
	return &ServerLogCollector{
		lockPath: lockPath,
		log:      log,
		readLock: readLockFile,
		readErr:  readErrorLogTail,
	}
}

// Run interleaves the 2s lock-file read and the 10s error-log read on a
// single goroutine, skipping the error-log read on ticks that aren't its multiple.
func (s *ServerLogCollector) Run(ctx context.Context) {
	s.sampleLock(ctx)
	s.sampleErrorLog(ctx)

	ticker := time.NewTicker(serverLockInterval)
	defer ticker.Stop()
	tick := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			s.sampleLock(ctx)
			if tick%(int(errorLogInterval/serverLockInterval)) == 0 {
				s.sampleErrorLog(ctx)
			}
		}
	}
}

func (s *ServerLogCollector) sampleLock(_ context.Context) {
	lock, err := s.readLock(s.lockPath)
	if err != nil {
		s.mu.Lock()
		s.lock = nil
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.lock = lock
	s.mu.Unlock()
}

func (s *ServerLogCollector) sampleErrorLog(_ context.Context) {
	summary, err := s.readErr(s.lockPath)
	if err != nil {
		s.log.Debug().Err(err).Msg("error log read failed")
		return
	}
	s.mu.Lock()
	s.errorLog = summary
	s.mu.Unlock()
}

// Snapshot returns the last cached lock-state and error-log summary.
func (s *ServerLogCollector) Snapshot() (*model.LockState, model.EventLog) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lock, s.errorLog
}
