package collector

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// lockFilePayload mirrors the JSON heartbeat file the target application
// maintains while running: {pid, startTime, lastHeartbeat}.
type lockFilePayload struct {
	PID           int       `json:"pid"`
	StartTime     time.Time `json:"startTime"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
}

// healthyHeartbeatWindow is how stale a heartbeat may be before the lock is
// considered unhealthy (used as LockState.Healthy; LOCK_STALE debounce is
// applied separately by the health engine).
const healthyHeartbeatWindow = 15 * time.Second

func readLockFile(path string) (*model.LockState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload lockFilePayload
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, err
	}
	age := time.Since(payload.LastHeartbeat)
	return &model.LockState{
		PID:            payload.PID,
		StartTime:      payload.StartTime,
		LastHeartbeat:  payload.LastHeartbeat,
		HeartbeatAgeMs: age.Milliseconds(),
		Healthy:        age < healthyHeartbeatWindow,
	}, nil
}

// errorLogPath derives the sibling error log path from the lock-file path
// (e.g. app.lock -> app.errlog).
func errorLogPath(lockPath string) string {
	if idx := strings.LastIndex(lockPath, "."); idx >= 0 {
		return lockPath[:idx] + ".errlog"
	}
	return lockPath + ".errlog"
}

// readErrorLogTail reports the error log's current line count and most
// recent line as a point-in-time summary; no read cursor is persisted
// between samples.
func readErrorLogTail(lockPath string) (model.EventLog, error) {
	f, err := os.Open(errorLogPath(lockPath))
	if err != nil {
		if os.IsNotExist(err) {
			return model.EventLog{}, nil
		}
		return model.EventLog{}, err
	}
	defer f.Close()

	var count int
	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		count++
		last = line
	}
	return model.EventLog{
		RecentCount: count,
		LastMessage: last,
		LastTime:    time.Now(),
	}, scanner.Err()
}
