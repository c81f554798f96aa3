package assembler

import (
	"sync"
	"time"

	"github.com/jonvt/watchdog-agent/internal/collector"
)

// crashTracker detects target-application crashes: a PID change on
// the target process increments today's crash count; disappearance alone
// does not count, only the next reappearance under a different PID.
// The daily count resets at local calendar-date rollover, tracked by
// comparing year/day-of-year rather than a naive 24h timer so a
// long-sleeping host still resets exactly at midnight local time.
type crashTracker struct {
	mu         sync.Mutex
	lastPID    int32
	havePID    bool
	count      int
	rolloverAt time.Time
	haveDate   bool
	nowFn      func() time.Time
}

func newCrashTracker() *crashTracker {
	return &crashTracker{nowFn: time.Now}
}

func (c *crashTracker) observe(target collector.ProcessSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollIfNewDay()

	if !target.Running {
		// Keep the last observed PID: disappearance alone is not a crash,
		// but the next reappearance under a different PID is.
		return
	}

	if c.havePID && target.PID != c.lastPID {
		c.count++
	}
	c.lastPID = target.PID
	c.havePID = true
}

func (c *crashTracker) rollIfNewDay() {
	now := c.nowFn().Local()
	if !c.haveDate {
		c.rolloverAt = now
		c.haveDate = true
		return
	}
	if now.Year() != c.rolloverAt.Year() || now.YearDay() != c.rolloverAt.YearDay() {
		c.count = 0
		c.rolloverAt = now
	}
}

func (c *crashTracker) countToday() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
