package view

import (
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

const DefaultExamDuration = 1800 * time.Second

// Countdown ticks once per second on clk and calls onExpire exactly once
// when it reaches zero. Stop before zero suppresses onExpire.
type Countdown struct {
	clock    clock.Clock
	onTick   func(remaining time.Duration)
	onExpire func()

	mu        sync.Mutex
	remaining time.Duration
	timer     *clock.Timer
	started   bool
	stopped   bool
	expired   bool
	once      sync.Once
}

func NewCountdown(clk clock.Clock, total time.Duration, onTick func(time.Duration), onExpire func()) *Countdown {
	if clk == nil {
		clk = clock.New()
	}
	if total <= 0 {
		total = DefaultExamDuration
	}
	return &Countdown{
		clock:     clk,
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: total,
	}
}

func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true
	c.armLocked()
}

func (c *Countdown) armLocked() {
	step := time.Second
	if c.remaining < step {
		step = c.remaining
	}
	c.timer = c.clock.AfterFunc(step, func() {
		c.tick(step)
	})
}

func (c *Countdown) tick(step time.Duration) {
	c.mu.Lock()
	if c.stopped || c.expired {
		c.mu.Unlock()
		return
	}
	c.remaining -= step
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		c.timer = nil
	} else {
		c.armLocked()
	}
	remaining, expired := c.remaining, c.expired
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if expired && c.onExpire != nil {
		c.once.Do(func() {
			c.mu.Lock()
			stopped := c.stopped
			c.mu.Unlock()
			if !stopped {
				c.onExpire()
			}
		})
	}
}

// Stop cancels the countdown; it is safe to call more than once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// FormatClock renders d as MM:SS.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
