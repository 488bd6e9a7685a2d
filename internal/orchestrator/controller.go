// Package orchestrator drives one AI artifact request to a final outcome,
// retrying on a fixed delay while the backend reports the document is
// still being processed.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"studypilot/internal/backend"
	"studypilot/internal/model"
	"studypilot/internal/subject"
)

const (
	DefaultRetryDelay = 5 * time.Second
	ReasonNoDocument  = "no document"

	// Attempt labels beyond model.OutcomeKind.
	outcomeNetwork   = "network"
	outcomeDiscarded = "discarded"
)

var (
	ErrBusy      = errors.New("a generation is already in progress")
	ErrClosed    = errors.New("controller is closed")
	ErrNoSubject = errors.New("no document selected")
)

// Fetcher performs exactly one generation request.
type Fetcher interface {
	Generate(ctx context.Context, req model.GenerationRequest) (json.RawMessage, error)
}

type SubjectResolver interface {
	Resolve(ctx context.Context, kind model.ArtifactKind) (string, error)
}

type Options struct {
	Fetcher  Fetcher
	Resolver SubjectResolver
	Clock    clock.Clock
	// RetryDelay defaults to DefaultRetryDelay.
	RetryDelay time.Duration
	// MaxAttempts caps transient retries; 0 retries forever.
	MaxAttempts int
	Logger      *zap.Logger
	Metrics     *Metrics
	// OnChange receives a copy of the session after every transition.
	// It is called outside the controller lock and must not block for long.
	OnChange func(model.RetrySession)
}

// Controller owns at most one RetrySession at a time.
type Controller struct {
	fetcher     Fetcher
	resolver    SubjectResolver
	clock       clock.Clock
	retryDelay  time.Duration
	maxAttempts int
	logger      *zap.Logger
	metrics     *Metrics
	onChange    func(model.RetrySession)

	mu        sync.Mutex
	gen       uint64
	session   model.RetrySession
	timer     *clock.Timer
	base      context.Context
	cancel    context.CancelFunc
	stopWatch func() bool
	done      chan struct{}
	closed    bool
}

func New(opts Options) (*Controller, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	if opts.MaxAttempts < 0 {
		return nil, fmt.Errorf("max attempts must be >= 0")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	close(done)
	return &Controller{
		fetcher:     opts.Fetcher,
		resolver:    opts.Resolver,
		clock:       clk,
		retryDelay:  delay,
		maxAttempts: opts.MaxAttempts,
		logger:      logger,
		metrics:     opts.Metrics,
		onChange:    opts.OnChange,
		session:     model.RetrySession{Status: model.StatusIdle},
		done:        done,
	}, nil
}

// Advisory is the message shown while waiting for the next attempt.
func (c *Controller) Advisory() string {
	return AdvisoryFor(c.retryDelay)
}

func AdvisoryFor(delay time.Duration) string {
	return "Document is still being processed by the AI... Auto-retrying in " + humanDelay(delay) + "."
}

func humanDelay(d time.Duration) string {
	if d%time.Second == 0 {
		secs := int(d / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	return d.String()
}

// Start begins a new session for req. It fails with ErrBusy while another
// session is in flight or waiting. Cancelling ctx tears the session down
// the same way Reset does.
func (c *Controller) Start(ctx context.Context, req model.GenerationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if model.IsPending(c.session.Status) {
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()

	var missing error
	if req.Kind.RequiresSubject() && strings.TrimSpace(req.SubjectID) == "" {
		req.SubjectID, missing = c.resolveSubject(ctx, req.Kind)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if model.IsPending(c.session.Status) {
		c.mu.Unlock()
		return ErrBusy
	}
	c.stopLocked()
	c.gen++
	gen := c.gen
	now := c.clock.Now()
	c.session = model.RetrySession{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    model.StatusIdle,
		StartedAt: now,
		UpdatedAt: now,
	}
	c.done = make(chan struct{})

	if missing != nil {
		reason := ReasonNoDocument
		if !errors.Is(missing, ErrNoSubject) {
			reason = missing.Error()
		}
		c.transitionLocked(model.StatusFailed, reason)
		c.finishLocked()
		snap := c.session
		c.mu.Unlock()
		c.logger.Info("generation skipped", zap.String("kind", req.Kind.String()), zap.String("reason", reason))
		c.notify(snap)
		return missing
	}

	c.stopWatch = context.AfterFunc(ctx, func() {
		c.teardown(gen)
	})
	c.base = context.WithoutCancel(ctx)
	attemptCtx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.session.Attempt = 1
	c.transitionLocked(model.StatusInFlight, "")
	snap := c.session
	c.mu.Unlock()

	c.logger.Info("generation started",
		zap.String("session_id", snap.ID),
		zap.String("kind", req.Kind.String()),
		zap.String("subject_id", req.SubjectID),
	)
	c.notify(snap)
	go c.attempt(attemptCtx, gen, req)
	return nil
}

func (c *Controller) resolveSubject(ctx context.Context, kind model.ArtifactKind) (string, error) {
	if c.resolver == nil {
		return "", ErrNoSubject
	}
	id, err := c.resolver.Resolve(ctx, kind)
	if errors.Is(err, subject.ErrNotFound) {
		return "", ErrNoSubject
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *Controller) attempt(ctx context.Context, gen uint64, req model.GenerationRequest) {
	started := c.clock.Now()
	payload, err := c.fetcher.Generate(ctx, req)
	c.complete(ctx, gen, req.Kind.String(), c.clock.Now().Sub(started), payload, err)
}

func (c *Controller) complete(ctx context.Context, gen uint64, kind string, elapsed time.Duration, payload json.RawMessage, err error) {
	c.mu.Lock()
	if gen != c.gen || c.session.Status != model.StatusInFlight || ctx.Err() != nil {
		c.mu.Unlock()
		c.metrics.recordAttempt(kind, outcomeDiscarded, 0)
		c.logger.Debug("discarding stale generation result", zap.Uint64("generation", gen))
		return
	}
	attempt := c.session.Attempt
	fields := []zap.Field{
		zap.String("session_id", c.session.ID),
		zap.String("kind", kind),
		zap.Int("attempt", attempt),
	}

	result := backend.Outcome(payload, err)
	label := result.Kind.String()
	switch result.Kind {
	case model.OutcomeSuccess:
		c.session.Payload = result.Payload
		c.transitionLocked(model.StatusSucceeded, "")
		c.finishLocked()
	case model.OutcomeTransientFailure:
		if c.maxAttempts > 0 && attempt >= c.maxAttempts {
			c.transitionLocked(model.StatusFailed, fmt.Sprintf("gave up after %d attempts", attempt))
			c.finishLocked()
			break
		}
		c.transitionLocked(model.StatusWaitingToRetry, c.Advisory())
		c.timer = c.clock.AfterFunc(c.retryDelay, func() {
			c.fire(gen)
		})
	default:
		if backend.Classify(err) == backend.ErrorNetwork {
			label = outcomeNetwork
		}
		c.transitionLocked(model.StatusFailed, result.Reason)
		c.finishLocked()
	}
	snap := c.session
	c.mu.Unlock()

	c.metrics.recordAttempt(kind, label, elapsed.Seconds())
	switch snap.Status {
	case model.StatusWaitingToRetry:
		c.logger.Info("generation pending, retry scheduled", append(fields, zap.Duration("delay", c.retryDelay))...)
	case model.StatusFailed:
		c.logger.Warn("generation failed", append(fields, zap.String("error", snap.LastError))...)
	default:
		c.logger.Info("generation succeeded", fields...)
	}
	c.notify(snap)
}

// fire runs on the retry timer.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.session.Status != model.StatusWaitingToRetry {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.session.Attempt++
	c.transitionLocked(model.StatusInFlight, "")
	req := c.session.Request
	snap := c.session
	base := c.base
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Debug("retrying generation", zap.String("session_id", snap.ID), zap.Int("attempt", snap.Attempt))
	c.notify(snap)
	go c.attempt(ctx, gen, req)
}

// Reset abandons the current session: the retry timer is stopped, an
// in-flight request is cancelled and any late result is dropped.
func (c *Controller) Reset() {
	c.mu.Lock()
	changed := c.resetLocked()
	snap := c.session
	c.mu.Unlock()
	if changed {
		c.notify(snap)
	}
}

// Close resets and refuses further sessions.
func (c *Controller) Close() {
	c.Reset()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) teardown(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	changed := c.resetLocked()
	snap := c.session
	c.mu.Unlock()
	if changed {
		c.logger.Debug("generation canceled", zap.String("session_id", snap.ID))
		c.notify(snap)
	}
}

func (c *Controller) resetLocked() bool {
	c.gen++
	c.stopLocked()
	if c.session.Status == model.StatusIdle {
		return false
	}
	if model.IsPending(c.session.Status) {
		c.metrics.recordSession(c.session.Request.Kind.String(), "reset")
	}
	c.transitionLocked(model.StatusIdle, "")
	c.session.Payload = nil
	c.closeDoneLocked()
	return true
}

func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
}

func (c *Controller) finishLocked() {
	c.metrics.recordSession(c.session.Request.Kind.String(), c.session.Status)
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.closeDoneLocked()
}

func (c *Controller) closeDoneLocked() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *Controller) transitionLocked(to, lastError string) {
	if err := model.TransitionSession(&c.session, to, lastError); err != nil {
		// Only reachable through a programming error in this package.
		c.logger.Error("session transition rejected", zap.Error(err))
		return
	}
	c.session.UpdatedAt = c.clock.Now()
}

func (c *Controller) notify(s model.RetrySession) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() model.RetrySession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Done is closed once the current session succeeds, fails or is reset.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Wait blocks until the current session settles or ctx ends.
func (c *Controller) Wait(ctx context.Context) (model.RetrySession, error) {
	select {
	case <-c.Done():
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}
