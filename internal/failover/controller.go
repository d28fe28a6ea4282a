// Package failover implements the per-client failover state machine
// (§4.4): it owns the active host, runs probes on demand and on a
// background schedule, and reacts to live-traffic timeouts.
package failover

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/athena-dhcpd/radiusfailover/internal/healthstore"
	"github.com/athena-dhcpd/radiusfailover/internal/healthtable"
	"github.com/athena-dhcpd/radiusfailover/internal/logging"
	"github.com/athena-dhcpd/radiusfailover/internal/radius"
	"github.com/athena-dhcpd/radiusfailover/internal/radiusmetrics"
)

// MinHealthCheckInterval is the floor applied to a configured background
// cycle interval (§4.4 "floored at 5000" ms).
const MinHealthCheckInterval = 5 * time.Second

// DefaultHealthCheckInterval is used when the configured interval is zero.
const DefaultHealthCheckInterval = 30 * time.Minute

// ProbeCredentials are the dedicated, non-real-user credentials a probe
// authenticates with (§4.3).
type ProbeCredentials struct {
	User     string
	Password string
}

// Controller is the failover state machine (component E).
type Controller struct {
	logger logging.Logger
	engine *radius.Client
	store  *healthstore.Store // nil disables persistence

	pool   []string
	secret []byte
	port   int

	healthCheckTimeout  time.Duration
	healthCheckInterval time.Duration
	probeCreds          ProbeCredentials

	table *healthtable.Table

	mu     sync.RWMutex
	active string // "" means "none" (§3 "Active host")

	// inProgress is the cooperative, non-reentrant guard from §5: it
	// rejects overlapping fast-failover / failover() / background-cycle
	// sequences without blocking the caller that finds it already held.
	inProgress atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Config bundles the constructor parameters.
type Config struct {
	Pool                []string
	Secret              []byte
	Port                int
	HealthCheckTimeout  time.Duration
	HealthCheckInterval time.Duration
	ProbeCredentials    ProbeCredentials
	Store               *healthstore.Store
}

// New creates a failover controller over the given pool. It does not start
// probing; call Start for that.
func New(logger logging.Logger, engine *radius.Client, cfg Config) *Controller {
	interval := cfg.HealthCheckInterval
	if interval == 0 {
		interval = DefaultHealthCheckInterval
	}
	if interval < MinHealthCheckInterval {
		interval = MinHealthCheckInterval
	}
	timeout := cfg.HealthCheckTimeout
	if timeout == 0 {
		timeout = radius.DefaultTimeout
	}

	c := &Controller{
		logger:              logger,
		engine:              engine,
		store:               cfg.Store,
		pool:                cfg.Pool,
		secret:              cfg.Secret,
		port:                cfg.Port,
		healthCheckTimeout:  timeout,
		healthCheckInterval: interval,
		probeCreds:          cfg.ProbeCredentials,
		table:               healthtable.New(cfg.Pool),
		stopCh:              make(chan struct{}),
	}
	radiusmetrics.ActiveHostIndex.Set(-1)

	if c.store != nil {
		if err := c.store.LoadInto(c.table); err != nil {
			c.logger.Warn("failed to load persisted host health", "error", err)
		}
	}
	return c
}

// Start kicks off the initial selection in the background and starts the
// background health cycle timer. Does not block the caller (§4.4 "Initial
// selection... do not block the caller").
func (c *Controller) Start(ctx context.Context) {
	go c.fastFailoverSequence(ctx)
	go c.backgroundLoop(ctx)
}

// Stop cancels the background timer. In-flight sockets and probes are not
// actively cancelled (§4.5 shutdown semantics).
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// GetActiveHost returns the active host, or the pool's first element as a
// fallback probe target if there is no active host (§3). The fallback is
// never itself promoted to active.
func (c *Controller) GetActiveHost() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active != "" {
		return c.active
	}
	if len(c.pool) == 0 {
		return ""
	}
	return c.pool[0]
}

func (c *Controller) setActive(host string, trigger string) {
	c.mu.Lock()
	if c.active == host {
		c.mu.Unlock()
		return // promotion is idempotent
	}
	c.active = host
	c.mu.Unlock()

	idx := -1
	for i, h := range c.pool {
		if h == host {
			idx = i
			break
		}
	}
	radiusmetrics.ActiveHostIndex.Set(float64(idx))
	if host != "" {
		radiusmetrics.FailoversTotal.WithLabelValues(trigger).Inc()
		c.logger.Info("active host changed", "host", host, "trigger", trigger)
	}
}

// Failover is the public failover() operation (§4.4). If a sequence is
// already in progress it returns "" immediately without blocking (P5).
func (c *Controller) Failover(ctx context.Context) string {
	if !c.inProgress.CompareAndSwap(false, true) {
		return ""
	}
	defer c.inProgress.Store(false)
	return c.failoverLocked(ctx, "explicit")
}

// failoverLocked must be called with inProgress already held.
func (c *Controller) failoverLocked(ctx context.Context, trigger string) string {
	c.mu.RLock()
	current := c.active
	c.mu.RUnlock()

	order := rotateAfter(c.pool, current)
	for _, host := range order {
		if host == current {
			continue
		}
		if c.probeHost(ctx, host) {
			c.setActive(host, trigger)
			return host
		}
	}
	c.setActive("", trigger)
	c.logger.Warn("failover found no responsive host")
	return ""
}

// fastFailoverSequence is the initial-selection / reselect-from-scratch
// sequence (§4.4): iterate the pool in priority order, promote the first
// responsive host.
func (c *Controller) fastFailoverSequence(ctx context.Context) {
	if !c.inProgress.CompareAndSwap(false, true) {
		return
	}
	defer c.inProgress.Store(false)

	for _, host := range c.pool {
		if c.probeHost(ctx, host) {
			c.setActive(host, "initial")
			return
		}
	}
	c.logger.Warn("fast failover sequence: no host responded")
}

// OnAuthTimeout handles a live-traffic timeout (§4.4 onAuthTimeout):
// probe the active host, and fail over if it's dead. With no active host,
// fall back to the background-cycle path.
func (c *Controller) OnAuthTimeout(ctx context.Context) {
	c.mu.RLock()
	current := c.active
	c.mu.RUnlock()

	if current == "" {
		c.runBackgroundCycle(ctx)
		return
	}

	if c.probeHost(ctx, current) {
		return // still alive, a one-off timeout doesn't trigger failover
	}

	if !c.inProgress.CompareAndSwap(false, true) {
		return
	}
	defer c.inProgress.Store(false)
	c.failoverLocked(ctx, "auth_timeout")
}

// backgroundLoop runs the health cycle on a timer (§4.4). Reentrancy is
// avoided by dropping a tick if the previous cycle is still running.
func (c *Controller) backgroundLoop(ctx context.Context) {
	ticker := time.NewTicker(c.healthCheckInterval)
	defer ticker.Stop()

	var cycleRunning atomic.Bool
	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !cycleRunning.CompareAndSwap(false, true) {
				c.logger.Debug("background health cycle tick dropped: previous cycle still running")
				continue
			}
			go func() {
				defer cycleRunning.Store(false)
				c.runBackgroundCycle(ctx)
			}()
		}
	}
}

// runBackgroundCycle implements the §4.4 background health cycle body.
func (c *Controller) runBackgroundCycle(ctx context.Context) {
	c.mu.RLock()
	current := c.active
	c.mu.RUnlock()

	if current != "" {
		if !c.probeHost(ctx, current) {
			c.Failover(ctx)
		}
		return
	}

	if !c.inProgress.CompareAndSwap(false, true) {
		return
	}
	defer c.inProgress.Store(false)
	for _, host := range c.pool {
		if c.probeHost(ctx, host) {
			c.setActive(host, "background")
			return
		}
	}
}

// probeHost runs a dedicated-credential authentication against host and
// updates the health table per §4.3. It returns true iff the host is alive.
func (c *Controller) probeHost(ctx context.Context, host string) bool {
	now := time.Now()
	c.table.MarkTried(host, now)

	result, err := c.engine.Authenticate(ctx, host, c.probeCreds.User, c.probeCreds.Password, radius.Options{
		Secret:  c.secret,
		Port:    c.port,
		Timeout: c.healthCheckTimeout,
	})

	alive := false
	if err != nil {
		c.logger.Warn("probe transport error", "host", host, "error", err)
	} else {
		switch result.Error {
		case "", radius.ErrAccessReject, radius.ErrAccessChallenge:
			alive = true
		case radius.ErrAuthenticatorMismatch:
			// A mismatch still proves a real server answered (§4.3, §9
			// open question): treated as alive here rather than dead.
			alive = true
		default: // timeout, malformed_response, unknown_code
			alive = false
		}
	}

	if alive {
		c.table.MarkAlive(host, now)
		radiusmetrics.ProbesTotal.WithLabelValues(host, "alive").Inc()
	} else {
		c.table.MarkDead(host)
		radiusmetrics.ProbesTotal.WithLabelValues(host, "dead").Inc()
	}

	if c.store != nil {
		if rec, ok := c.table.Get(host); ok {
			if err := c.store.Save(host, rec); err != nil {
				c.logger.Warn("failed to persist host health", "host", host, "error", err)
			}
		}
	}
	return alive
}

// HealthSnapshot returns the current health record for a host.
func (c *Controller) HealthSnapshot(host string) (healthtable.Record, bool) {
	return c.table.Get(host)
}

// rotateAfter returns the pool reordered to start just after `after`,
// wrapping around (§4.4 "rotate the pool so iteration starts at the host
// after the current active"). If after is "" or not found, the pool is
// returned unrotated.
func rotateAfter(pool []string, after string) []string {
	idx := -1
	for i, h := range pool {
		if h == after {
			idx = i
			break
		}
	}
	if idx < 0 {
		out := make([]string, len(pool))
		copy(out, pool)
		return out
	}
	out := make([]string, 0, len(pool))
	out = append(out, pool[idx+1:]...)
	out = append(out, pool[:idx+1]...)
	return out
}
