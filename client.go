// Package radiusfailover is a RADIUS PAP authentication client (RFC 2865,
// RFC 2869 Message-Authenticator) that automatically fails over across an
// ordered pool of cooperating servers.
package radiusfailover

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/athena-dhcpd/radiusfailover/internal/failover"
	"github.com/athena-dhcpd/radiusfailover/internal/healthstore"
	"github.com/athena-dhcpd/radiusfailover/internal/healthtable"
	"github.com/athena-dhcpd/radiusfailover/internal/logging"
	"github.com/athena-dhcpd/radiusfailover/internal/radius"
	"github.com/athena-dhcpd/radiusfailover/internal/radiusmetrics"
)

// Client is the public façade (component F): construct with a Config,
// call Authenticate per login attempt, Failover to force a reselection,
// GetActiveHost to inspect state, and Shutdown to release resources.
type Client struct {
	logger logging.Logger

	engine     *radius.Client
	controller *failover.Controller
	store      *healthstore.Store

	secret                []byte
	port                  int
	timeout               time.Duration
	assignmentAttributeID uint8
	vendorID              *uint32
	vendorType            *uint8
	valuePattern          *regexp.Regexp

	cancel context.CancelFunc
}

// New constructs a Client. Construction validates that Secret and the
// health-check credentials are present, builds the host pool, and kicks
// off initial host selection and the background health timer without
// blocking the caller.
func New(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("radiusfailover: secret must not be empty")
	}
	if cfg.HealthCheckUser == "" || cfg.HealthCheckPassword == "" {
		return nil, fmt.Errorf("radiusfailover: health check credentials are required")
	}

	pool := buildPool(cfg)
	if len(pool) == 0 {
		return nil, fmt.Errorf("radiusfailover: no hosts configured")
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout == 0 {
		timeout = radius.DefaultTimeout
	}
	healthTimeout := time.Duration(cfg.HealthCheckTimeoutMs) * time.Millisecond
	if healthTimeout == 0 {
		healthTimeout = time.Duration(DefaultHealthCheckTimeoutMs) * time.Millisecond
	}
	healthInterval := time.Duration(cfg.HealthCheckIntervalMs) * time.Millisecond

	assignmentID := uint8(cfg.AssignmentAttributeID)
	if assignmentID == 0 {
		assignmentID = DefaultAssignmentAttributeID
	}

	// Compile-once at construction, per the §9 design note (the reference
	// implementation compiles per match; this implementation does not).
	var pattern *regexp.Regexp
	if cfg.ValuePattern != "" {
		p, err := regexp.Compile(cfg.ValuePattern)
		if err != nil {
			return nil, fmt.Errorf("radiusfailover: invalid value_pattern: %w", err)
		}
		pattern = p
	}

	var store *healthstore.Store
	if cfg.HealthStorePath != "" {
		s, err := healthstore.Open(cfg.HealthStorePath)
		if err != nil {
			return nil, fmt.Errorf("radiusfailover: opening health store: %w", err)
		}
		store = s
	}

	engine := radius.NewClient(logger)
	controller := failover.New(logger, engine, failover.Config{
		Pool:                pool,
		Secret:              []byte(cfg.Secret),
		Port:                port,
		HealthCheckTimeout:  healthTimeout,
		HealthCheckInterval: healthInterval,
		ProbeCredentials: failover.ProbeCredentials{
			User:     cfg.HealthCheckUser,
			Password: cfg.HealthCheckPassword,
		},
		Store: store,
	})

	ctx, cancel := context.WithCancel(context.Background())
	controller.Start(ctx)

	return &Client{
		logger:                logger,
		engine:                engine,
		controller:            controller,
		store:                 store,
		secret:                []byte(cfg.Secret),
		port:                  port,
		timeout:               timeout,
		assignmentAttributeID: assignmentID,
		vendorID:              cfg.VendorID,
		vendorType:            cfg.VendorType,
		valuePattern:          pattern,
		cancel:                cancel,
	}, nil
}

// buildPool implements §3 "Host pool" / P1: Hosts filtered of empties, or
// [Host] if Hosts is empty.
func buildPool(cfg Config) []string {
	if len(cfg.Hosts) > 0 {
		pool := make([]string, 0, len(cfg.Hosts))
		for _, h := range cfg.Hosts {
			if h != "" {
				pool = append(pool, h)
			}
		}
		return pool
	}
	if cfg.Host == "" {
		return nil
	}
	return []string{cfg.Host}
}

// Authenticate resolves the active host and performs one PAP exchange
// against it (§4.5). A timeout schedules a background failover probe
// without delaying the return of this call's result.
func (c *Client) Authenticate(ctx context.Context, user, password string) (radius.Result, error) {
	host := c.controller.GetActiveHost()

	start := time.Now()
	result, err := c.engine.Authenticate(ctx, host, user, password, radius.Options{
		Secret:                c.secret,
		Port:                  c.port,
		Timeout:               c.timeout,
		AssignmentAttributeID: c.assignmentAttributeID,
		VendorID:              c.vendorID,
		VendorType:            c.vendorType,
		ValuePattern:          c.valuePattern,
	})
	radiusmetrics.AuthDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return result, err
	}

	outcome := "ok"
	if !result.OK {
		outcome = string(result.Error)
	}
	radiusmetrics.AuthAttempts.WithLabelValues(outcome).Inc()

	if result.Error == radius.ErrTimeout {
		go c.controller.OnAuthTimeout(context.Background())
	}
	return result, nil
}

// Failover forces an immediate reselection (§4.4 failover()). Returns ""
// if a sequence is already in progress or no host responds.
func (c *Client) Failover() string {
	return c.controller.Failover(context.Background())
}

// GetActiveHost returns the current active host, or the pool's first
// element as a fallback probe target if none is set (§3).
func (c *Client) GetActiveHost() string {
	return c.controller.GetActiveHost()
}

// HostHealth returns the last known health record for a pool host, or
// false if the host isn't part of this client's pool.
func (c *Client) HostHealth(host string) (healthtable.Record, bool) {
	return c.controller.HealthSnapshot(host)
}

// Shutdown stops the background health timer. In-flight authentications
// and probes are not cancelled; they complete or time out on their own.
func (c *Client) Shutdown() {
	c.controller.Stop()
	c.cancel()
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("failed to close health store", "error", err)
		}
	}
}
