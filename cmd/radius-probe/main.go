// radius-probe is a small CLI that exercises the radiusfailover library
// end to end: load a TOML config, then probe every configured host in
// parallel, run one failover-aware authentication, or report the
// client's per-host health.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	radiusfailover "github.com/athena-dhcpd/radiusfailover"
	"github.com/athena-dhcpd/radiusfailover/internal/logging"
	"github.com/athena-dhcpd/radiusfailover/internal/radius"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "radius-probe",
		Short: "diagnose and exercise a RADIUS failover configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "/etc/radius-probe/config.toml", "path to configuration file")

	root.AddCommand(probeCmd())
	root.AddCommand(authenticateCmd())
	root.AddCommand(statusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (radiusfailover.Config, error) {
	var cfg radiusfailover.Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", configPath, err)
	}
	return cfg, nil
}

// probeCmd fans a single probe authentication out to every configured
// host in parallel, independent of failover ordering, and reports which
// hosts are reachable. This is strictly a diagnostic: the library's own
// failover sequences probe one host at a time (§4.4).
func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "authenticate against every configured host in parallel and report reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := logging.Setup("info", nil)
			engine := radius.NewClient(logger)

			hosts := cfg.Hosts
			if len(hosts) == 0 && cfg.Host != "" {
				hosts = []string{cfg.Host}
			}
			if len(hosts) == 0 {
				return fmt.Errorf("no hosts configured")
			}

			port := cfg.Port
			if port == 0 {
				port = radiusfailover.DefaultPort
			}
			timeout := time.Duration(cfg.HealthCheckTimeoutMs) * time.Millisecond
			if timeout == 0 {
				timeout = radius.DefaultTimeout
			}

			type outcome struct {
				host  string
				alive bool
				err   error
			}
			results := make([]outcome, len(hosts))

			g, ctx := errgroup.WithContext(cmd.Context())
			for i, host := range hosts {
				i, host := i, host
				g.Go(func() error {
					result, err := engine.Authenticate(ctx, host, cfg.HealthCheckUser, cfg.HealthCheckPassword, radius.Options{
						Secret:  []byte(cfg.Secret),
						Port:    port,
						Timeout: timeout,
					})
					if err != nil {
						results[i] = outcome{host: host, err: err}
						return nil // a per-host fault doesn't abort the other probes
					}
					alive := result.OK || result.Error == radius.ErrAccessReject ||
						result.Error == radius.ErrAccessChallenge || result.Error == radius.ErrAuthenticatorMismatch
					results[i] = outcome{host: host, alive: alive}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for _, r := range results {
				switch {
				case r.err != nil:
					fmt.Printf("%s: fault: %v\n", r.host, r.err)
				case r.alive:
					fmt.Printf("%s: alive\n", r.host)
				default:
					fmt.Printf("%s: dead\n", r.host)
				}
			}
			return nil
		},
	}
}

// authenticateCmd runs one real, failover-aware authentication through
// the library façade. The password is read from the terminal without
// echo; reading fails if stdin is not a terminal.
func authenticateCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "authenticate",
		Short: "authenticate a user through the failover-aware client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Fprint(os.Stderr, "Password: ")
			pw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}

			logger := logging.Setup("info", nil)
			client, err := radiusfailover.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("constructing client: %w", err)
			}
			defer client.Shutdown()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			result, err := client.Authenticate(ctx, user, string(pw))
			if err != nil {
				return fmt.Errorf("authenticate: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "username to authenticate")
	return cmd
}

// statusCmd reports the last known health record for every configured
// host, using the failover-aware client's own background probing instead
// of firing a fresh diagnostic round.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "report last known health for every configured host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := logging.Setup("info", nil)
			client, err := radiusfailover.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("constructing client: %w", err)
			}
			defer client.Shutdown()

			// Give the initial fast-failover sequence, which runs in the
			// background, a moment to probe before reporting. It stops at
			// the first responsive host, so later hosts are not probed by it.
			time.Sleep(500 * time.Millisecond)

			hosts := cfg.Hosts
			if len(hosts) == 0 && cfg.Host != "" {
				hosts = []string{cfg.Host}
			}

			fmt.Printf("active host: %s\n", client.GetActiveHost())
			for _, host := range hosts {
				rec, ok := client.HostHealth(host)
				if !ok {
					fmt.Printf("%s: unknown\n", host)
					continue
				}
				fmt.Printf("%s: last_ok=%s last_tried=%s consecutive_failures=%d\n",
					host, rec.LastOkAt.Format(time.RFC3339), rec.LastTriedAt.Format(time.RFC3339), rec.ConsecutiveFailures)
			}
			return nil
		},
	}
}
