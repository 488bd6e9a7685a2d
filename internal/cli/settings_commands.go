package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"studypilot/internal/logging"
	"studypilot/internal/settings"
	"studypilot/internal/statestore"
)

func newSettingsCommand(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update client settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings (file, .env and environment)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(env.opts.configPath)
			if err != nil {
				return err
			}
			if env.opts.jsonOut {
				return printJSON(env.io.out, map[string]any{
					"config_path": env.opts.configPath,
					"settings":    s,
				})
			}
			printSettings(env, s)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value> [<key> <value>...]",
		Short: "Update settings in the settings file",
		Long:  "Keys: " + strings.Join(settings.Keys(), ", "),
		Example: `  studypilot settings set api_url http://localhost:8000
  studypilot settings set retry_delay_ms 3000 max_attempts 20`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return errors.New("expected <key> <value> pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := settings.Update(env.opts.configPath, func(s *settings.Settings) error {
				for i := 0; i < len(args); i += 2 {
					if err := settings.Apply(s, args[i], args[i+1]); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if env.opts.jsonOut {
				return printJSON(env.io.out, res)
			}
			fmt.Fprintf(env.io.out, "updated settings in %s\n", res.ConfigPath)
			printSettings(env, res.Settings)
			return nil
		},
	})
	return cmd
}

func printSettings(env *cmdEnv, s settings.Settings) {
	out := env.io.out
	fmt.Fprintf(out, "config: %s\n", env.opts.configPath)
	fmt.Fprintf(out, "api_url: %s\n", s.APIURL)
	fmt.Fprintf(out, "request_timeout_s: %d\n", s.RequestTimeoutS)
	fmt.Fprintf(out, "retry_delay_ms: %d\n", s.RetryDelayMS)
	maxAttempts := strconv.Itoa(s.MaxAttempts)
	if s.MaxAttempts == 0 {
		maxAttempts = "0 (unbounded)"
	}
	fmt.Fprintf(out, "max_attempts: %s\n", maxAttempts)
	fmt.Fprintf(out, "exam_seconds: %d\n", s.ExamSeconds)
	fmt.Fprintf(out, "state_backend: %s\n", s.StateBackend)
	switch s.StateBackend {
	case statestore.BackendFile:
		fmt.Fprintf(out, "state_path: %s\n", s.StatePath)
	case statestore.BackendRedis:
		fmt.Fprintf(out, "redis_addr: %s\n", s.RedisAddr)
	}
	fmt.Fprintf(out, "log_file: %s\n", orNone(s.LogFile))
	fmt.Fprintf(out, "metrics_file: %s\n", orNone(s.MetricsFile))
	fmt.Fprintf(out, "credits_warn_below: %d\n", s.CreditsWarnBelow)
}

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(none)"
	}
	return v
}

func newDoctorCommand(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the backend, state store and writable directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, created, err := settings.Ensure(env.opts.configPath); err != nil {
				return err
			} else if created && !env.opts.jsonOut {
				fmt.Fprintf(env.io.out, "created %s with defaults\n", env.opts.configPath)
			}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				opts := settings.DoctorOptions{
					ConfigPath: env.opts.configPath,
					Settings:   a.settings,
					Health:     a.client.Health,
				}
				if pinger, ok := a.store.(interface{ Ping(context.Context) error }); ok {
					opts.PingState = pinger.Ping
				}
				res := settings.Doctor(ctx, opts)
				if env.opts.jsonOut {
					if err := printJSON(env.io.out, res); err != nil {
						return err
					}
				} else {
					for _, c := range res.Checks {
						status := uiOKStyle.Render("ok")
						if !c.OK {
							status = uiErrorStyle.Render("fail")
						}
						fmt.Fprintf(env.io.out, "%s: %s (%s)\n", c.Name, status, c.Message)
					}
				}
				if !res.OK {
					return errors.New("doctor checks failed")
				}
				if !env.opts.jsonOut {
					fmt.Fprintln(env.io.out, "doctor: all checks passed")
				}
				return nil
			})
		},
	}
}

func newLogsCommand(env *cmdEnv) *cobra.Command {
	var (
		level string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent entries from the log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(env.opts.configPath)
			if err != nil {
				return err
			}
			if s.LogFile == "" {
				return errors.New("logging to a file is disabled (settings set log_file <path>)")
			}
			entries, err := logging.ReadEntries(s.LogFile, level, limit)
			if err != nil {
				return err
			}
			if env.opts.jsonOut {
				return printJSON(env.io.out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(env.io.out, "no log entries")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(env.io.out, "%s %-5s %s", e.Timestamp, e.Level, e.Message)
				for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
					fmt.Fprintf(env.io.out, " %s=%v", k, e.Fields[k])
				}
				fmt.Fprintln(env.io.out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "only entries of this level: debug|info|warn|error")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries, newest first")
	return cmd
}
