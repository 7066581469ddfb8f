package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/triage/internal/config"
	"github.com/ehr/triage/internal/domain/emergency"
	"github.com/ehr/triage/internal/domain/patient"
	"github.com/ehr/triage/internal/domain/symptom"
	"github.com/ehr/triage/internal/domain/triage"
	"github.com/ehr/triage/internal/platform/console"
	"github.com/ehr/triage/internal/platform/logging"
	"github.com/ehr/triage/internal/platform/sandbox"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "triage-desk",
		Short:         "Hospital intake and triage desk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("env-file", ".env", "dotenv file with configuration overrides")
	pf.String("catalog", "", "symptom catalog CSV (overrides SYMPTOM_CATALOG_PATH)")
	pf.String("log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// app holds what every command needs after configuration is resolved.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer
}

func setup(cmd *cobra.Command) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		cfg.CatalogPath = path
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Development: cfg.IsDev(),
		Out:         cmd.ErrOrStderr(),
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAgeDays:  cfg.LogMaxAgeDays,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger.With().Str("cmd", cmd.Name()).Logger(), closer: closer}, nil
}

func (a *app) staff() (frontDesk, nurse, physician patient.Staff) {
	// Validate has already checked these CPFs.
	cpf := func(s string) string {
		c, _ := patient.NormalizeCPF(s)
		return c
	}
	frontDesk = patient.NewStaff(a.cfg.FrontDeskName, cpf(a.cfg.FrontDeskCPF), patient.RoleFrontDesk)
	nurse = patient.NewStaff(a.cfg.NurseName, cpf(a.cfg.NurseCPF), patient.RoleNurse)
	physician = patient.NewStaff(a.cfg.PhysicianName, cpf(a.cfg.PhysicianCPF), patient.RolePhysician)
	return frontDesk, nurse, physician
}

// loadCatalog loads the configured catalog up front. A failure is logged
// and returned; callers decide whether the desk can go on without it.
func (a *app) loadCatalog() (*symptom.Catalog, error) {
	src := symptom.FileSource(a.cfg.CatalogPath)
	catalog := symptom.NewCatalog(src)
	if err := catalog.Load(src); err != nil {
		a.logger.Warn().Err(err).Str("path", a.cfg.CatalogPath).Msg("failed to load symptom catalog")
		return catalog, err
	}
	a.logger.Info().Str("path", a.cfg.CatalogPath).Int("symptoms", catalog.Len()).Msg("symptom catalog loaded")
	return catalog, nil
}

func sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Run the interactive front-desk menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.closer.Close()

			out := cmd.OutOrStdout()
			catalog, err := a.loadCatalog()
			if err != nil {
				fmt.Fprintf(out, "Warning: %v. The desk will classify every symptom as MEDIUM.\n", err)
			}

			frontDesk, nurse, physician := a.staff()
			queue := triage.NewQueue()
			desk := emergency.NewService(catalog, emergency.NewMemoryRepository(), queue,
				sandbox.NewGenerator(a.cfg.DemoSeed), frontDesk, nurse, a.logger)

			err = console.NewSession(desk, cmd.InOrStdin(), out, physician, a.logger).Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the symptom catalog grouped by severity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.closer.Close()

			catalog, err := a.loadCatalog()
			if err != nil {
				return err
			}
			grouped, err := catalog.GroupedBySeverity()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				return console.WriteCatalog(out, grouped)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(console.OrderedRecords(grouped))
			default:
				return fmt.Errorf("unknown format %q (text|json)", format)
			}
		},
	}
	cmd.Flags().StringP("format", "f", "text", "output format (text|json)")
	return cmd
}

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Admit synthetic patients on a simulated clock and serve them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.closer.Close()

			n := a.cfg.DemoPatients
			if cmd.Flags().Changed("patients") {
				n, _ = cmd.Flags().GetInt("patients")
			}
			if n < 0 {
				return fmt.Errorf("--patients must not be negative")
			}
			seed := a.cfg.DemoSeed
			if cmd.Flags().Changed("seed") {
				seed, _ = cmd.Flags().GetInt64("seed")
			}
			consult, _ := cmd.Flags().GetDuration("consult")
			ndjson, _ := cmd.Flags().GetBool("ndjson")

			out := cmd.OutOrStdout()
			catalog, err := a.loadCatalog()
			if err != nil && !ndjson {
				fmt.Fprintf(out, "Warning: %v. Using built-in demo symptoms.\n", err)
			}
			records, _ := catalog.Records()
			symptoms := make([]string, 0, len(records))
			for _, r := range records {
				symptoms = append(symptoms, r.Name)
			}

			clock := sandbox.NewSimClock(time.Now().Truncate(time.Minute))
			gen := sandbox.NewGenerator(seed)
			queue := triage.NewQueue(triage.WithClock(clock.Now))
			frontDesk, nurse, physician := a.staff()
			desk := emergency.NewService(catalog, emergency.NewMemoryRepository(), queue, gen,
				frontDesk, nurse, a.logger, emergency.WithClock(clock.Now))

			ctx := cmd.Context()
			seeder := sandbox.NewSeeder(gen, clock, symptoms, a.logger)
			result, err := seeder.Run(ctx, desk, n)
			if err != nil {
				return err
			}

			if ndjson {
				return seeder.ExportNDJSON(out)
			}

			fmt.Fprintf(out, "Admitted %d patients over %s (%d critical, %d standard).\n\n",
				result.Admitted, result.Span, result.Critical, result.Standard)
			if err := console.WriteBoard(out, desk.Board()); err != nil {
				return err
			}

			fmt.Fprintln(out, "\nService order:")
			for i := 1; ; i++ {
				p, ok, err := desk.CallNext(ctx, physician)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				fmt.Fprintf(out, "%3d. %s  %-8s  %-22s waited %d min\n",
					i, clock.Now().Format("15:04"), p.Severity, p.Name, p.WaitMinutes(clock.Now()))
				if _, err := desk.Finish(ctx, p.CPF, physician); err != nil {
					return err
				}
				clock.Advance(consult)
			}
			return nil
		},
	}
	cmd.Flags().Int("patients", 0, "number of patients to admit (default DEMO_PATIENTS)")
	cmd.Flags().Int64("seed", 0, "random seed, 0 for time-based (default DEMO_SEED)")
	cmd.Flags().Duration("consult", 5*time.Minute, "simulated time spent with each patient")
	cmd.Flags().Bool("ndjson", false, "print the admitted patients as NDJSON instead of the service order")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
