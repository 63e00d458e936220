// ============================================================================
// jobtypes CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Inspect job types and check job payloads against a backend fixture
//
// Command Structure:
//   jobtypes                       # Root command
//   ├── parse <expr>...           # Print the canonical form of type expressions
//   ├── schema <type>             # Print the JSON schema of a type
//   ├── check <type> [json]       # Decode and re-encode a value
//   │   └── --file, -f            # Read a binary value from a file instead
//   ├── list <type>               # Enumerate the values of a finite type
//   ├── subtype <a> <b>           # Report whether a is a subtype of b
//   ├── job                       # Check job payloads against their signatures
//   │   └── --file, -f            # YAML file with signatures and jobs
//   ├── status                    # Show configuration and fixture contents
//   ├── --config, -c              # Config file (default: configs/jobtypes.yaml)
//   ├── --log-level               # Overrides log.level from the config
//   └── --metrics                 # Dump collected metrics to stderr on exit
//
// Configuration:
//   fixture: fixtures/platform.yaml   # relative to the config file
//   log:
//     level: info
//   metrics:
//     enabled: false
//
// Examples:
//   ./jobtypes parse "Array<Integer, 3>"
//   ./jobtypes schema "Name<Domain>"
//   ./jobtypes check "PK<Domain>" 1
//   ./jobtypes job -f configs/jobs.yaml --metrics
//
// ============================================================================

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/jobtypes/internal/fixture"
	"github.com/ChuLiYu/jobtypes/internal/metrics"
	"github.com/ChuLiYu/jobtypes/pkg/jobspec"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
	"github.com/ChuLiYu/jobtypes/pkg/jobtype/catalog"
)

// Config represents the CLI configuration file
type Config struct {
	// Fixture is the backend fixture file; relative paths are resolved
	// against the directory of the config file.
	Fixture string `yaml:"fixture"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

var (
	configFile  string
	logLevel    string
	dumpMetrics bool
)

// session is everything a command needs, built once per invocation.
type session struct {
	cfg       *Config
	store     *fixture.Store
	reg       *jobtype.Registry
	collector *metrics.Collector
	gatherer  prometheus.Gatherer
}

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jobtypes",
		Short: "jobtypes: inspect job types and check job payloads",
		Long: `jobtypes works with the typed inputs and outputs of platform jobs:
- parse and format type expressions such as Array<Integer, 3>
- print JSON schemas
- decode values, including PK<...> and Name<...> lookups against a fixture
- check job payloads against their signatures`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/jobtypes.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&dumpMetrics, "metrics", false, "dump collected metrics to stderr on exit")

	rootCmd.AddCommand(buildParseCommand())
	rootCmd.AddCommand(buildSchemaCommand())
	rootCmd.AddCommand(buildCheckCommand())
	rootCmd.AddCommand(buildListCommand())
	rootCmd.AddCommand(buildSubtypeCommand())
	rootCmd.AddCommand(buildJobCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

// withSession runs fn against a fresh session and dumps metrics afterwards
// when requested.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session, out io.Writer) error) error {
	s, err := newSession(configFile)
	if err != nil {
		return err
	}
	runErr := fn(cmd.Context(), s, cmd.OutOrStdout())
	if dumpMetrics || s.cfg.Metrics.Enabled {
		if err := writeMetrics(cmd.ErrOrStderr(), s.gatherer); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func newSession(path string) (*session, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := setupLogging(cfg, os.Stderr); err != nil {
		return nil, err
	}

	store, err := fixture.Load(fixturePath(path, cfg.Fixture))
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture: %w", err)
	}

	promReg := prometheus.NewRegistry()
	collector := metrics.NewCollectorFor(promReg)
	backend := metrics.InstrumentBackend(store, collector)

	reg, err := catalog.NewRegistry(backend, jobtype.WithObserver(collector))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise registry: %w", err)
	}
	collector.SetRegisteredClasses(len(catalog.Classes()))

	return &session{cfg: cfg, store: store, reg: reg, collector: collector, gatherer: promReg}, nil
}

func setupLogging(cfg *Config, w io.Writer) error {
	text := cfg.Log.Level
	if logLevel != "" {
		text = logLevel
	}
	var level slog.Level
	if text != "" {
		if err := level.UnmarshalText([]byte(text)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", text, err)
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func fixturePath(configPath, fixtureFile string) string {
	if fixtureFile == "" || filepath.IsAbs(fixtureFile) {
		return fixtureFile
	}
	return filepath.Join(filepath.Dir(configPath), fixtureFile)
}

// ============================================================================
// Type commands
// ============================================================================

func buildParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <expr>...",
		Short: "Print the canonical form of type expressions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(_ context.Context, s *session, out io.Writer) error {
				for _, expr := range args {
					if err := describeExpr(s.reg, expr, out); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func describeExpr(reg *jobtype.Registry, expr string, out io.Writer) error {
	a, err := reg.Parse(expr)
	if err != nil {
		return err
	}
	canonical, err := reg.Format(a)
	if err != nil {
		return err
	}
	t, ok := a.(*jobtype.Type)
	if !ok {
		fmt.Fprintf(out, "%s\tliteral\n", canonical)
		return nil
	}

	var traits []string
	if t.Abstract() {
		traits = append(traits, "abstract")
	}
	if jobtype.IsJSON(t) {
		traits = append(traits, "json")
	}
	if jobtype.IsFinite(t) {
		traits = append(traits, "finite")
	}
	if jobtype.IsServerResident(t) {
		traits = append(traits, "server-resident")
	}
	if len(traits) == 0 {
		traits = append(traits, "binary")
	}
	fmt.Fprintf(out, "%s\t%s\n", canonical, strings.Join(traits, ","))
	return nil
}

func buildSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <type>",
		Short: "Print the JSON schema of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				t, err := s.reg.ParseType(args[0])
				if err != nil {
					return err
				}
				schema, err := s.reg.Schema(ctx, t)
				if err != nil {
					return err
				}
				data, err := schema.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			})
		},
	}
}

func buildCheckCommand() *cobra.Command {
	var binaryFile string

	cmd := &cobra.Command{
		Use:   "check <type> [json]",
		Short: "Decode a value of a type and print it re-encoded",
		Long: `Decode a JSON value (or, with --file, a binary value) as the given type,
then encode it again and print the result.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				t, err := s.reg.ParseType(args[0])
				if err != nil {
					return err
				}
				if binaryFile != "" {
					return checkBinary(ctx, s.reg, t, binaryFile, out)
				}
				if len(args) != 2 {
					return fmt.Errorf("a JSON value is required unless --file is given")
				}
				return checkJSON(ctx, s.reg, t, args[1], out)
			})
		},
	}

	cmd.Flags().StringVarP(&binaryFile, "file", "f", "", "file holding a binary value")
	return cmd
}

func checkJSON(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, text string, out io.Writer) error {
	raw, err := jobtype.DecodeJSON([]byte(text))
	if err != nil {
		return err
	}
	value, err := reg.ParseJSON(ctx, t, raw)
	if err != nil {
		return err
	}
	formatted, err := reg.FormatJSON(ctx, t, value)
	if err != nil {
		return err
	}
	data, err := json.Marshal(formatted)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func checkBinary(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read value file: %w", err)
	}
	value, err := reg.ParseBinary(ctx, t, data)
	if err != nil {
		return err
	}
	encoded, err := reg.FormatBinary(ctx, t, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d bytes decoded, %d bytes re-encoded\n", len(data), len(encoded))
	return nil
}

func buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <type>",
		Short: "Enumerate the values of a finite type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				t, err := s.reg.ParseType(args[0])
				if err != nil {
					return err
				}
				values, err := s.reg.ListAllValues(ctx, t)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				for _, v := range values {
					if err := enc.Encode(v); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func buildSubtypeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "subtype <a> <b>",
		Short: "Report whether type a is a subtype of type b",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(_ context.Context, s *session, out io.Writer) error {
				a, err := s.reg.ParseType(args[0])
				if err != nil {
					return err
				}
				b, err := s.reg.ParseType(args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, a.IsSubtypeOf(b))
				return nil
			})
		},
	}
}

// ============================================================================
// Job command
// ============================================================================

func buildJobCommand() *cobra.Command {
	var jobFile string

	cmd := &cobra.Command{
		Use:   "job",
		Short: "Check job payloads against their signatures",
		Long:  "Read signatures and jobs from a YAML file and decode every job's inputs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobFile == "" {
				return fmt.Errorf("job file is required (use --file or -f)")
			}
			return withSession(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				return checkJobs(ctx, s.reg, jobFile, out)
			})
		},
	}

	cmd.Flags().StringVarP(&jobFile, "file", "f", "", "YAML file containing signatures and jobs")
	cmd.MarkFlagRequired("file")

	return cmd
}

func checkJobs(ctx context.Context, reg *jobtype.Registry, path string, out io.Writer) error {
	f, err := jobspec.LoadFile(path)
	if err != nil {
		return err
	}

	failed := 0
	for _, job := range f.Jobs {
		inputs, err := f.Check(ctx, reg, job)
		if err != nil {
			failed++
			slog.Warn("job rejected", "job", job.ID, "error", err)
			fmt.Fprintf(out, "%s\tFAIL\t%v\n", job.ID, err)
			continue
		}
		fmt.Fprintf(out, "%s\tOK\t%d inputs\n", job.ID, len(inputs))
	}

	if failed > 0 {
		return fmt.Errorf("%d/%d jobs failed", failed, len(f.Jobs))
	}
	return nil
}

// ============================================================================
// Status command
// ============================================================================

func buildStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, registry and fixture status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(_ context.Context, s *session, out io.Writer) error {
				return showStatus(s, out)
			})
		},
	}
}

func showStatus(s *session, out io.Writer) error {
	names, err := s.reg.Names()
	if err != nil {
		return err
	}
	slices.Sort(names)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  config file:  %s\n", configFile)
	fmt.Fprintf(out, "  fixture:      %s\n", s.cfg.Fixture)
	fmt.Fprintf(out, "  metrics:      %t\n", s.cfg.Metrics.Enabled)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Registry: %d classes\n", len(names))
	fmt.Fprintf(out, "  %s\n", strings.Join(names, ", "))
	fmt.Fprintln(out)

	tables := s.store.Tables()
	fmt.Fprintf(out, "Fixture: %d tables\n", len(tables))
	for _, table := range slices.Sorted(maps.Keys(tables)) {
		fmt.Fprintf(out, "  %-20s %d rows\n", table, tables[table])
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

// writeMetrics prints every gathered sample as "name{labels} value".
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), formatLabels(m.GetLabel()), formatValue(mf.GetType(), m))
		}
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatValue(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprint(m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprint(m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}
