package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/vibecut/internal/analysis"
	"github.com/kikiluvv/vibecut/internal/config"
	"github.com/kikiluvv/vibecut/internal/jobstatus"
	"github.com/kikiluvv/vibecut/internal/logging"
	"github.com/kikiluvv/vibecut/internal/pipeline"
	"github.com/kikiluvv/vibecut/internal/signature"
	"github.com/kikiluvv/vibecut/internal/watch"
	"github.com/kikiluvv/vibecut/pkg/util"
)

var (
	cfgFile  string
	verbose  bool
	jsonLogs bool
	noRender bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vibecut",
	Short: "vibecut - retention decision engine for short-form edits",
	Long:  "Scores hooks, plans pacing and judges renders against retention floors, retrying with targeted fixes until an edit ships.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(logging.Options{Verbose: verbose, JSON: jsonLogs})

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./vibecut.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log JSON lines instead of console output")

	for _, cmd := range []*cobra.Command{analyzeCmd, batchCmd, watchCmd} {
		cmd.Flags().BoolVar(&noRender, "no-render", false, "plan and judge edits without encoding")
	}
	batchCmd.Flags().Int("concurrency", 0, "jobs analyzed at once (default: config concurrency)")
	watchCmd.Flags().Duration("settle", watch.DefaultSettle, "how long a job file must be unchanged before it is picked up")

	signatureCmd.Flags().String("strategy", "", "strategy profile")
	signatureCmd.Flags().String("platform", "", "target platform")
	signatureCmd.Flags().String("mode", "", "editor mode")
	signatureCmd.Flags().Int("max-cuts", 0, "maximum cuts")
	signatureCmd.Flags().String("aggression", "", "long-form aggression")
	signatureCmd.Flags().Float64("clarity", 0, "long-form clarity vs speed")
	signatureCmd.Flags().Bool("tangent-killer", false, "drop tangents")
	signatureCmd.Flags().String("duration", "0", "source duration (seconds, MM:SS or HH:MM:SS.mmm)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(signatureCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	statusCmd.AddCommand(statusCheckCmd)
}

func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	cfg := config.FromContext(cmd.Context())
	var opts []pipeline.Option
	if noRender {
		opts = append(opts, pipeline.WithoutRender())
	}
	return pipeline.New(log.Logger, cfg, opts...)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [job file]",
	Short: "Analyze one job and persist its record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := newPipeline(cmd)
		if err != nil {
			return err
		}

		job, err := pipeline.LoadJob(args[0])
		if err != nil {
			return err
		}

		res, err := pipe.Analyze(cmd.Context(), job)
		if err != nil {
			return err
		}

		return printJSON(res)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [job files or directories...]",
	Short: "Analyze many jobs concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := newPipeline(cmd)
		if err != nil {
			return err
		}

		paths, err := jobFiles(args)
		if err != nil {
			return err
		}

		cliLog := logging.WithComponent("cli")
		jobs := make([]*pipeline.Job, 0, len(paths))
		for _, path := range paths {
			job, err := pipeline.LoadJob(path)
			if err != nil {
				cliLog.Error().Err(err).Str("file", path).Msg("skipping job")
				continue
			}
			jobs = append(jobs, job)
		}

		limit, _ := cmd.Flags().GetInt("concurrency")
		results := pipe.AnalyzeAll(cmd.Context(), jobs, limit)

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				continue
			}
			cliLog.Info().
				Str("job_id", r.Result.JobID).
				Str("status", string(r.Result.Status)).
				Str("outcome", r.Result.Retry.Outcome.String()).
				Msg("job done")
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d jobs failed", failed, len(results))
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [inbox dir]",
	Short: "Analyze job files as they land in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := newPipeline(cmd)
		if err != nil {
			return err
		}

		settle, _ := cmd.Flags().GetDuration("settle")
		w, err := watch.New(log.Logger, args[0], settle, func(ctx context.Context, path string) error {
			job, err := pipeline.LoadJob(path)
			if err != nil {
				return err
			}
			_, err = pipe.Analyze(ctx, job)
			return err
		})
		if err != nil {
			return err
		}
		return w.Run(cmd.Context())
	},
}

var showCmd = &cobra.Command{
	Use:   "show [job id]",
	Short: "Print the stored record of a job",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		store, err := analysis.NewStore(log.Logger, cfg.StoreDir)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			ids, err := store.List()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		}

		rec, err := store.Load(args[0])
		if err != nil {
			return err
		}
		if len(rec) == 0 {
			return fmt.Errorf("no record for job %s", args[0])
		}
		return printJSON(rec)
	},
}

var signatureCmd = &cobra.Command{
	Use:   "signature",
	Short: "Print the render signature of a render config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var c signature.Config
		c.StrategyProfile, _ = f.GetString("strategy")
		c.TargetPlatform, _ = f.GetString("platform")
		c.EditorMode, _ = f.GetString("mode")
		c.MaxCuts, _ = f.GetInt("max-cuts")
		c.LongFormAggression, _ = f.GetString("aggression")
		c.LongFormClarityVsSpeed, _ = f.GetFloat64("clarity")
		c.TangentKiller, _ = f.GetBool("tangent-killer")

		d, _ := f.GetString("duration")
		seconds, err := util.ParseTimestamp(d)
		if err != nil {
			return err
		}
		c.DurationSeconds = seconds

		if verbose {
			fmt.Println(signature.Canonical(c))
		}
		fmt.Println(signature.Build(c))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		fmt.Println("# config_version:", analysis.ConfigVersion(cfg.Engine))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration (.yaml or .toml)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if util.FileExists(args[0]) {
			return fmt.Errorf("%s already exists", args[0])
		}
		if err := config.DefaultConfig().Save(args[0]); err != nil {
			return err
		}
		cliLog := logging.WithComponent("cli")
		cliLog.Info().Str("path", args[0]).Msg("config written")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Job status commands",
}

var statusCheckCmd = &cobra.Command{
	Use:   "check [from] [to]",
	Short: "Check whether a job status transition is allowed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		from, err := jobstatus.Parse(args[0])
		if err != nil {
			return err
		}
		to, err := jobstatus.Parse(args[1])
		if err != nil {
			return err
		}

		m := jobstatus.NewMachine(cfg.Engine.StrictStatusTransitions)
		if _, err := m.Transition(from, to); err != nil {
			return err
		}
		fmt.Printf("%s -> %s allowed\n", from, to)
		return nil
	},
}

// jobFiles expands directories into the job files they contain.
func jobFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if util.FileExists(m) && util.IsJobFile(m) {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
