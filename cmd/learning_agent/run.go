package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lastminute/learning-agent/internal/config"
	"github.com/lastminute/learning-agent/internal/engine"
	"github.com/lastminute/learning-agent/internal/imagegen"
	"github.com/lastminute/learning-agent/internal/llm"
	"github.com/lastminute/learning-agent/internal/observability"
	"github.com/lastminute/learning-agent/internal/pipeline"
	"github.com/lastminute/learning-agent/internal/prompts"
	"github.com/lastminute/learning-agent/internal/ratelimit"
	"github.com/lastminute/learning-agent/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run [files...]",
	Short: "Run the full learning pipeline end-to-end",
	Long: `Orchestrates the learning event generation process: storage -> extraction -> cleaning -> chunking -> concept extraction -> normalization -> prioritization -> scenario selection -> story generation -> story visuals.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath string
	runText       string
	runAPIKey     string
	runModel      string
	runStream     bool
	runVerbose    bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runText, "text", "x", "", "Inline study text (skips file extraction when set)")
	runCommand.Flags().BoolVar(&runStream, "stream", false, "Print one trace line per completed stage")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed run information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().StringVar(&runModel, "model", "", "Text-generation model name")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Apply CLI overrides; only override if the flag was explicitly set
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = runModel
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	// Fill remaining values from the environment
	cfg = cfg.MergeWithDefaults(config.Config{
		APIKey: config.ResolveAPIKey(),
		Model:  config.ResolveModel(),
	})

	if len(args) == 0 && runText == "" {
		return fmt.Errorf("provide at least one input file or --text")
	}

	gateway := llm.NewGateway(ctx, cfg.APIKey, cfg.Model)
	defer gateway.Close() //nolint:errcheck

	opts := pipeline.RunOptions{
		Files:         args,
		ExtractedText: runText,
		Gateway:       gateway,
		Images:        buildScheduler(cfg.APIKey),
	}

	printer := observability.NewPrinter(os.Stderr)

	var finalState types.State
	var trace []engine.TraceRecord
	if runStream {
		finalState = pipeline.RunPipelineStream(ctx, opts, func(rec engine.TraceRecord) {
			trace = append(trace, rec)
			changed := "(no changes)"
			if len(rec.ChangedFields) > 0 {
				changed = fmt.Sprintf("%v", rec.ChangedFields)
			}
			_, _ = fmt.Fprintf(os.Stderr, "▶ %s %s\n", rec.Stage, changed)
		})
	} else {
		finalState, trace = pipeline.RunPipelineWithTrace(ctx, opts)
	}

	if cfg.Verbose {
		printer.PrintTrace(trace)
		printer.PrintConcepts(finalState)
		printer.PrintLearningEvent(finalState)
		printer.PrintStoryBeats(finalState.StoryBeats)
		printer.PrintRunSummary(finalState)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(finalState)
}

// buildScheduler wires the image generation stack when credentials exist.
func buildScheduler(apiKey string) *imagegen.Scheduler {
	if apiKey == "" {
		return nil
	}
	runner := imagegen.NewRunner(
		imagegen.NewHTTPClient(apiKey),
		ratelimit.NewInterval(ratelimit.DefaultMinInterval),
	)
	style := prompts.MustGet("pipeline.json", "image-step-style")
	return imagegen.NewScheduler(runner, imagegen.WithPromptWrapper(func(p string) string {
		return prompts.Format(style, map[string]string{"Prompt": p})
	}))
}
