// Command gijiroku turns a recorded meeting video into a speaker-labeled
// transcript.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yamadori/gijiroku/internal/config"
	"github.com/yamadori/gijiroku/internal/mcpserver"
	"github.com/yamadori/gijiroku/internal/namematch"
	"github.com/yamadori/gijiroku/internal/observe"
	"github.com/yamadori/gijiroku/internal/pipeline"
	"github.com/yamadori/gijiroku/internal/progress"
	"github.com/yamadori/gijiroku/pkg/provider/asr"
	asropenai "github.com/yamadori/gijiroku/pkg/provider/asr/openai"
	"github.com/yamadori/gijiroku/pkg/provider/asr/whisper"
	"github.com/yamadori/gijiroku/pkg/provider/diarize"
	"github.com/yamadori/gijiroku/pkg/provider/diarize/pyannote"
	"github.com/yamadori/gijiroku/pkg/provider/ocr"
	"github.com/yamadori/gijiroku/pkg/provider/ocr/tesseract"
)

const version = "0.3.0"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		return 1
	}
	return 0
}

// rootFlags holds the transcription flags shared between the root command
// and the MCP server.
type rootFlags struct {
	configPath    string
	outputPath    string
	model         string
	fast          bool
	speakers      int
	noDiarization bool
	watch         bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "gijiroku [video]",
		Short: "Transcribe a meeting video into a speaker-labeled transcript",
		Long: `gijiroku extracts the audio track of a meeting recording, transcribes it,
identifies who spoke when, and writes a plain-text transcript with one block
per speaker turn. Speaker labels start out as opaque diarization ids
(SPEAKER_00, ...) and can be renamed afterwards via the MCP server.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)

			if flags.watch {
				return runWatch(cmd.Context(), cfg, cmd.OutOrStdout())
			}
			if len(args) == 0 {
				return errors.New("a video path is required (or pass --watch)")
			}
			return runTranscribe(cmd.Context(), cfg, flags, args[0])
		},
	}

	cmd.Flags().StringVarP(&flags.outputPath, "output", "o", "", "transcript output path (default: <video stem>_transcript.txt)")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "whisper model preset: tiny, base, small, medium, large, large-v3, turbo")
	cmd.Flags().BoolVar(&flags.fast, "fast", false, "trade accuracy for speed in the transcription backend")
	cmd.Flags().IntVar(&flags.speakers, "speakers", 0, "exact number of speakers, if known")
	cmd.Flags().BoolVar(&flags.noDiarization, "no-diarization", false, "skip speaker diarization; label everything with one placeholder speaker")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "watch the progress of a pipeline running in another process")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to the YAML configuration file")

	cmd.AddCommand(newWatchCmd(flags), newServeCmd(flags))
	return cmd
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the progress of a pipeline running in another process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)
			return runWatch(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the transcription pipeline as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)
			return runServe(cmd.Context(), cfg)
		},
	}
}

// loadConfig loads the config file at path, or the defaults when path is
// empty or the default config.yaml does not exist.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat("config.yaml"); err != nil {
			return config.Default(), nil
		}
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(level config.LogLevel) {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func runTranscribe(ctx context.Context, cfg *config.Config, flags *rootFlags, videoPath string) error {
	transcriber, closeASR, err := buildTranscriber(cfg.Providers.ASR)
	if err != nil {
		return err
	}
	defer closeASR()

	opts := pipeline.Options{
		OutputPath:    flags.outputPath,
		Language:      cfg.Providers.ASR.Language,
		Fast:          flags.fast,
		SpeakerHint:   flags.speakers,
		NoDiarization: flags.noDiarization,
		ProgressPath:  cfg.Progress.Path,
	}

	model := flags.model
	if model == "" {
		model = cfg.Providers.ASR.Model
	}
	if model != "" {
		preset, err := asr.ParsePreset(model)
		if err != nil {
			return err
		}
		opts.Preset = preset
	}

	runner := pipeline.New(transcriber, buildDiarizer(cfg.Providers.Diarization))

	slog.Info("transcription starting", "video", videoPath, "asr", cfg.Providers.ASR.Name, "model", model)
	res, err := runner.Run(ctx, videoPath, opts)
	if err != nil {
		return err
	}

	slog.Info("transcription complete",
		"output", res.OutputPath,
		"speakers", len(res.Speakers),
		"turns", res.SegmentCount,
	)
	fmt.Println(res.OutputPath)
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, out io.Writer) error {
	path := cfg.Progress.Path
	if path == "" {
		path = progress.DefaultPath()
	}
	return progress.Watch(ctx, path, out, progress.WatchOptions{
		Interval:   cfg.Progress.PollInterval(),
		StaleAfter: cfg.Progress.StaleAfter(),
	})
}

func runServe(ctx context.Context, cfg *config.Config) error {
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "gijiroku",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("metrics shutdown error", "error", err)
		}
	}()

	transcriber, closeASR, err := buildTranscriber(cfg.Providers.ASR)
	if err != nil {
		return err
	}
	defer closeASR()

	runner := pipeline.New(transcriber, buildDiarizer(cfg.Providers.Diarization))

	var collector *namematch.Collector
	if provider := buildOCR(cfg.Providers.OCR); provider != nil {
		if !provider.IsAvailable(ctx) {
			slog.Warn("ocr backend unavailable; speaker renaming may fail", "provider", cfg.Providers.OCR.Name)
		}
		collector = namematch.New(provider)
	}

	slog.Info("mcp server starting", "transport", "stdio", "version", version)
	err = mcpserver.New(runner, collector, version).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildTranscriber constructs the configured transcription backend. The
// returned closer releases backend resources (the native whisper model).
func buildTranscriber(entry config.ProviderEntry) (asr.Provider, func(), error) {
	switch entry.Name {
	case "whisper-native":
		var opts []whisper.NativeOption
		if entry.Language != "" {
			opts = append(opts, whisper.WithNativeLanguage(entry.Language))
		}
		p, err := whisper.NewNative(entry.ModelPath, opts...)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {
			if err := p.Close(); err != nil {
				slog.Warn("whisper model close error", "error", err)
			}
		}, nil

	case "", "whisper-server":
		var opts []whisper.ServerOption
		if entry.Language != "" {
			opts = append(opts, whisper.WithServerLanguage(entry.Language))
		}
		return whisper.NewServer(entry.BaseURL, opts...), func() {}, nil

	case "openai":
		var opts []asropenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, asropenai.WithBaseURL(entry.BaseURL))
		}
		p, err := asropenai.New(entry.APIKey, opts...)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown asr provider %q", entry.Name)
	}
}

// buildDiarizer constructs the configured diarization backend, or nil when
// diarization is disabled.
func buildDiarizer(entry config.ProviderEntry) diarize.Provider {
	switch entry.Name {
	case "none":
		return nil
	default:
		return pyannote.New(entry.BaseURL)
	}
}

// buildOCR constructs the configured OCR backend, or nil when OCR is
// disabled.
func buildOCR(entry config.ProviderEntry) ocr.Provider {
	switch entry.Name {
	case "none":
		return nil
	default:
		var opts []tesseract.Option
		if entry.Language != "" {
			opts = append(opts, tesseract.WithLanguages(entry.Language))
		}
		return tesseract.New(opts...)
	}
}
