package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobarin/readaloud/internal/config"
	"github.com/bobarin/readaloud/internal/document"
	"github.com/bobarin/readaloud/internal/pipeline"
	"github.com/bobarin/readaloud/internal/tts"
	"github.com/bobarin/readaloud/internal/voices"
)

var (
	flagOutput     string
	flagVoice      string
	flagLang       string
	flagSpeed      float64
	flagEngine     string
	flagDevice     string
	flagChunkChars int
	flagPauseMs    int
	flagParallel   int
	flagKeepTemp   bool
	flagMarkdown   bool
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "readaloud [file]",
	Short: "Read documents aloud with neural text-to-speech",
	Long: `readaloud converts text and Markdown documents into speech.

The document is cleaned of markup, split into sentence-aligned chunks and
synthesized chunk by chunk; the audio is joined into a single WAV file with
a short pause at every chunk boundary.

Reads from stdin when no file is given or the file is "-".`,
	Example: `  readaloud README.md
  readaloud --voice bf_emma -o article.wav article.txt
  cat notes.md | readaloud --markdown -o notes.wav`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runSynthesize,
}

func init() {
	// synthesis flags are persistent so serve accepts them too
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagVoice, "voice", "v", "", "voice to speak with (see 'readaloud voices')")
	pf.StringVarP(&flagLang, "lang", "l", "", "language code; picks its default voice unless --voice is set")
	pf.Float64VarP(&flagSpeed, "speed", "s", 1.0, "speech speed multiplier")
	pf.StringVar(&flagEngine, "engine", "", "TTS engine: kokoro, openai, gemini or piper")
	pf.StringVar(&flagDevice, "device", "", "synthesis device: auto, cpu, cuda or mps")
	pf.IntVar(&flagChunkChars, "chunk-chars", 0, "max characters per synthesis chunk")
	pf.IntVar(&flagPauseMs, "pause-ms", -1, "silence between chunks in milliseconds")
	pf.IntVar(&flagParallel, "parallel", 0, "chunks to synthesize concurrently")
	pf.BoolVar(&flagKeepTemp, "keep-temp", false, "keep per-chunk WAV files for inspection")
	pf.BoolVar(&flagVerbose, "verbose", false, "debug logging")

	flags := rootCmd.Flags()
	flags.StringVarP(&flagOutput, "output", "o", "", "output WAV path (default: input name with .wav)")
	flags.BoolVar(&flagMarkdown, "markdown", false, "treat input as Markdown regardless of extension")
}

// Execute runs the command tree. Cobra already prints the error, so the only
// job left here is the exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds a console logger; verbose enables debug output.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if !verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// loadConfig merges environment configuration with command-line flags.
// Flags win; validation runs once the merge is complete.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine = flagEngine
	}
	if flags.Changed("voice") {
		cfg.Voice = flagVoice
	}
	if flags.Changed("lang") {
		cfg.Lang = flagLang
		if !flags.Changed("voice") {
			cfg.Voice = voices.DefaultFor(flagLang)
		}
	}
	if flags.Changed("speed") {
		cfg.Speed = flagSpeed
	}
	if flags.Changed("device") {
		cfg.Device = flagDevice
	}
	if flags.Changed("chunk-chars") {
		cfg.ChunkChars = flagChunkChars
	}
	if flags.Changed("pause-ms") {
		cfg.PauseMs = flagPauseMs
	}
	if flags.Changed("parallel") {
		cfg.Parallel = flagParallel
	}
	if flagKeepTemp {
		cfg.KeepTemp = true
	}
	if flagVerbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}

	var doc *document.Document
	if input == "-" {
		doc, err = document.Read(os.Stdin, "-", flagMarkdown)
	} else {
		doc, err = document.ReadFile(input)
	}
	if err != nil {
		return err
	}
	if flagMarkdown {
		doc.Markdown = true
	}

	outPath := flagOutput
	if outPath == "" {
		outPath = document.OutputPath(doc.Source)
	}

	if cmd.Flags().Changed("lang") {
		if code, ok := voices.LangFor(cfg.Voice); ok && code != cfg.Lang {
			log.Warnf("voice %s belongs to lang %q, but lang %q was requested", cfg.Voice, code, cfg.Lang)
		}
	}

	log.Infof("reading %s (%s, markdown=%v)", sourceName(doc), doc.Encoding, doc.Markdown)

	engine, err := tts.FromConfig(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if checker, ok := engine.(tts.Checker); ok {
		if err := checker.Check(ctx); err != nil {
			return fmt.Errorf("engine check failed: %w", err)
		}
	}

	return pipeline.New(engine, cfg, log).Run(ctx, doc, outPath)
}

func sourceName(doc *document.Document) string {
	if doc.Source == "" || doc.Source == "-" {
		return "stdin"
	}
	return doc.Source
}
