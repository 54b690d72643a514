// Package cli wires the narration pipeline behind the voxcue command.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxcue/voxcue/internal/config"
	"github.com/voxcue/voxcue/internal/media"
	"github.com/voxcue/voxcue/internal/run"
	"github.com/voxcue/voxcue/internal/storage"
	"github.com/voxcue/voxcue/internal/tts"
	"github.com/voxcue/voxcue/internal/tts/googletts"
)

// NewRootCommand builds the voxcue root command.
func NewRootCommand() *cobra.Command {
	var (
		fileFlag      string
		textFlag      string
		languageFlag  string
		voiceFlag     string
		genderFlag    string
		rateFlag      float64
		encodingFlag  string
		voiceFileFlag string
		outputDirFlag string
		timeoutFlag   time.Duration
	)

	longHelp := "voxcue converts a block of text into a narrated audio track plus an SRT\n" +
		"subtitle file whose cue timestamps match when each clause is spoken.\n" +
		"Artifacts are written into a timestamped directory under the runs root."

	rootCmd := &cobra.Command{
		Use:           "voxcue",
		Short:         "Narrate text and generate time-synchronized subtitles",
		Long:          longHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := cfg.NewLogger()
			slog.SetDefault(logger)

			voice, err := resolveVoice(cmd, voiceFileFlag, languageFlag, voiceFlag, genderFlag, rateFlag, encodingFlag)
			if err != nil {
				return err
			}

			runsDir := cfg.RunsDir
			if outputDirFlag != "" {
				runsDir = outputDirFlag
			}

			policy := tts.DefaultPolicy()
			policy.MaxAttempts = cfg.MaxAttempts

			synth, err := googletts.NewClient(
				googletts.WithAPIKey(cfg.APIKey),
				googletts.WithPolicy(policy),
			)
			if err != nil {
				return err
			}

			store, err := newStore(cfg, logger)
			if err != nil {
				return err
			}

			svc := run.NewService(synth, media.NewFFprobeProber(cfg.FFprobePath), store, logger)

			ctx := cmd.Context()
			if timeoutFlag > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeoutFlag)
				defer cancel()
			}

			out, err := svc.Run(ctx, run.Input{
				Text:     textFlag,
				FilePath: fileFlag,
				Voice:    voice,
				RunsDir:  runsDir,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.AudioPath)
			fmt.Fprintln(cmd.OutOrStdout(), out.SubtitlePath)
			for _, url := range out.MirrorURLs {
				fmt.Fprintln(cmd.OutOrStdout(), url)
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&fileFlag, "file", "f", "", "Path to the input text file")
	flags.StringVarP(&textFlag, "text", "t", "", "Text to synthesize")
	flags.StringVarP(&languageFlag, "language-code", "l", tts.DefaultLanguageCode, "Language code")
	flags.StringVarP(&voiceFlag, "voice-name", "v", tts.DefaultVoiceName, "Voice name")
	flags.StringVar(&genderFlag, "gender", "", "Voice gender hint (NEUTRAL, MALE or FEMALE)")
	flags.Float64Var(&rateFlag, "speaking-rate", 0, "Speaking rate multiplier (0.25 to 4.0)")
	flags.StringVar(&encodingFlag, "audio-encoding", tts.DefaultAudioEncoding, "Audio encoding (MP3, LINEAR16 or OGG_OPUS)")
	flags.StringVar(&voiceFileFlag, "voice-config", "", "Path to a TOML voice configuration file")
	flags.StringVarP(&outputDirFlag, "output-dir", "o", "", "Runs root directory (overrides VOXCUE_RUNS_DIR)")
	flags.DurationVar(&timeoutFlag, "timeout", 0, "Overall timeout for the run, e.g. 2m")

	rootCmd.MarkFlagsOneRequired("file", "text")
	rootCmd.MarkFlagsMutuallyExclusive("file", "text")

	return rootCmd
}

// resolveVoice layers the voice configuration: defaults, then the TOML file,
// then explicitly set flags on top. The result is validated before any
// network call.
func resolveVoice(cmd *cobra.Command, voiceFile, language, name, gender string, rate float64, encoding string) (tts.VoiceConfig, error) {
	voice := tts.DefaultVoiceConfig()

	if voiceFile != "" {
		loaded, err := tts.LoadVoiceFile(voiceFile, voice)
		if err != nil {
			return tts.VoiceConfig{}, err
		}
		voice = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("language-code") || voiceFile == "" {
		voice.LanguageCode = language
	}
	if flags.Changed("voice-name") || voiceFile == "" {
		voice.VoiceName = name
	}
	if flags.Changed("gender") {
		voice.Gender = gender
	}
	if flags.Changed("speaking-rate") {
		voice.SpeakingRate = rate
	}
	if flags.Changed("audio-encoding") {
		voice.AudioEncoding = encoding
	}

	if err := voice.Validate(); err != nil {
		return tts.VoiceConfig{}, err
	}
	return voice, nil
}

// newStore creates the artifact store, adding the S3 mirror when configured.
func newStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if !cfg.S3Enabled() {
		return storage.NewLocalStore(), nil
	}

	s3Store, err := storage.NewS3Store(storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 store: %w", err)
	}
	logger.Info("S3 artifact mirror configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)
	return s3Store, nil
}
