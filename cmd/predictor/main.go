package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alias1177/LottoPredictor/internal/config"
	"github.com/Alias1177/LottoPredictor/internal/notify"
	"github.com/Alias1177/LottoPredictor/internal/output"
	"github.com/Alias1177/LottoPredictor/internal/pipeline"
	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

type options struct {
	variant     string
	engine      string
	refreshData bool
	forceTrain  bool
	predictOnly bool
	split       float64
	notify      bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	cmd := newRootCmd(cfg, os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(exitCode(err))
	}
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(writer)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// exitCode maps run errors to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, models.ErrNoModelForPredictOnly) || errors.Is(err, models.ErrInvalidSplit) {
		return exitValidation
	}
	var subErr *models.SubprocessError
	if errors.As(err, &subErr) && subErr.ExitCode > 0 {
		return subErr.ExitCode
	}
	return exitFailure
}

func newRootCmd(cfg *config.Config, stdout io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "predictor",
		Short:         "Fetch lottery history, train when needed and print a prediction",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), cfg, opts, stdout)
		},
	}

	root.PersistentFlags().StringVar(&opts.variant, "variant", cfg.Variant, "game variant code (dlt, ssq)")
	root.Flags().StringVar(&opts.engine, "engine", cfg.Engine, "model engine: exec (external scripts) or lite (frequency model)")
	root.Flags().BoolVar(&opts.refreshData, "refresh-data", false, "re-fetch draw history before training")
	root.Flags().BoolVar(&opts.forceTrain, "force-train", false, "train even when a model already exists")
	root.Flags().BoolVar(&opts.predictOnly, "predict-only", false, "only predict; requires an existing model")
	root.Flags().Float64Var(&opts.split, "train-test-split", cfg.TrainTestSplit, "training set ratio within [0.5, 1.0)")
	root.Flags().BoolVar(&opts.notify, "notify", false, "send the summary to TELEGRAM_CHAT_ID")

	root.AddCommand(newFetchCmd(cfg, opts, stdout), newLiteCmd(cfg, opts, stdout))
	return root
}

func runPipeline(ctx context.Context, cfg *config.Config, opts *options, stdout io.Writer) error {
	a, err := pipeline.Build(ctx, cfg, pipeline.Options{Variant: opts.variant, Engine: opts.engine})
	if err != nil {
		return err
	}
	defer a.Close()

	flags := models.Flags{
		RefreshData: opts.refreshData,
		ForceTrain:  opts.forceTrain,
		PredictOnly: opts.predictOnly,
	}

	res, err := a.Orchestrator.Run(ctx, a.Variant, flags, opts.split)
	if err != nil {
		if errors.Is(err, models.ErrNoModelForPredictOnly) {
			fmt.Fprintln(stdout, "No trained model found and --predict-only was given. Train first or drop --predict-only.")
		}
		return err
	}

	summary := output.Format(a.Variant, res.Prediction)
	fmt.Fprintln(stdout, summary)

	if opts.notify {
		n, err := notify.Dial(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Notification skipped")
			return nil
		}
		if err := n.Send(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("Notification failed")
		}
	}
	return nil
}

func newFetchCmd(cfg *config.Config, opts *options, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Refresh the local draw history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := pipeline.Build(cmd.Context(), cfg, pipeline.Options{Variant: opts.variant, Engine: pipeline.EngineLite})
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Fetcher.Refresh(cmd.Context(), a.Variant)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "【%s】最新一期期号：%s\n", a.Variant.Name, snap.Latest)
			fmt.Fprintf(stdout, "【%s】数据准备就绪，共%d期 (source: %s)\n", a.Variant.Name, len(snap.Records), snap.Source)
			return nil
		},
	}
}

func newLiteCmd(cfg *config.Config, opts *options, stdout io.Writer) *cobra.Command {
	liteCmd := &cobra.Command{
		Use:   "lite",
		Short: "Frequency model that needs no external engine",
	}

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Rebuild the frequency model from the local draw history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := pipeline.Build(cmd.Context(), cfg, pipeline.Options{Variant: opts.variant, Engine: pipeline.EngineLite})
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Predictor.Train(cmd.Context(), a.Variant); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "[lite] model saved: %s\n", a.Predictor.ArtifactPath(a.Variant))
			return nil
		},
	}

	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Print the prediction line, training first when no model exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := pipeline.Build(cmd.Context(), cfg, pipeline.Options{Variant: opts.variant, Engine: pipeline.EngineLite})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Predictor.Predict(cmd.Context(), a.Variant)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, output.Marker(a.Variant, res))
			return nil
		},
	}

	liteCmd.AddCommand(trainCmd, predictCmd)
	return liteCmd
}
