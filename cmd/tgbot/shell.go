package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Alias1177/LottoPredictor/internal/notify"
	"github.com/Alias1177/LottoPredictor/internal/orchestrator"
	"github.com/Alias1177/LottoPredictor/internal/output"
	"github.com/Alias1177/LottoPredictor/internal/pipeline"
	"github.com/Alias1177/LottoPredictor/internal/worker"
	"github.com/Alias1177/LottoPredictor/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Keyboard labels
const (
	buttonFetch   = "抓取数据"
	buttonTrain   = "训练模型"
	buttonPredict = "开始预测"
	buttonRun     = "一键运行"
	buttonStatus  = "状态"
)

const busyReply = "A job is already running (%s). Wait for it to finish."

// shell maps chat commands to jobs on a single worker
type shell struct {
	sender  notify.Sender
	worker  *worker.Worker
	pipe    *pipeline.Pipeline
	split   float64
	allowed int64
	logger  zerolog.Logger
}

func newShell(sender notify.Sender, w *worker.Worker, pipe *pipeline.Pipeline, split float64, allowed int64) *shell {
	return &shell{
		sender:  sender,
		worker:  w,
		pipe:    pipe,
		split:   split,
		allowed: allowed,
		logger:  log.With().Str("component", "shell").Logger(),
	}
}

func (s *shell) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if s.allowed != 0 && chatID != s.allowed {
		s.logger.Warn().Int64("chat_id", chatID).Msg("Ignoring message from unknown chat")
		return
	}

	fields := strings.Fields(message.Text)
	if len(fields) == 0 {
		return
	}
	// Commands may carry a bot suffix in groups: /run@name
	command, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch command {
	case "/start", "/help":
		s.reply(chatID, s.helpText(), true)
	case "/status", buttonStatus:
		s.reply(chatID, s.status(context.Background()), false)
	case "/fetch", buttonFetch:
		s.submit(chatID, "fetch", s.fetch)
	case "/train", buttonTrain:
		s.submit(chatID, "train", s.train)
	case "/predict", buttonPredict:
		s.submit(chatID, "predict", s.predict)
	case "/run", buttonRun:
		flags, split, err := parseRunArgs(args, s.split)
		if err != nil {
			s.reply(chatID, err.Error(), false)
			return
		}
		s.submit(chatID, "run", func(ctx context.Context) (string, error) {
			return s.run(ctx, flags, split)
		})
	default:
		s.reply(chatID, "Unknown command. Send /help for the list.", false)
	}
}

// submit queues job and replies with its result once done
func (s *shell) submit(chatID int64, name string, job func(ctx context.Context) (string, error)) {
	var text string
	err := s.worker.TrySubmit(worker.Job{
		Name: name,
		Run: func(ctx context.Context) error {
			var err error
			text, err = job(ctx)
			return err
		},
		Done: func(err error) {
			if err != nil {
				s.reply(chatID, describeError(name, err), false)
				return
			}
			s.reply(chatID, text, false)
		},
	})
	switch {
	case errors.Is(err, worker.ErrBusy):
		s.reply(chatID, fmt.Sprintf(busyReply, s.worker.Running()), false)
	case err != nil:
		s.reply(chatID, "The bot is shutting down.", false)
	default:
		s.reply(chatID, fmt.Sprintf("Started %s for %s...", name, s.pipe.Variant.Name), false)
	}
}

func (s *shell) fetch(ctx context.Context) (string, error) {
	snap, err := s.pipe.Fetcher.Refresh(ctx, s.pipe.Variant)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("【%s】最新一期期号：%s\n数据准备就绪，共%d期 (source: %s)",
		s.pipe.Variant.Name, snap.Latest, len(snap.Records), snap.Source), nil
}

func (s *shell) train(ctx context.Context) (string, error) {
	if err := s.pipe.Engine.Train(ctx, s.pipe.Variant, s.split); err != nil {
		return "", err
	}
	return fmt.Sprintf("【%s】模型训练完成", s.pipe.Variant.Name), nil
}

func (s *shell) predict(ctx context.Context) (string, error) {
	out, err := s.pipe.Engine.Predict(ctx, s.pipe.Variant)
	if err != nil {
		return "", err
	}
	return output.Format(s.pipe.Variant, output.Parse(out)), nil
}

func (s *shell) run(ctx context.Context, flags models.Flags, split float64) (string, error) {
	res, err := s.pipe.Orchestrator.Run(ctx, s.pipe.Variant, flags, split)
	if err != nil {
		return "", err
	}
	return output.Format(s.pipe.Variant, res.Prediction), nil
}

func (s *shell) status(ctx context.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Variant: %s (%s)\n", s.pipe.Variant.Name, s.pipe.Variant.Code)

	if job := s.worker.Running(); job != "" {
		fmt.Fprintf(&b, "Job: %s\n", job)
	} else {
		b.WriteString("Job: idle\n")
	}

	if last, err := s.pipe.Store.LastIssue(ctx, s.pipe.Variant); err == nil {
		fmt.Fprintf(&b, "Latest local issue: %s\n", last)
	} else {
		b.WriteString("Latest local issue: none\n")
	}

	if s.pipe.Engine.ArtifactsPresent(s.pipe.Variant) {
		b.WriteString("Model: trained")
	} else {
		b.WriteString("Model: missing")
	}
	return b.String()
}

func (s *shell) helpText() string {
	return fmt.Sprintf(`%s predictor

/fetch - refresh the draw history
/train - train the model (split %.2f)
/predict - predict with the existing model
/run [refresh] [force] [only] [split] - full pipeline
/status - current job and model state`, s.pipe.Variant.Name, s.split)
}

func (s *shell) reply(chatID int64, text string, keyboard bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard {
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(buttonFetch),
				tgbotapi.NewKeyboardButton(buttonTrain),
				tgbotapi.NewKeyboardButton(buttonPredict),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(buttonRun),
				tgbotapi.NewKeyboardButton(buttonStatus),
			),
		)
	}
	if _, err := s.sender.Send(msg); err != nil {
		s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

// parseRunArgs reads the /run options: refresh, force, only and a split ratio
func parseRunArgs(args []string, defaultSplit float64) (models.Flags, float64, error) {
	var flags models.Flags
	split := defaultSplit
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "refresh":
			flags.RefreshData = true
		case "force":
			flags.ForceTrain = true
		case "only":
			flags.PredictOnly = true
		default:
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return flags, 0, fmt.Errorf("unknown /run option %q", arg)
			}
			if err := orchestrator.ValidateSplit(v); err != nil {
				return flags, 0, err
			}
			split = v
		}
	}
	return flags, split, nil
}

func describeError(job string, err error) string {
	var subErr *models.SubprocessError
	switch {
	case errors.Is(err, models.ErrNoModelForPredictOnly):
		return "No trained model found. Run /train or /run without only first."
	case errors.Is(err, models.ErrMissingData):
		return "No draw history available: the site is unreachable and there is no local copy."
	case errors.As(err, &subErr):
		return fmt.Sprintf("%s failed: %s step exited with code %d", job, subErr.Step, subErr.ExitCode)
	default:
		return fmt.Sprintf("%s failed: %v", job, err)
	}
}
