package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// exitNotStarted is reported when the step executable could not be launched
const exitNotStarted = 127

// ExecConfig describes how to invoke the external model engine
type ExecConfig struct {
	Dir           string // working directory of the engine scripts
	Python        string
	TrainScript   string
	PredictScript string
	ModelDir      string // checkpoint root; relative paths resolve against Dir
	// OnLine receives every output line of a running step
	OnLine func(step, line string)
}

// ExecEngine runs the heavyweight engine as child processes.
// Steps are never cancelled once started; the context is accepted for interface symmetry.
type ExecEngine struct {
	cfg    ExecConfig
	logger zerolog.Logger
}

// NewExecEngine creates an engine driving the configured scripts
func NewExecEngine(cfg ExecConfig) *ExecEngine {
	return &ExecEngine{
		cfg:    cfg,
		logger: log.With().Str("component", "exec_engine").Logger(),
	}
}

func (e *ExecEngine) checkpointDir() string {
	if filepath.IsAbs(e.cfg.ModelDir) {
		return e.cfg.ModelDir
	}
	return filepath.Join(e.cfg.Dir, e.cfg.ModelDir)
}

// ArtifactsPresent reports whether every checkpoint marker of the variant exists
func (e *ExecEngine) ArtifactsPresent(v models.VariantConfig) bool {
	if len(v.CheckpointMarkers) == 0 {
		return false
	}
	for _, marker := range v.CheckpointMarkers {
		info, err := os.Stat(filepath.Join(e.checkpointDir(), marker))
		if err != nil || info.IsDir() {
			return false
		}
	}
	return true
}

// Train invokes the training script with the variant code and split ratio
func (e *ExecEngine) Train(_ context.Context, v models.VariantConfig, split float64) error {
	_, err := e.run(models.StepTrain, v, e.cfg.TrainScript,
		"--name", v.Code,
		"--train_test_split", strconv.FormatFloat(split, 'f', -1, 64),
	)
	return err
}

// Predict invokes the predict script and returns its combined output
func (e *ExecEngine) Predict(_ context.Context, v models.VariantConfig) (string, error) {
	return e.run(models.StepPredict, v, e.cfg.PredictScript, "--name", v.Code)
}

func (e *ExecEngine) run(step string, v models.VariantConfig, script string, args ...string) (string, error) {
	scriptPath := script
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(e.cfg.Dir, script)
	}

	cmd := exec.Command(e.cfg.Python, append([]string{scriptPath}, args...)...)
	cmd.Dir = e.cfg.Dir

	var buf bytes.Buffer
	lines := &lineWriter{onLine: func(line string) {
		e.logger.Info().Str("step", step).Str("variant", v.Code).Msg(line)
		if e.cfg.OnLine != nil {
			e.cfg.OnLine(step, line)
		}
	}}
	out := io.MultiWriter(&buf, lines)
	cmd.Stdout = out
	cmd.Stderr = out

	e.logger.Debug().Str("step", step).Strs("args", cmd.Args).Msg("Starting step")
	err := cmd.Run()
	lines.Flush()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return buf.String(), &models.SubprocessError{Step: step, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return buf.String(), &models.SubprocessError{Step: step, ExitCode: exitNotStarted, Err: err}
	}
	return buf.String(), nil
}

// lineWriter splits a byte stream into lines
type lineWriter struct {
	mu     sync.Mutex
	buf    []byte
	onLine func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(w.buf[:i], "\r")
		w.onLine(string(line))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line without newline
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.onLine(string(bytes.TrimRight(w.buf, "\r")))
		w.buf = nil
	}
}
