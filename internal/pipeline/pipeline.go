// Package pipeline wires the fetch, train and predict components for one variant.
package pipeline

import (
	"context"
	"fmt"

	"github.com/Alias1177/LottoPredictor/internal/config"
	"github.com/Alias1177/LottoPredictor/internal/database"
	"github.com/Alias1177/LottoPredictor/internal/fetcher"
	"github.com/Alias1177/LottoPredictor/internal/lite"
	"github.com/Alias1177/LottoPredictor/internal/orchestrator"
	httpClient "github.com/Alias1177/LottoPredictor/internal/platform/http"
	"github.com/Alias1177/LottoPredictor/internal/store"
	"github.com/Alias1177/LottoPredictor/internal/variant"
	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog/log"
)

// Engine names accepted by Build
const (
	EngineExec = "exec"
	EngineLite = "lite"
)

// Options select the variant and engine; empty fields fall back to the config
type Options struct {
	Variant string
	Engine  string
	// OnLine receives output lines of external engine steps
	OnLine func(step, line string)
}

// Pipeline holds the wired components
type Pipeline struct {
	Variant      models.VariantConfig
	Store        *store.CSVStore
	Fetcher      *fetcher.Fetcher
	Predictor    *lite.Predictor
	Engine       models.Engine
	Orchestrator *orchestrator.Orchestrator

	archive *database.DB
}

// Build creates every component from cfg
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Pipeline, error) {
	registry, err := variant.Load(cfg.VariantsFile)
	if err != nil {
		return nil, err
	}
	code := opts.Variant
	if code == "" {
		code = cfg.Variant
	}
	v, err := registry.Lookup(code)
	if err != nil {
		return nil, err
	}

	csv := store.NewCSVStore(cfg.DataDir)

	client := httpClient.NewClient(httpClient.ClientOptions{
		Timeout:        cfg.Timeout(),
		RequestsPerSec: cfg.RequestsPerSec,
	})

	sources := []models.DrawSource{
		fetcher.NewRemoteSource(cfg.HistoryBaseURL, client),
		fetcher.NewStoreSource("local", csv),
	}
	var (
		mirrors []models.DrawStore
		archive *database.DB
	)
	if cfg.DB.Enabled() {
		archive, err = database.New(ctx, database.ConnectionParams{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			DBName:   cfg.DB.DBName,
			SSLMode:  cfg.DB.SSLMode,
		})
		if err != nil {
			// The archive is optional; the CSV store stays authoritative
			log.Warn().Err(err).Msg("Draw archive unavailable, continuing without it")
			archive = nil
		} else {
			sources = append(sources, fetcher.NewStoreSource("archive", archive))
			mirrors = append(mirrors, archive)
		}
	}

	f := fetcher.New(fetcher.NewResolver(sources...), csv, mirrors...)
	predictor := lite.NewPredictor(csv, cfg.ModelDir)

	engineName := opts.Engine
	if engineName == "" {
		engineName = cfg.Engine
	}
	var engine models.Engine
	switch engineName {
	case EngineLite:
		engine = orchestrator.NewLiteEngine(predictor)
	case EngineExec:
		engine = orchestrator.NewExecEngine(orchestrator.ExecConfig{
			Dir:           cfg.EngineDir,
			Python:        cfg.PythonBin,
			TrainScript:   cfg.TrainScript,
			PredictScript: cfg.PredictScript,
			ModelDir:      cfg.ModelDir,
			OnLine:        opts.OnLine,
		})
	default:
		if archive != nil {
			archive.Close()
		}
		return nil, fmt.Errorf("unknown engine %q (want %s or %s)", engineName, EngineExec, EngineLite)
	}

	return &Pipeline{
		Variant:      v,
		Store:        csv,
		Fetcher:      f,
		Predictor:    predictor,
		Engine:       engine,
		Orchestrator: orchestrator.New(f, engine),
		archive:      archive,
	}, nil
}

// Close releases the archive connection
func (p *Pipeline) Close() {
	if p.archive != nil {
		p.archive.Close()
	}
}
