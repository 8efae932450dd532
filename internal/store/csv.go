// Package store keeps the per-variant draw history as CSV files.
package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVStore is the on-disk DrawRecordStore. Files live at <root>/<variant storage path>.
type CSVStore struct {
	root   string
	logger zerolog.Logger
}

// NewCSVStore creates a store rooted at dir
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{
		root:   dir,
		logger: log.With().Str("component", "csv_store").Logger(),
	}
}

// Path returns the file backing the variant
func (s *CSVStore) Path(v models.VariantConfig) string {
	return filepath.Join(s.root, v.StoragePath)
}

// Exists reports whether the variant has a local snapshot
func (s *CSVStore) Exists(v models.VariantConfig) bool {
	info, err := os.Stat(s.Path(v))
	return err == nil && !info.IsDir()
}

// Load reads every record of the variant
func (s *CSVStore) Load(_ context.Context, v models.VariantConfig) ([]models.DrawRecord, error) {
	path := s.Path(v)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrMissingData, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	data, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	records, err := parse(bytes.NewReader(data), v)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	s.logger.Debug().Str("variant", v.Code).Int("rows", len(records)).Msg("Loaded local draw history")
	return records, nil
}

// Save replaces the snapshot of the variant with records
func (s *CSVStore) Save(_ context.Context, v models.VariantConfig, records []models.DrawRecord) error {
	path := s.Path(v)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if err := write(f, v, records, true); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	s.logger.Info().Str("variant", v.Code).Int("rows", len(records)).Str("path", path).Msg("Draw history saved")
	return nil
}

// Append adds records to the end of the snapshot, creating it when absent
func (s *CSVStore) Append(_ context.Context, v models.VariantConfig, records []models.DrawRecord) error {
	path := s.Path(v)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	header := !s.Exists(v)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return write(f, v, records, header)
}

// LastIssue returns the issue id of the last stored row
func (s *CSVStore) LastIssue(ctx context.Context, v models.VariantConfig) (string, error) {
	records, err := s.Load(ctx, v)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: %s is empty", models.ErrMissingData, s.Path(v))
	}
	return records[len(records)-1].Issue, nil
}

// decode returns UTF-8 content, falling back to GBK for legacy files
func decode(raw []byte) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return raw, nil
	}
	out, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parse(r io.Reader, v models.VariantConfig) ([]models.DrawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index[models.IssueHeader]; !ok {
		return nil, fmt.Errorf("missing %q column", models.IssueHeader)
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []models.DrawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := models.DrawRecord{Issue: cell(row, models.IssueHeader)}
		for _, h := range v.Headers(models.Red) {
			rec.Red = append(rec.Red, cell(row, h))
		}
		for _, h := range v.Headers(models.Blue) {
			rec.Blue = append(rec.Blue, cell(row, h))
		}
		records = append(records, rec)
	}

	return records, nil
}

func write(w io.Writer, v models.VariantConfig, records []models.DrawRecord, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(v.Columns()); err != nil {
			return err
		}
	}

	for _, rec := range records {
		row := make([]string, 0, 1+v.RedCount+v.BlueCount)
		row = append(row, rec.Issue)
		row = append(row, fit(rec.Red, v.RedCount)...)
		row = append(row, fit(rec.Blue, v.BlueCount)...)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// fit pads or truncates cells to exactly n entries
func fit(cells []string, n int) []string {
	out := make([]string, n)
	copy(out, cells)
	return out
}
