package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/climatelabs/carbontracker/internal/emissions"
)

var (
	csvRecordHeader = []string{"country_code", "country_name", "year", "value"}
)

// CSVExporter writes one emissions table snapshot per file. Files are named
// <prefix>_<timestamp>.csv under the output directory.
type CSVExporter struct {
	log      *slog.Logger
	file     *os.File
	writer   *csv.Writer
	filename string
}

func NewCSVExporter(log *slog.Logger, prefix, outputDir string) (*CSVExporter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.csv", prefix, time.Now().UTC().Format("2006-01-02T15:04:05"))
	fullPath := filepath.Join(outputDir, filename)

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}
	log.Info("Created new CSV file",
		slog.String("file_path", fullPath),
		slog.String("prefix", prefix))

	writer := csv.NewWriter(file)

	e := &CSVExporter{
		log:      log,
		file:     file,
		writer:   writer,
		filename: fullPath,
	}

	if err := e.WriteHeader(csvRecordHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	return e, nil
}

func (e *CSVExporter) WriteHeader(header []string) error {
	if err := e.writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	e.writer.Flush()
	e.log.Debug("Wrote CSV header", slog.Any("header", header), slog.String("file", e.filename))
	return e.writer.Error()
}

func (e *CSVExporter) WriteRecords(ctx context.Context, records []emissions.Record) error {
	for _, record := range records {
		row := []string{
			record.CountryCode,
			record.CountryName,
			strconv.Itoa(record.Year),
			strconv.FormatFloat(record.Value, 'f', -1, 64),
		}

		if err := e.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	e.writer.Flush()
	if err := e.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV records: %w", err)
	}

	e.log.Debug("Wrote CSV records",
		slog.Int("count", len(records)),
		slog.String("file", e.filename))

	return nil
}

func (e *CSVExporter) Close() error {
	e.writer.Flush()
	return e.file.Close()
}

func (e *CSVExporter) GetFilename() string {
	return e.filename
}
