package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// StreamingAggregator buffers transformed data and flushes to CSV in batches
type StreamingAggregator struct {
	pipeline   Pipeline
	config     PipelineConfig
	date       time.Time
	buffer     [][]TransformedRow
	bufferSize int64
	flushes    int
	mu         sync.Mutex
	flush      FlushFunc
	lastFlush  time.Time
}

// NewStreamingAggregator creates a new streaming aggregator for a pipeline
func NewStreamingAggregator(pipeline Pipeline, config PipelineConfig, date time.Time, flush FlushFunc) *StreamingAggregator {
	return &StreamingAggregator{
		pipeline:  pipeline,
		config:    config,
		date:      date,
		buffer:    make([][]TransformedRow, 0, config.BatchSize),
		flush:     flush,
		lastFlush: time.Now(),
	}
}

// AddFileData adds transformed data from a single file to the buffer
func (sa *StreamingAggregator) AddFileData(ctx context.Context, rows []TransformedRow) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	sa.buffer = append(sa.buffer, rows)

	// Rough estimate: 100 bytes per field
	for _, row := range rows {
		sa.bufferSize += int64(len(row.Data) * 100)
	}

	log.Debug().
		Str("pipeline", sa.pipeline.Name()).
		Int("files", len(sa.buffer)).
		Int64("bytes", sa.bufferSize).
		Msg("buffered file rows")

	shouldFlush := len(sa.buffer) >= sa.config.BatchSize ||
		sa.bufferSize >= sa.config.BatchSizeBytes ||
		time.Since(sa.lastFlush) >= sa.config.FlushInterval

	if shouldFlush {
		return sa.flushLocked(ctx)
	}

	return nil
}

// Finalize flushes any remaining data
func (sa *StreamingAggregator) Finalize(ctx context.Context) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if len(sa.buffer) == 0 {
		log.Debug().Str("pipeline", sa.pipeline.Name()).Msg("no data to finalize")
		return nil
	}

	return sa.flushLocked(ctx)
}

// flushLocked writes the current buffer to CSV and triggers the flush callback.
// Must be called with sa.mu locked
func (sa *StreamingAggregator) flushLocked(ctx context.Context) error {
	if len(sa.buffer) == 0 {
		return nil
	}

	var allRows []TransformedRow
	for _, fileRows := range sa.buffer {
		allRows = append(allRows, fileRows...)
	}

	if err := os.MkdirAll(sa.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// One CSV per flush so a later batch never overwrites one that is still loading
	sa.flushes++
	csvPath := filepath.Join(
		sa.config.OutputDir,
		fmt.Sprintf("%s_%03d.csv", sa.date.Format("20060102"), sa.flushes),
	)

	if err := writeRowsCSV(csvPath, allRows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	log.Info().
		Str("pipeline", sa.pipeline.Name()).
		Int("rows", len(allRows)).
		Str("path", csvPath).
		Msg("flushed aggregated rows")

	if sa.flush != nil {
		if err := sa.flush(ctx, sa.pipeline.GetOutputTable(), csvPath); err != nil {
			return fmt.Errorf("flush callback failed: %w", err)
		}
	}

	sa.buffer = sa.buffer[:0]
	sa.bufferSize = 0
	sa.lastFlush = time.Now()

	return nil
}

// writeRowsCSV writes transformed rows with a header taken from the union of
// their keys, sorted so every flush has the same column order.
func writeRowsCSV(path string, rows []TransformedRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if len(rows) == 0 {
		writer.Flush()
		return writer.Error()
	}

	seen := make(map[string]struct{})
	var headers []string
	for _, row := range rows {
		for key := range row.Data {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				headers = append(headers, key)
			}
		}
	}
	sort.Strings(headers)

	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, len(headers))
		for i, header := range headers {
			if val, ok := row.Data[header]; ok && val != nil {
				record[i] = fmt.Sprintf("%v", val)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// GetBufferStats returns current buffer statistics
func (sa *StreamingAggregator) GetBufferStats() (fileCount int, byteSize int64) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return len(sa.buffer), sa.bufferSize
}
