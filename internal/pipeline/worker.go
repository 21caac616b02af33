package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Worker processes files for a specific pipeline
type Worker struct {
	pipeline   Pipeline
	config     PipelineConfig
	tracker    RunTracker
	flush      FlushFunc
	aggregator *StreamingAggregator
}

// NewWorker creates a new pipeline worker. flush receives every aggregated CSV.
func NewWorker(pipeline Pipeline, config PipelineConfig, tracker RunTracker, flush FlushFunc) *Worker {
	return &Worker{
		pipeline: pipeline,
		config:   config,
		tracker:  tracker,
		flush:    flush,
	}
}

// ProcessBatch processes a batch of files for a specific date
func (w *Worker) ProcessBatch(ctx context.Context, date time.Time, files []string) error {
	logger := log.With().Str("pipeline", w.pipeline.Name()).Str("date", date.Format("2006-01-02")).Logger()
	logger.Info().Int("files", len(files)).Msg("starting batch")

	run, err := w.getOrCreatePipelineRun(ctx, date, len(files))
	if err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}

	w.aggregator = NewStreamingAggregator(w.pipeline, w.config, date, w.flush)

	fileJobs := make([]*FileJob, len(files))
	for i, file := range files {
		job := &FileJob{
			PipelineRunID: run.ID,
			FilePath:      file,
			Status:        FileStatusQueued,
		}
		if err := w.tracker.CreateFileJob(ctx, job); err != nil {
			return fmt.Errorf("failed to create file job: %w", err)
		}
		fileJobs[i] = job
	}

	run.Status = StatusProcessing
	if err := w.tracker.UpdatePipelineRun(ctx, run); err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}

	if err := w.processFilesParallel(ctx, run, fileJobs); err != nil {
		w.failRun(ctx, run, err.Error())
		return err
	}

	if err := w.aggregator.Finalize(ctx); err != nil {
		w.failRun(ctx, run, fmt.Sprintf("aggregation failed: %v", err))
		return fmt.Errorf("failed to finalize aggregation: %w", err)
	}

	run.Status = StatusCompleted
	now := time.Now()
	run.CompletedAt = &now
	if err := w.tracker.UpdatePipelineRun(ctx, run); err != nil {
		return fmt.Errorf("failed to complete pipeline run: %w", err)
	}

	logger.Info().Int("rows", run.TotalRows).Msg("batch completed")
	return nil
}

func (w *Worker) failRun(ctx context.Context, run *PipelineRun, msg string) {
	run.Status = StatusFailed
	run.ErrorMessage = msg
	now := time.Now()
	run.CompletedAt = &now
	if err := w.tracker.UpdatePipelineRun(ctx, run); err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("failed to mark pipeline run as failed")
	}
}

// processFilesParallel processes files with at most WorkerCount in flight.
// The first failure cancels the remaining files.
func (w *Worker) processFilesParallel(ctx context.Context, run *PipelineRun, jobs []*FileJob) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := w.processFile(gctx, run, job); err != nil {
				log.Error().Err(err).
					Str("pipeline", w.pipeline.Name()).
					Str("file", job.FilePath).
					Msg("failed to process file")
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// processFile processes a single file
func (w *Worker) processFile(ctx context.Context, run *PipelineRun, job *FileJob) error {
	startTime := time.Now()

	job.Status = FileStatusProcessing
	if err := w.tracker.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	if err := w.pipeline.Validate(job.FilePath); err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("validation failed: %w", err))
	}

	rows, err := w.pipeline.Transform(ctx, job.FilePath)
	if err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("transformation failed: %w", err))
	}

	if err := w.aggregator.AddFileData(ctx, rows); err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("aggregation failed: %w", err))
	}

	job.Status = FileStatusCompleted
	job.ErrorMessage = ""
	now := time.Now()
	job.ProcessedAt = &now
	if err := w.tracker.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	if err := w.tracker.IncrementProcessedFiles(ctx, run.ID); err != nil {
		log.Warn().Err(err).Str("pipeline", w.pipeline.Name()).Msg("failed to increment processed files")
	}
	if err := w.tracker.AddRowCount(ctx, run.ID, len(rows)); err != nil {
		log.Warn().Err(err).Str("pipeline", w.pipeline.Name()).Msg("failed to add row count")
	}

	log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("file", job.FilePath).
		Int("rows", len(rows)).
		Dur("took", time.Since(startTime)).
		Msg("file processed")

	return nil
}

// markJobFailed records the failure; RetryFailed picks the job up again while
// RetryCount stays below RetryAttempts.
func (w *Worker) markJobFailed(ctx context.Context, job *FileJob, err error) error {
	job.Status = FileStatusFailed
	job.ErrorMessage = err.Error()
	job.RetryCount++

	// the job outcome must be recorded even when the batch context was cancelled
	if uerr := w.tracker.UpdateFileJob(context.WithoutCancel(ctx), job); uerr != nil {
		log.Error().Err(uerr).Str("pipeline", w.pipeline.Name()).Msg("failed to update job status")
	}

	return err
}

// getOrCreatePipelineRun gets or creates a pipeline run for the date
func (w *Worker) getOrCreatePipelineRun(ctx context.Context, date time.Time, totalFiles int) (*PipelineRun, error) {
	run, err := w.tracker.GetPipelineRunByDate(ctx, w.pipeline.Name(), date)
	if err != nil {
		return nil, err
	}

	if run != nil {
		if run.TotalFiles != totalFiles {
			run.TotalFiles = totalFiles
			if err := w.tracker.UpdatePipelineRun(ctx, run); err != nil {
				return nil, err
			}
		}
		return run, nil
	}

	run = &PipelineRun{
		PipelineName: w.pipeline.Name(),
		Date:         date,
		Status:       StatusPending,
		TotalFiles:   totalFiles,
		StartedAt:    time.Now(),
	}

	if err := w.tracker.CreatePipelineRun(ctx, run); err != nil {
		return nil, err
	}

	return run, nil
}

// RetryFailed retries all failed jobs for this pipeline
func (w *Worker) RetryFailed(ctx context.Context) error {
	jobs, err := w.tracker.GetFailedFileJobs(ctx, w.pipeline.Name(), w.config.RetryAttempts)
	if err != nil {
		return fmt.Errorf("failed to get failed jobs: %w", err)
	}

	if len(jobs) == 0 {
		log.Info().Str("pipeline", w.pipeline.Name()).Msg("no failed jobs to retry")
		return nil
	}

	log.Info().Str("pipeline", w.pipeline.Name()).Int("jobs", len(jobs)).Msg("retrying failed jobs")

	jobsByRun := make(map[int64][]*FileJob)
	for _, job := range jobs {
		jobsByRun[job.PipelineRunID] = append(jobsByRun[job.PipelineRunID], job)
	}

	for runID, runJobs := range jobsByRun {
		run, err := w.tracker.GetPipelineRun(ctx, runID)
		if err != nil {
			log.Error().Err(err).Int64("run_id", runID).Msg("failed to get pipeline run")
			continue
		}

		w.aggregator = NewStreamingAggregator(w.pipeline, w.config, run.Date, w.flush)

		if err := w.processFilesParallel(ctx, run, runJobs); err != nil {
			log.Error().Err(err).Int64("run_id", runID).Msg("failed to retry jobs")
			continue
		}

		if err := w.aggregator.Finalize(ctx); err != nil {
			log.Error().Err(err).Int64("run_id", runID).Msg("failed to finalize retried run")
		}
	}

	return nil
}
