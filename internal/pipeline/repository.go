package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository implements RunTracker on the pipeline_runs and pipeline_file_jobs tables.

// Repository handles database operations for pipeline tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new pipeline repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreatePipelineRun creates a new pipeline run record
func (r *Repository) CreatePipelineRun(ctx context.Context, run *PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (
			pipeline_name, date, status, total_files, 
			processed_files, total_rows, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		run.PipelineName, run.Date, run.Status, run.TotalFiles,
		run.ProcessedFiles, run.TotalRows, run.StartedAt,
	).Scan(&run.ID)

	return err
}

// UpdatePipelineRun updates an existing pipeline run
func (r *Repository) UpdatePipelineRun(ctx context.Context, run *PipelineRun) error {
	query := `
		UPDATE pipeline_runs
		SET status = $1, processed_files = $2, total_rows = $3,
		    completed_at = $4, error_message = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.ProcessedFiles, run.TotalRows,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

// GetPipelineRun retrieves a pipeline run by ID
func (r *Repository) GetPipelineRun(ctx context.Context, id int64) (*PipelineRun, error) {
	query := `
		SELECT id, pipeline_name, date, status, total_files,
		       processed_files, total_rows, started_at, completed_at, COALESCE(error_message, '')
		FROM pipeline_runs
		WHERE id = $1
	`

	run := &PipelineRun{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.PipelineName, &run.Date, &run.Status,
		&run.TotalFiles, &run.ProcessedFiles, &run.TotalRows,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)

	if err != nil {
		return nil, err
	}

	return run, nil
}

// GetPipelineRunByDate retrieves a pipeline run for a specific date
func (r *Repository) GetPipelineRunByDate(ctx context.Context, pipelineName string, date time.Time) (*PipelineRun, error) {
	query := `
		SELECT id, pipeline_name, date, status, total_files,
		       processed_files, total_rows, started_at, completed_at, COALESCE(error_message, '')
		FROM pipeline_runs
		WHERE pipeline_name = $1 AND date = $2
	`

	run := &PipelineRun{}
	err := r.db.QueryRowContext(ctx, query, pipelineName, date).Scan(
		&run.ID, &run.PipelineName, &run.Date, &run.Status,
		&run.TotalFiles, &run.ProcessedFiles, &run.TotalRows,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CreateFileJob creates a new file job record
func (r *Repository) CreateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		INSERT INTO pipeline_file_jobs (
			pipeline_run_id, file_path, status, error_message
		) VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		job.PipelineRunID, job.FilePath, job.Status, job.ErrorMessage,
	).Scan(&job.ID)

	return err
}

// UpdateFileJob updates an existing file job
func (r *Repository) UpdateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		UPDATE pipeline_file_jobs
		SET status = $1, error_message = $2, processed_at = $3, retry_count = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(
		ctx, query,
		job.Status, job.ErrorMessage, job.ProcessedAt, job.RetryCount, job.ID,
	)

	return err
}

// GetFailedFileJobs retrieves all failed file jobs for retry
func (r *Repository) GetFailedFileJobs(ctx context.Context, pipelineName string, maxRetries int) ([]*FileJob, error) {
	query := `
		SELECT fj.id, fj.pipeline_run_id, fj.file_path, fj.status,
		       COALESCE(fj.error_message, ''), fj.processed_at, fj.retry_count
		FROM pipeline_file_jobs fj
		JOIN pipeline_runs pr ON fj.pipeline_run_id = pr.id
		WHERE pr.pipeline_name = $1 
		  AND fj.status = $2
		  AND fj.retry_count < $3
		ORDER BY fj.id
	`

	rows, err := r.db.QueryContext(ctx, query, pipelineName, FileStatusFailed, maxRetries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*FileJob
	for rows.Next() {
		job := &FileJob{}
		err := rows.Scan(
			&job.ID, &job.PipelineRunID, &job.FilePath,
			&job.Status, &job.ErrorMessage, &job.ProcessedAt, &job.RetryCount,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// IncrementProcessedFiles atomically increments the processed file count
func (r *Repository) IncrementProcessedFiles(ctx context.Context, runID int64) error {
	query := `
		UPDATE pipeline_runs
		SET processed_files = processed_files + 1
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, runID)
	return err
}

// AddRowCount atomically adds to the total row count
func (r *Repository) AddRowCount(ctx context.Context, runID int64, count int) error {
	query := `
		UPDATE pipeline_runs
		SET total_rows = total_rows + $1
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, count, runID)
	return err
}

// ListRecentRuns returns the latest runs of a pipeline, newest snapshot first.
func (r *Repository) ListRecentRuns(ctx context.Context, pipelineName string, limit int) ([]*PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, pipeline_name, date, status, total_files,
		       processed_files, total_rows, started_at, completed_at,
		       COALESCE(error_message, '')
		FROM pipeline_runs
		WHERE pipeline_name = $1
		ORDER BY date DESC, started_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, pipelineName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*PipelineRun
	for rows.Next() {
		run := &PipelineRun{}
		err := rows.Scan(
			&run.ID, &run.PipelineName, &run.Date, &run.Status,
			&run.TotalFiles, &run.ProcessedFiles, &run.TotalRows,
			&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
