package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"prodplex.app/relay/core/db"
	"prodplex.app/relay/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// DispatchStore defines the contract for dispatch data access
type DispatchStore interface {
	Create(ctx context.Context, d *model.Dispatch) error
	GetByID(ctx context.Context, id int64) (*model.Dispatch, error)
	List(ctx context.Context, limit int32) ([]model.Dispatch, error)
	// MarkRunning also bumps the attempt counter.
	MarkRunning(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64, workflowID *string, result json.RawMessage) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

const dispatchColumns = `id, message, project_id, workflow_type, confidence, reasoning, agents,
	input_data, use_nemotron, status, workflow_id, result, error, attempts, created_at, updated_at, completed_at`

type dispatchStore struct {
	conn db.DBTX
}

func NewDispatchStore(conn db.DBTX) DispatchStore {
	return &dispatchStore{conn: conn}
}

func (s *dispatchStore) Create(ctx context.Context, d *model.Dispatch) error {
	if d.Agents == nil {
		d.Agents = []string{}
	}
	if len(d.InputData) == 0 {
		d.InputData = json.RawMessage(`{}`)
	}
	if d.Status == "" {
		d.Status = model.DispatchStatusQueued
	}

	row := s.conn.QueryRow(ctx, `
		INSERT INTO dispatches (id, message, project_id, workflow_type, confidence, reasoning, agents, input_data, use_nemotron, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		d.ID, d.Message, d.ProjectID, d.WorkflowType, d.Confidence, d.Reasoning, d.Agents, []byte(d.InputData), d.UseNemotron, string(d.Status),
	)
	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("inserting dispatch: %w", err)
	}
	return nil
}

func (s *dispatchStore) GetByID(ctx context.Context, id int64) (*model.Dispatch, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+dispatchColumns+` FROM dispatches WHERE id = $1`, id)
	d, err := scanDispatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *dispatchStore) List(ctx context.Context, limit int32) ([]model.Dispatch, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+dispatchColumns+` FROM dispatches ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing dispatches: %w", err)
	}
	defer rows.Close()

	result := make([]model.Dispatch, 0, limit)
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (s *dispatchStore) MarkRunning(ctx context.Context, id int64) error {
	return s.exec(ctx, `
		UPDATE dispatches
		SET status = 'running', attempts = attempts + 1, error = NULL, updated_at = now()
		WHERE id = $1`, id)
}

func (s *dispatchStore) MarkCompleted(ctx context.Context, id int64, workflowID *string, result json.RawMessage) error {
	var payload []byte
	if len(result) > 0 {
		payload = result
	}
	return s.exec(ctx, `
		UPDATE dispatches
		SET status = 'completed', workflow_id = $2, result = $3, error = NULL,
		    updated_at = now(), completed_at = now()
		WHERE id = $1`, id, workflowID, payload)
}

func (s *dispatchStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return s.exec(ctx, `
		UPDATE dispatches
		SET status = 'failed', error = $2, updated_at = now(), completed_at = now()
		WHERE id = $1`, id, errMsg)
}

func (s *dispatchStore) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.conn.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDispatch(row pgx.Row) (*model.Dispatch, error) {
	var (
		d         model.Dispatch
		status    string
		inputData []byte
		result    []byte
	)
	err := row.Scan(
		&d.ID, &d.Message, &d.ProjectID, &d.WorkflowType, &d.Confidence, &d.Reasoning, &d.Agents,
		&inputData, &d.UseNemotron, &status, &d.WorkflowID, &result, &d.Error, &d.Attempts,
		&d.CreatedAt, &d.UpdatedAt, &d.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Status = model.DispatchStatus(status)
	d.InputData = inputData
	if len(result) > 0 {
		d.Result = result
	}
	if d.Agents == nil {
		d.Agents = []string{}
	}
	return &d, nil
}
