// Package store archives generated threat models in PostgreSQL. The archive
// is write-mostly history for audit and trend purposes; the engine never
// reads it back during generation, which stays fresh per call.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/threatlens-cli/api/schemas"
)

// DBPool abstracts pgxpool.Pool so tests can substitute a mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store provides the PostgreSQL archive implementation.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a Store and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const sqlInsertModel = `
        INSERT INTO threat_models (id, dfd_id, dfd_name, total_threats, critical, high, medium, low, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

// ArchiveThreatModel persists a model and its findings in one transaction.
func (s *Store) ArchiveThreatModel(ctx context.Context, model *schemas.ThreatModel) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after commit returns pgx.ErrTxClosed; that is not an error.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlInsertModel,
		model.ID, model.DFDID, model.DFDName, model.TotalThreats,
		model.RiskSummary.Critical, model.RiskSummary.High,
		model.RiskSummary.Medium, model.RiskSummary.Low,
		model.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert threat model %s: %w", model.ID, err)
	}

	if len(model.Findings) > 0 {
		if err := s.archiveFindings(ctx, tx, model.ID, model.Findings); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Info("Threat model archived",
		zap.String("model_id", model.ID),
		zap.Int("findings", len(model.Findings)))
	return nil
}

func (s *Store) archiveFindings(ctx context.Context, tx pgx.Tx, modelID string, findings []schemas.ThreatFinding) error {
	rows := make([][]interface{}, len(findings))
	for i, f := range findings {
		strides := make([]string, len(f.Stride))
		for j, c := range f.Stride {
			strides[j] = string(c)
		}
		rows[i] = []interface{}{
			f.ID, modelID, f.PatternID,
			f.Title, f.Description, f.Category,
			strings.Join(strides, ","), string(f.Severity), f.Likelihood, f.Impact,
			f.Mitigations, f.OWASPCategory,
			string(f.Subject.Kind), f.Subject.ID, f.Subject.Name, f.Subject.Type,
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"threat_findings"},
		[]string{
			"id", "model_id", "pattern_id",
			"title", "description", "category",
			"stride", "severity", "likelihood", "impact",
			"mitigations", "owasp_category",
			"subject_kind", "subject_id", "subject_name", "subject_type",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy findings for model %s: %w", modelID, err)
	}
	if int(copyCount) != len(findings) {
		return fmt.Errorf("expected to copy %d findings, copied %d", len(findings), copyCount)
	}
	return nil
}

const sqlSelectHistory = `
        SELECT id, dfd_id, dfd_name, total_threats, critical, high, medium, low, created_at
        FROM threat_models
        WHERE dfd_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `

// History returns the most recent archived models for a DFD, newest first.
// Findings are not hydrated; the archive row carries the aggregate counts.
func (s *Store) History(ctx context.Context, dfdID string, limit int) ([]schemas.ThreatModel, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, sqlSelectHistory, dfdID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for DFD %s: %w", dfdID, err)
	}
	defer rows.Close()

	var models []schemas.ThreatModel
	for rows.Next() {
		var m schemas.ThreatModel
		if err := rows.Scan(
			&m.ID, &m.DFDID, &m.DFDName, &m.TotalThreats,
			&m.RiskSummary.Critical, &m.RiskSummary.High,
			&m.RiskSummary.Medium, &m.RiskSummary.Low,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan threat model row: %w", err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}
