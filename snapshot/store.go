// Package snapshot persists capability snapshots so an endpoint need not be
// re-probed on every run.
package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/skosprobe/capability"
	"github.com/teranos/skosprobe/db"
	"github.com/teranos/skosprobe/errors"
	"github.com/teranos/skosprobe/logger"
)

// Record is one stored analysis run.
type Record struct {
	ID          string                     `json:"id" yaml:"id"`
	EndpointURL string                     `json:"endpointUrl" yaml:"endpointUrl"`
	CreatedAt   time.Time                  `json:"createdAt" yaml:"createdAt"`
	Analysis    *capability.AnalysisResult `json:"analysis" yaml:"analysis"`
}

// Summary is the listing form of a Record, read without decoding the
// snapshot body.
type Summary struct {
	ID             string              `json:"id" yaml:"id"`
	EndpointURL    string              `json:"endpointUrl" yaml:"endpointUrl"`
	AnalyzedAt     time.Time           `json:"analyzedAt" yaml:"analyzedAt"`
	CreatedAt      time.Time           `json:"createdAt" yaml:"createdAt"`
	HasSkosContent capability.TriState `json:"hasSkosContent" yaml:"hasSkosContent"`
	SchemeCount    int                 `json:"schemeCount" yaml:"schemeCount"`
	TotalConcepts  capability.Count    `json:"totalConcepts" yaml:"totalConcepts"`
}

// Store handles persistence of capability snapshots.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewStore creates a store over a migrated database. A nil logger keeps it
// silent.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{db: db, logger: log, now: time.Now}
}

// Save validates and stores a snapshot, returning its new ID.
func (s *Store) Save(ctx context.Context, endpointURL string, a *capability.AnalysisResult) (string, error) {
	if endpointURL == "" {
		return "", errors.New("endpoint URL is required")
	}
	var body bytes.Buffer
	if err := capability.WriteSnapshot(&body, a); err != nil {
		return "", errors.Wrap(err, "failed to encode snapshot")
	}

	id := uuid.New().String()
	createdAt := s.now().UTC()

	var hasSkos sql.NullBool
	if a.HasSkosContent.Known() {
		hasSkos = sql.NullBool{Bool: a.HasSkosContent.IsTrue(), Valid: true}
	}
	var concepts sql.NullInt64
	if n, known := a.TotalConcepts.Value(); known {
		concepts = sql.NullInt64{Int64: int64(n), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO capability_snapshots
		 (id, endpoint_url, analyzed_at, created_at, has_skos_content, scheme_count, total_concepts, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, endpointURL, a.AnalyzedAt.UTC(), createdAt, hasSkos, a.SchemeCount, concepts, body.String(),
	)
	if err != nil {
		return "", storeError(err, "failed to save snapshot")
	}

	s.logger.Infow("Snapshot saved",
		logger.FieldSnapshotID, id,
		logger.FieldEndpoint, endpointURL,
	)
	return id, nil
}

// Get returns the snapshot with id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, endpoint_url, created_at, snapshot FROM capability_snapshots WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("snapshot %s", id)
	}
	if err != nil {
		return nil, storeError(err, "failed to get snapshot %s", id)
	}
	return rec, nil
}

// Latest returns the most recently analyzed snapshot of endpointURL.
func (s *Store) Latest(ctx context.Context, endpointURL string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, endpoint_url, created_at, snapshot FROM capability_snapshots
		 WHERE endpoint_url = ?
		 ORDER BY analyzed_at DESC, created_at DESC
		 LIMIT 1`, endpointURL)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("no snapshot for %s", endpointURL)
	}
	if err != nil {
		return nil, storeError(err, "failed to get latest snapshot for %s", endpointURL)
	}
	return rec, nil
}

func scanRecord(row *sql.Row) (*Record, error) {
	var rec Record
	var body string
	if err := row.Scan(&rec.ID, &rec.EndpointURL, &rec.CreatedAt, &body); err != nil {
		return nil, err
	}
	a, err := capability.LoadSnapshot(bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, errors.Wrapf(err, "stored snapshot %s", rec.ID)
	}
	rec.Analysis = a
	return &rec, nil
}

// List returns summaries of every stored snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, endpoint_url, analyzed_at, created_at, has_skos_content, scheme_count, total_concepts
		 FROM capability_snapshots
		 ORDER BY analyzed_at DESC, created_at DESC`)
	if err != nil {
		return nil, storeError(err, "failed to list snapshots")
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sum Summary
		var hasSkos sql.NullBool
		var concepts sql.NullInt64
		if err := rows.Scan(&sum.ID, &sum.EndpointURL, &sum.AnalyzedAt, &sum.CreatedAt,
			&hasSkos, &sum.SchemeCount, &concepts); err != nil {
			return nil, errors.Wrap(err, "failed to scan snapshot row")
		}
		if hasSkos.Valid {
			sum.HasSkosContent = capability.FromBool(hasSkos.Bool)
		}
		if concepts.Valid {
			sum.TotalConcepts = capability.KnownCount(int(concepts.Int64))
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate snapshots")
	}
	return summaries, nil
}

// Delete removes the snapshot with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM capability_snapshots WHERE id = ?`, id)
	if err != nil {
		return storeError(err, "failed to delete snapshot %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "failed to delete snapshot %s", id)
	}
	if n == 0 {
		return errors.NewNotFoundError("snapshot %s", id)
	}
	s.logger.Infow("Snapshot deleted", logger.FieldSnapshotID, id)
	return nil
}

// storeError wraps a database failure, pointing at the usual cause when the
// connection was already closed.
func storeError(err error, format string, args ...interface{}) error {
	if db.IsDatabaseClosed(err) {
		err = errors.WithHint(err, "the snapshot database was closed before the command finished")
	}
	return errors.Wrapf(err, format, args...)
}
