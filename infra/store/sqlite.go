package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kmehta07/lastmile/core/model"
	corestore "github.com/kmehta07/lastmile/core/store"
)

// SQLiteAuditStore persists the decision, override and outcome audit trail
// to a SQLite database. Records are stored as JSON documents with indexed
// columns for the common filters.
type SQLiteAuditStore struct {
	db *sql.DB
}

// NewSQLiteAuditStore opens or creates the database at path and ensures the
// schema.
func NewSQLiteAuditStore(path string) (*SQLiteAuditStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS decision_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER,
		shipment_id TEXT,
		record TEXT
	);
	CREATE TABLE IF NOT EXISTS override_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER,
		shipment_id TEXT,
		record TEXT
	);
	CREATE TABLE IF NOT EXISTS outcome_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER,
		shipment_id TEXT,
		overridden INTEGER,
		record TEXT
	);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteAuditStore{db: db}, nil
}

// AppendDecision writes a decision record to the audit log.
func (s *SQLiteAuditStore) AppendDecision(ctx context.Context, d model.Decision) error {
	return s.append(ctx, "decision_log", d.DecidedAt, d.ShipmentID, decisionDoc(d))
}

// AppendOverride writes an override record to the audit log.
func (s *SQLiteAuditStore) AppendOverride(ctx context.Context, o model.Override) error {
	return s.append(ctx, "override_log", o.Timestamp, o.ShipmentID, overrideDoc(o))
}

// AppendOutcome writes an outcome record to the audit log.
func (s *SQLiteAuditStore) AppendOutcome(ctx context.Context, o model.Outcome) error {
	b, err := json.Marshal(outcomeDoc(o))
	if err != nil {
		return err
	}
	overridden := 0
	if o.Overridden {
		overridden = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outcome_log (ts, shipment_id, overridden, record) VALUES (?, ?, ?, ?)`,
		o.RecordedAt.Unix(), o.ShipmentID, overridden, string(b))
	return err
}

func (s *SQLiteAuditStore) append(ctx context.Context, table string, ts time.Time, shipmentID string, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (ts, shipment_id, record) VALUES (?, ?, ?)`,
		ts.Unix(), shipmentID, string(b))
	return err
}

// Decisions returns audit decisions matching q, oldest first.
func (s *SQLiteAuditStore) Decisions(ctx context.Context, q corestore.DecisionQuery) ([]model.Decision, error) {
	query := `SELECT record FROM decision_log WHERE 1=1`
	var args []any
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.Unix())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.Unix())
	}
	if q.ShipmentID != "" {
		query += ` AND shipment_id = ?`
		args = append(args, q.ShipmentID)
	}
	query += ` ORDER BY ts`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Decision
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc decisionRecord
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("unmarshal decision record: %w", err)
		}
		out = append(out, doc.toModel())
	}
	return out, rows.Err()
}

// OverrideLog returns the override history for a shipment, or all overrides
// when shipmentID is empty.
func (s *SQLiteAuditStore) OverrideLog(ctx context.Context, shipmentID string) ([]model.Override, error) {
	query := `SELECT record FROM override_log`
	var args []any
	if shipmentID != "" {
		query += ` WHERE shipment_id = ?`
		args = append(args, shipmentID)
	}
	query += ` ORDER BY ts`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Override
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc overrideRecord
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("unmarshal override record: %w", err)
		}
		out = append(out, doc.toModel())
	}
	return out, rows.Err()
}

// OutcomeLog returns outcome records matching q, oldest first.
func (s *SQLiteAuditStore) OutcomeLog(ctx context.Context, q corestore.OutcomeQuery) ([]model.Outcome, error) {
	query := `SELECT record FROM outcome_log WHERE 1=1`
	var args []any
	if !q.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Since.Unix())
	}
	if !q.Until.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.Until.Unix())
	}
	if q.Overridden != nil {
		query += ` AND overridden = ?`
		if *q.Overridden {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	query += ` ORDER BY ts`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Outcome
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc outcomeRecord
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("unmarshal outcome record: %w", err)
		}
		out = append(out, doc.toModel())
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteAuditStore) Close() error { return s.db.Close() }
