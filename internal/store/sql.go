package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that text comparison orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const readingColumns = `recorded_at, equipment_id, vibration_mms, bearing_temp_c,
	hydraulic_pressure_bar, power_kw, load_pct, liner_wear_pct, seal_condition_pct,
	throughput_tph, degradation_mode, health_index`

const alertColumns = `id, raised_at, equipment_id, severity, category, variable,
	value, threshold, message, acknowledged`

// SQLStore persists to SQLite, PostgreSQL or MySQL through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	writeMu sync.Mutex // single writer
}

// NewSQLStore opens the database and creates the schema if missing.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// One connection: keeps :memory: databases shared and SQLite writes serialized.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) GetReadings(ctx context.Context, equipmentID string, since time.Time, limit int) ([]models.SensorReading, error) {
	query := s.dialect.rebind(`SELECT ` + readingColumns + ` FROM readings
		WHERE equipment_id = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, equipmentID, formatTime(since), readingLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	readings := make([]models.SensorReading, 0)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func (s *SQLStore) GetLatest(ctx context.Context, equipmentID string) (models.SensorReading, bool, error) {
	query := s.dialect.rebind(`SELECT ` + readingColumns + ` FROM readings
		WHERE equipment_id = ?
		ORDER BY recorded_at DESC
		LIMIT 1`)

	rows, err := s.db.QueryContext(ctx, query, equipmentID)
	if err != nil {
		return models.SensorReading{}, false, fmt.Errorf("query latest reading: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return models.SensorReading{}, false, rows.Err()
	}
	r, err := scanReading(rows)
	if err != nil {
		return models.SensorReading{}, false, err
	}
	return r, true, nil
}

func (s *SQLStore) GetAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error) {
	where, args := alertWhere(filter)
	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY raised_at DESC, id ASC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		var (
			a                  models.Alert
			raisedAt           string
			severity, category string
			variable           string
			acknowledged       int
		)
		if err := rows.Scan(&a.ID, &raisedAt, &a.EquipmentID, &severity, &category, &variable,
			&a.Value, &a.Threshold, &a.Message, &acknowledged); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if a.Timestamp, err = parseTime(raisedAt); err != nil {
			return nil, err
		}
		a.Severity = models.AlertSeverity(severity)
		a.Category = models.AlertCategory(category)
		a.Variable = models.Variable(variable)
		a.Acknowledged = acknowledged != 0
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *SQLStore) InsertReadings(ctx context.Context, readings []models.SensorReading) error {
	if len(readings) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
			`INSERT INTO readings (`+readingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare reading insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range readings {
			if _, err := stmt.ExecContext(ctx,
				formatTime(r.Timestamp), r.EquipmentID, r.VibrationMMS, r.BearingTempC,
				r.HydraulicPressureBar, r.PowerKW, r.LoadPct,
				nullFloat(r.LinerWearPct), nullFloat(r.SealConditionPct),
				r.ThroughputTPH, string(r.DegradationMode), r.HealthIndex,
			); err != nil {
				return fmt.Errorf("insert reading for %s: %w", r.EquipmentID, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) InsertAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
			s.dialect.insertIgnore("alerts", alertColumns, "?, ?, ?, ?, ?, ?, ?, ?, ?, ?")))
		if err != nil {
			return fmt.Errorf("prepare alert insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range alerts {
			acknowledged := 0
			if a.Acknowledged {
				acknowledged = 1
			}
			if _, err := stmt.ExecContext(ctx,
				a.ID, formatTime(a.Timestamp), a.EquipmentID, string(a.Severity), string(a.Category),
				string(a.Variable), a.Value, a.Threshold, a.Message, acknowledged,
			); err != nil {
				return fmt.Errorf("insert alert %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) AcknowledgeAlert(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(`UPDATE alerts SET acknowledged = 1 WHERE id = ?`), id); err != nil {
		return fmt.Errorf("acknowledge alert %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) ActiveAlertCount(ctx context.Context, equipmentID string) (int, error) {
	where, args := alertWhere(AlertFilter{EquipmentID: equipmentID, UnacknowledgedOnly: true})
	query := `SELECT COUNT(*) FROM alerts WHERE ` + strings.Join(where, " AND ")

	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active alerts: %w", err)
	}
	return count, nil
}

func (s *SQLStore) CountReadings(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return count, nil
}

func (s *SQLStore) Reset(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"readings", "alerts"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func alertWhere(filter AlertFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.EquipmentID != "" {
		where = append(where, "equipment_id = ?")
		args = append(args, filter.EquipmentID)
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if !filter.Since.IsZero() {
		where = append(where, "raised_at >= ?")
		args = append(args, formatTime(filter.Since))
	}
	if filter.UnacknowledgedOnly {
		where = append(where, "acknowledged = 0")
	}
	return where, args
}

func scanReading(rows *sql.Rows) (models.SensorReading, error) {
	var (
		r          models.SensorReading
		recordedAt string
		mode       string
		liner      sql.NullFloat64
		seal       sql.NullFloat64
	)
	if err := rows.Scan(&recordedAt, &r.EquipmentID, &r.VibrationMMS, &r.BearingTempC,
		&r.HydraulicPressureBar, &r.PowerKW, &r.LoadPct, &liner, &seal,
		&r.ThroughputTPH, &mode, &r.HealthIndex); err != nil {
		return r, fmt.Errorf("scan reading: %w", err)
	}

	ts, err := parseTime(recordedAt)
	if err != nil {
		return r, err
	}
	r.Timestamp = ts

	if r.DegradationMode, err = models.ParseDegradationMode(mode); err != nil {
		return r, err
	}
	if liner.Valid {
		r.LinerWearPct = models.Float(liner.Float64)
	}
	if seal.Valid {
		r.SealConditionPct = models.Float(seal.Float64)
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
