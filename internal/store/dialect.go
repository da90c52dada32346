package store

import (
	"strconv"
	"strings"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/config"
)

// dialect captures the per-database differences of the SQL store.
type dialect struct {
	driverName string
	schema     []string
	// insertIgnorePrefix/Suffix wrap an INSERT so duplicate primary keys are skipped.
	insertIgnorePrefix string
	insertIgnoreSuffix string
	dollarParams       bool
}

var dialects = map[string]dialect{
	config.DriverSQLite: {
		driverName: "sqlite",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS readings (
				id                     INTEGER PRIMARY KEY AUTOINCREMENT,
				recorded_at            TEXT NOT NULL,
				equipment_id           TEXT NOT NULL,
				vibration_mms          REAL NOT NULL,
				bearing_temp_c         REAL NOT NULL,
				hydraulic_pressure_bar REAL NOT NULL,
				power_kw               REAL NOT NULL,
				load_pct               REAL NOT NULL,
				liner_wear_pct         REAL,
				seal_condition_pct     REAL,
				throughput_tph         REAL NOT NULL,
				degradation_mode       TEXT NOT NULL DEFAULT 'normal',
				health_index           REAL NOT NULL DEFAULT 100.0
			)`,
			`CREATE TABLE IF NOT EXISTS alerts (
				id           TEXT PRIMARY KEY,
				raised_at    TEXT NOT NULL,
				equipment_id TEXT NOT NULL,
				severity     TEXT NOT NULL,
				category     TEXT NOT NULL,
				variable     TEXT NOT NULL,
				value        REAL NOT NULL,
				threshold    REAL NOT NULL,
				message      TEXT NOT NULL,
				acknowledged INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_readings_eq_ts ON readings (equipment_id, recorded_at)`,
			`CREATE INDEX IF NOT EXISTS idx_alerts_eq_ts ON alerts (equipment_id, raised_at)`,
		},
		insertIgnorePrefix: "INSERT OR IGNORE INTO",
	},
	config.DriverPostgres: {
		driverName: "pgx",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS readings (
				id                     BIGSERIAL PRIMARY KEY,
				recorded_at            TEXT NOT NULL,
				equipment_id           TEXT NOT NULL,
				vibration_mms          DOUBLE PRECISION NOT NULL,
				bearing_temp_c         DOUBLE PRECISION NOT NULL,
				hydraulic_pressure_bar DOUBLE PRECISION NOT NULL,
				power_kw               DOUBLE PRECISION NOT NULL,
				load_pct               DOUBLE PRECISION NOT NULL,
				liner_wear_pct         DOUBLE PRECISION,
				seal_condition_pct     DOUBLE PRECISION,
				throughput_tph         DOUBLE PRECISION NOT NULL,
				degradation_mode       TEXT NOT NULL DEFAULT 'normal',
				health_index           DOUBLE PRECISION NOT NULL DEFAULT 100.0
			)`,
			`CREATE TABLE IF NOT EXISTS alerts (
				id           TEXT PRIMARY KEY,
				raised_at    TEXT NOT NULL,
				equipment_id TEXT NOT NULL,
				severity     TEXT NOT NULL,
				category     TEXT NOT NULL,
				variable     TEXT NOT NULL,
				value        DOUBLE PRECISION NOT NULL,
				threshold    DOUBLE PRECISION NOT NULL,
				message      TEXT NOT NULL,
				acknowledged INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_readings_eq_ts ON readings (equipment_id, recorded_at)`,
			`CREATE INDEX IF NOT EXISTS idx_alerts_eq_ts ON alerts (equipment_id, raised_at)`,
		},
		insertIgnorePrefix: "INSERT INTO",
		insertIgnoreSuffix: "ON CONFLICT (id) DO NOTHING",
		dollarParams:       true,
	},
	config.DriverMySQL: {
		driverName: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS readings (
				id                     BIGINT AUTO_INCREMENT PRIMARY KEY,
				recorded_at            VARCHAR(40) NOT NULL,
				equipment_id           VARCHAR(64) NOT NULL,
				vibration_mms          DOUBLE NOT NULL,
				bearing_temp_c         DOUBLE NOT NULL,
				hydraulic_pressure_bar DOUBLE NOT NULL,
				power_kw               DOUBLE NOT NULL,
				load_pct               DOUBLE NOT NULL,
				liner_wear_pct         DOUBLE NULL,
				seal_condition_pct     DOUBLE NULL,
				throughput_tph         DOUBLE NOT NULL,
				degradation_mode       VARCHAR(32) NOT NULL DEFAULT 'normal',
				health_index           DOUBLE NOT NULL DEFAULT 100.0,
				INDEX idx_readings_eq_ts (equipment_id, recorded_at)
			)`,
			`CREATE TABLE IF NOT EXISTS alerts (
				id           VARCHAR(64) PRIMARY KEY,
				raised_at    VARCHAR(40) NOT NULL,
				equipment_id VARCHAR(64) NOT NULL,
				severity     VARCHAR(16) NOT NULL,
				category     VARCHAR(32) NOT NULL,
				variable     VARCHAR(64) NOT NULL,
				value        DOUBLE NOT NULL,
				threshold    DOUBLE NOT NULL,
				message      TEXT NOT NULL,
				acknowledged INTEGER NOT NULL DEFAULT 0,
				INDEX idx_alerts_eq_ts (equipment_id, raised_at)
			)`,
		},
		insertIgnorePrefix: "INSERT IGNORE INTO",
	},
}

// rebind rewrites ? placeholders as $1, $2, ... for dialects that need it.
func (d dialect) rebind(query string) string {
	if !d.dollarParams {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) insertIgnore(table, columns, values string) string {
	q := d.insertIgnorePrefix + " " + table + " (" + columns + ") VALUES (" + values + ")"
	if d.insertIgnoreSuffix != "" {
		q += " " + d.insertIgnoreSuffix
	}
	return q
}
