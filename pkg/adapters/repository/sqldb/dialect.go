package sqldb

import (
	"database/sql"
	"strconv"
	"strings"
)

const (
	driverSQLite   = "sqlite"
	driverLibSQL   = "libsql"
	driverPostgres = "postgres"
)

type dialect struct {
	driver string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
	schema   string
}

// dialectFor picks the driver from the DATABASE_URL scheme, defaulting to local SQLite.
func dialectFor(dbURL string) dialect {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return dialectForDriver(driverPostgres)
	case strings.Contains(dbURL, "libsql://"), strings.Contains(dbURL, "wss://"):
		return dialectForDriver(driverLibSQL)
	default:
		return dialectForDriver(driverSQLite)
	}
}

func dialectForDriver(driver string) dialect {
	switch driver {
	case driverPostgres:
		return dialect{driver: driverPostgres, numbered: true, schema: postgresSchema}
	case driverLibSQL:
		return dialect{driver: driverLibSQL, schema: sqliteSchema}
	default:
		return dialect{driver: driverSQLite, schema: sqliteSchema}
	}
}

// rebind rewrites ? placeholders for drivers that want $n.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isInMemory(dbURL string) bool {
	return strings.Contains(dbURL, ":memory:") || strings.Contains(dbURL, "mode=memory")
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS campaigns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tracking_id TEXT NOT NULL UNIQUE,
		target_url TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tracked_hits (
		id TEXT PRIMARY KEY,
		tracking_id TEXT NOT NULL,
		campaign_id INTEGER,
		ip_address TEXT NOT NULL,
		user_agent TEXT,
		referrer TEXT,
		headers TEXT NOT NULL DEFAULT '{}',
		method TEXT NOT NULL DEFAULT 'GET',
		query_params TEXT NOT NULL DEFAULT '{}',
		country TEXT,
		city TEXT,
		region TEXT,
		isp TEXT,
		latitude REAL,
		longitude REAL,
		captured_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tracked_hits_tracking_id ON tracked_hits(tracking_id, captured_at DESC);
	CREATE INDEX IF NOT EXISTS idx_tracked_hits_campaign_id ON tracked_hits(campaign_id);
	`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS campaigns (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tracking_id TEXT NOT NULL UNIQUE,
		target_url TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tracked_hits (
		id VARCHAR(36) PRIMARY KEY,
		tracking_id TEXT NOT NULL,
		campaign_id BIGINT,
		ip_address TEXT NOT NULL,
		user_agent TEXT,
		referrer TEXT,
		headers TEXT NOT NULL DEFAULT '{}',
		method TEXT NOT NULL DEFAULT 'GET',
		query_params TEXT NOT NULL DEFAULT '{}',
		country TEXT,
		city TEXT,
		region TEXT,
		isp TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		captured_at BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tracked_hits_tracking_id ON tracked_hits(tracking_id, captured_at DESC);
	CREATE INDEX IF NOT EXISTS idx_tracked_hits_campaign_id ON tracked_hits(campaign_id);
	`

func migrate(db *sql.DB, d dialect) error {
	_, err := db.Exec(d.schema)
	return err
}
