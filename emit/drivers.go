package emit

import (
	// Blank-imported so the connectors manifest's driver names
	// (spec §4.7: "Open ... as MySQL/Postgres/SQLite") name real,
	// registered database/sql drivers rather than aspirational strings.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// driverModulePath maps a connector name from an Open statement to the
// database/sql driver name registered by this file's blank imports.
func driverModulePath(connector string) (string, bool) {
	switch connector {
	case "MySQL":
		return "mysql", true
	case "Postgres":
		return "postgres", true
	case "SQLite":
		return "sqlite", true
	default:
		return "", false
	}
}
