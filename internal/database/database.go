package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open creates and configures a connection pool for the given driver
// ("mysql" in production, "sqlite3" for local runs and tests) and pings it.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	// 1. Open a new connection pool.
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// 2. Configure the connection pool settings.
	if driver == "sqlite3" {
		// A single connection keeps ":memory:" databases alive and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// 3. Ping the database to verify the connection.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates the tables the service needs if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts := mysqlSchema
	if driver == "sqlite3" {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Schema returns the DDL for driver, for printing by the importer.
func Schema(driver string) []string {
	if driver == "sqlite3" {
		return sqliteSchema
	}
	return mysqlSchema
}

// nodes keeps one row per (node, detail): several rows may share node_id.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id INT AUTO_INCREMENT PRIMARY KEY,
		node_id INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		parent_id INT NULL,
		details TEXT NULL,
		image VARCHAR(512) NULL,
		img_url TEXT NULL,
		attachment_url VARCHAR(512) NULL,
		attachment_name VARCHAR(255) NULL,
		is_premium TINYINT(1) NOT NULL DEFAULT 0,
		create_user_id INT NULL,
		parent_mindMap_id INT NULL,
		INDEX idx_nodes_node_id (node_id)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_premium TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		node_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		parent_id INTEGER NULL,
		details TEXT NULL,
		image TEXT NULL,
		img_url TEXT NULL,
		attachment_url TEXT NULL,
		attachment_name TEXT NULL,
		is_premium INTEGER NOT NULL DEFAULT 0,
		create_user_id INTEGER NULL,
		parent_mindMap_id INTEGER NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_node_id ON nodes (node_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_premium INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}
