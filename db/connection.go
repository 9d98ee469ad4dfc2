// Package db manages the database connection used to answer questions.
//
// Design decisions:
//   - database/sql with one driver per dialect (go-sql-driver/mysql,
//     pgx stdlib, modernc sqlite), so the rest of the application only
//     sees DescribeSchema and Execute.
//   - Dialect differences (catalog queries, identifier quoting) live in
//     the dialect type; everything else is shared.
//   - SSH tunnel integration is handled transparently: if SSH is enabled,
//     we first establish the tunnel, then connect to the local endpoint.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/DachengChen/chatdb/config"
	"github.com/DachengChen/chatdb/ssh"
)

// DB wraps a database/sql handle and optional SSH tunnel.
type DB struct {
	conn       *sql.DB
	dialect    dialect
	sampleRows int
	tunnel     *ssh.Tunnel
}

// Connect opens and pings the database described by desc, optionally
// through an SSH tunnel.
func Connect(ctx context.Context, desc config.Database, sshCfg config.SSHConfig, logger *slog.Logger) (*DB, error) {
	dl, err := dialectFor(desc.Driver)
	if err != nil {
		return nil, err
	}
	d := &DB{dialect: dl, sampleRows: desc.SampleRows}

	if sshCfg.Enabled && desc.Driver != config.DriverSQLite {
		tunnel, err := ssh.NewTunnel(sshCfg, desc.Host, desc.Port, logger)
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel: %w", err)
		}
		local, err := tunnel.Start(ctx)
		if err != nil {
			return nil, fmt.Errorf("ssh tunnel start: %w", err)
		}
		d.tunnel = tunnel

		// Override connection target with local tunnel endpoint
		desc.Host = local.Host
		desc.Port = local.Port
	}

	conn, err := sql.Open(dl.driverName(), desc.DSN())
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("%s open: %w", desc.Driver, err)
	}
	if desc.Driver == config.DriverSQLite {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		d.Close()
		return nil, fmt.Errorf("%s ping: %w", desc.Driver, err)
	}

	d.conn = conn
	return d, nil
}

// newDB wraps an already open handle. Used by tests with sqlmock.
func newDB(conn *sql.DB, driver string, sampleRows int) (*DB, error) {
	dl, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &DB{conn: conn, dialect: dl, sampleRows: sampleRows}, nil
}

// Dialect returns the display name of the SQL dialect, e.g. "MySQL".
func (d *DB) Dialect() string {
	return d.dialect.name()
}

// Close shuts down the handle and SSH tunnel.
func (d *DB) Close() error {
	var err error
	if d.conn != nil {
		err = d.conn.Close()
	}
	if d.tunnel != nil {
		d.tunnel.Stop()
	}
	return err
}
