// Copyright The IndexAdvisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package connection manages the SQL Server connection the scrapers share.
package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
	"go.uber.org/zap"

	"github.com/sqlhealth/indexadvisor/internal/queries"
)

// Config is everything needed to reach one SQL Server database.
type Config struct {
	Hostname string `mapstructure:"hostname"`
	Port     string `mapstructure:"port"`
	// Instance is a named instance; when set it replaces the port in the
	// connection URL.
	Instance string `mapstructure:"instance"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	EnableSSL              bool `mapstructure:"enable-ssl"`
	TrustServerCertificate bool `mapstructure:"trust-server-certificate"`

	Timeout      time.Duration `mapstructure:"timeout"`
	MaxOpenConns int           `mapstructure:"max-open-connections"`
}

// Validate checks the connection config. Partial credentials are an error:
// either both username and password are set (SQL auth) or neither is
// (integrated auth).
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("hostname is required")
	}
	if c.Port == "" && c.Instance == "" {
		return errors.New("one of port or instance is required")
	}
	if (c.Username == "") != (c.Password == "") {
		return errors.New("username and password must be set together; leave both empty for integrated authentication")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// ConnectionURL builds the sqlserver:// URL for the go-mssqldb driver.
func (c *Config) ConnectionURL() string {
	timeoutSeconds := strconv.Itoa(int(c.Timeout.Seconds()))

	query := url.Values{}
	query.Add("dial timeout", timeoutSeconds)
	query.Add("connection timeout", timeoutSeconds)
	query.Add("database", c.Database)

	if c.EnableSSL {
		query.Add("encrypt", "true")
		query.Add("TrustServerCertificate", strconv.FormatBool(c.TrustServerCertificate))
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Hostname,
		RawQuery: query.Encode(),
	}
	if c.Instance != "" {
		u.Path = c.Instance
	} else {
		u.Host = net.JoinHostPort(c.Hostname, c.Port)
	}

	return u.String()
}

// SQLConnection wraps the shared database handle. All scraper queries go
// through Query so row scanning stays in one place.
type SQLConnection struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLConnection opens and verifies a connection.
func NewSQLConnection(ctx context.Context, cfg *Config, logger *zap.Logger) (*SQLConnection, error) {
	db, err := sqlx.Open("sqlserver", cfg.ConnectionURL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	conn := &SQLConnection{db: db, logger: logger}
	if err := conn.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Hostname, err)
	}

	return conn, nil
}

// Ping verifies the connection is alive.
func (c *SQLConnection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Query runs a statement and scans all rows into dest, which must be a
// pointer to a slice of structs with db tags.
func (c *SQLConnection) Query(ctx context.Context, dest any, query string) error {
	return c.db.SelectContext(ctx, dest, query)
}

// EngineEdition reports the server's engine edition number.
func (c *SQLConnection) EngineEdition(ctx context.Context) (int, error) {
	var edition int
	if err := c.db.GetContext(ctx, &edition, queries.EngineEditionQuery); err != nil {
		return 0, fmt.Errorf("failed to detect engine edition: %w", err)
	}
	return edition, nil
}

// Close releases the database handle.
func (c *SQLConnection) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
