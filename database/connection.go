package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	DBName   string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", c.User, c.Password, c.Host, c.DBName)
}

type Connection struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewConnection(config DatabaseConfig, logger zerolog.Logger) (*Connection, error) {
	db, err := sql.Open("mysql", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	conn := Wrap(db, logger)
	if err := conn.ensureConnection(); err != nil {
		db.Close()
		return nil, err
	}
	return conn, nil
}

// Wrap adopts an already opened pool.
func Wrap(db *sql.DB, logger zerolog.Logger) *Connection {
	return &Connection{db: db, logger: logger.With().Str("component", "database").Logger()}
}

func (c *Connection) ensureConnection() error {
	for retries := 0; retries < 3; retries++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := c.db.PingContext(ctx)
		cancel()

		if err == nil {
			return nil
		}

		c.logger.Warn().Err(err).Int("attempt", retries+1).Msg("Database ping failed")
		time.Sleep(time.Second * time.Duration(retries+1))
	}
	return fmt.Errorf("failed to establish database connection after 3 attempts")
}

func (c *Connection) Close() error {
	return c.db.Close()
}

func (c *Connection) Ping() error {
	return c.ensureConnection()
}

func (c *Connection) GetDB() *sql.DB {
	return c.db
}
