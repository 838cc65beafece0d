// Package config collects server settings from defaults, a .env file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMemory   = "memory"
)

type Config struct {
	Addr string

	DBDriver   string
	DBURL      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string
	// DBConnectAttempts bounds the startup connection retries.
	DBConnectAttempts int

	CORSOrigins []string

	LogLevel  string
	LogFormat string
}

// LoadDotEnv reads .env into the process environment if the file exists.
// Variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Flags are shared by every command that touches storage or serves HTTP.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address", Sources: cli.EnvVars("ADDR")},
		&cli.StringFlag{Name: "db-driver", Value: DriverSQLite, Usage: "storage driver: postgres, sqlite3 or memory", Sources: cli.EnvVars("DB_DRIVER")},
		&cli.StringFlag{Name: "db-url", Usage: "full database DSN (overrides the DB_* parts)", Sources: cli.EnvVars("DB_URL")},
		&cli.StringFlag{Name: "db-host", Value: "localhost", Sources: cli.EnvVars("DB_HOST")},
		&cli.StringFlag{Name: "db-port", Value: "5432", Sources: cli.EnvVars("DB_PORT")},
		&cli.StringFlag{Name: "db-user", Value: "postgres", Sources: cli.EnvVars("DB_USER")},
		&cli.StringFlag{Name: "db-password", Sources: cli.EnvVars("DB_PASSWORD")},
		&cli.StringFlag{Name: "db-name", Value: "boardgame", Sources: cli.EnvVars("DB_NAME")},
		&cli.StringFlag{Name: "db-path", Value: "/tmp/game.db", Usage: "SQLite database file", Sources: cli.EnvVars("DB_PATH")},
		&cli.IntFlag{Name: "db-connect-attempts", Value: 5, Sources: cli.EnvVars("DB_CONNECT_ATTEMPTS")},
		&cli.StringFlag{Name: "cors-origins", Value: "http://localhost:3000,http://localhost:8080", Usage: "comma separated allowed origins", Sources: cli.EnvVars("CORS_ORIGINS")},
		&cli.StringFlag{Name: "log-level", Value: "info", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.StringFlag{Name: "log-format", Value: "json", Usage: "json or console", Sources: cli.EnvVars("LOG_FORMAT")},
	}
}

// FromCommand reads the values of Flags from cmd.
func FromCommand(cmd *cli.Command) Config {
	return Config{
		Addr:              cmd.String("addr"),
		DBDriver:          cmd.String("db-driver"),
		DBURL:             cmd.String("db-url"),
		DBHost:            cmd.String("db-host"),
		DBPort:            cmd.String("db-port"),
		DBUser:            cmd.String("db-user"),
		DBPassword:        cmd.String("db-password"),
		DBName:            cmd.String("db-name"),
		DBPath:            cmd.String("db-path"),
		DBConnectAttempts: int(cmd.Int("db-connect-attempts")),
		CORSOrigins:       splitList(cmd.String("cors-origins")),
		LogLevel:          cmd.String("log-level"),
		LogFormat:         cmd.String("log-format"),
	}
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown db driver %q", c.DBDriver)
	}
	if c.DBDriver == DriverSQLite && c.DBPath == "" && c.DBURL == "" {
		return fmt.Errorf("sqlite3 needs db-path or db-url")
	}
	if c.DBConnectAttempts < 1 {
		return fmt.Errorf("db-connect-attempts must be at least 1")
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	switch c.DBDriver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	case DriverSQLite:
		return SQLiteDSN(c.DBPath)
	}
	return ""
}

// SQLiteDSN builds a go-sqlite3 DSN with foreign keys on and write-locking
// transactions, so two moves on one game cannot interleave.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_txlock", "immediate")
	q.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + q.Encode()
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var zc zap.Config
	if c.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
