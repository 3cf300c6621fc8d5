package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Supported record store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig configures the record store and its connection pool.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres, sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`

	// Path is the database file when Driver is sqlite.
	Path string `yaml:"path"`

	PoolMin int `yaml:"pool_min"`
	PoolMax int `yaml:"pool_max"`

	// Enabled turns persistence off entirely when false.
	Enabled bool   `yaml:"enabled"`
	Timeout string `yaml:"timeout"`
}

// DSN returns the postgres connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password == "" {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// Validate checks driver and pool bounds.
func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("invalid database driver: %s (valid: %s, %s)", d.Driver, DriverPostgres, DriverSQLite)
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1, got %d", d.PoolMax)
	}
	if d.PoolMin < 0 || d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be between 0 and %d, got %d", d.PoolMax, d.PoolMin)
	}
	return nil
}
