package sqlfx

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/go-sql-driver/mysql"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

var ErrInvalidConfig = errors.New("invalid database config")

type Config struct {
	// Driver is DriverSQLite or DriverMySQL.
	Driver string

	// Path to the SQLite database file.
	Path string

	// MySQL connection parameters.
	User     string
	Password string
	Host     string
	Name     string
}

// DSN builds the data source name for the configured driver.
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			return "", fmt.Errorf("%w: sqlite path is empty", ErrInvalidConfig)
		}

		params := url.Values{}
		params.Add("_pragma", "foreign_keys(1)")
		params.Add("_pragma", "busy_timeout(5000)")

		return "file:" + c.Path + "?" + params.Encode(), nil
	case DriverMySQL:
		if c.Host == "" || c.Name == "" {
			return "", fmt.Errorf("%w: mysql host and database are required", ErrInvalidConfig)
		}

		addr := c.Host
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, "3306")
		}

		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = addr
		cfg.DBName = c.Name

		return cfg.FormatDSN(), nil
	default:
		return "", fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, c.Driver)
	}
}
