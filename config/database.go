package config

import (
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Drivers lists the drivers in the order the connect form cycles them.
var Drivers = []string{DriverMySQL, DriverPostgres, DriverSQLite}

// Database describes one database to connect to. For sqlite, Name is
// the database file path and the network fields are ignored.
type Database struct {
	Driver     string `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	Host       string `mapstructure:"host" validate:"required_unless=Driver sqlite"`
	Port       int    `mapstructure:"port" validate:"required_unless=Driver sqlite,gte=0,max=65535"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name" validate:"required"`
	SSLMode    string `mapstructure:"ssl_mode"`
	SampleRows int    `mapstructure:"sample_rows" validate:"gte=0"`
}

// DefaultPort returns the conventional port for a network driver, or 0.
func DefaultPort(driver string) int {
	switch driver {
	case DriverMySQL:
		return 3306
	case DriverPostgres:
		return 5432
	default:
		return 0
	}
}

// DSN builds the driver-specific connection string.
// When SSH tunnel is active, the caller should override Host/Port
// with the local tunnel endpoint.
func (d Database) DSN() string {
	switch d.Driver {
	case DriverSQLite:
		return d.Name
	case DriverPostgres:
		parts := []string{
			"host=" + pgQuote(d.Host),
			"port=" + strconv.Itoa(d.Port),
			"user=" + pgQuote(d.User),
			"password=" + pgQuote(d.Password),
			"dbname=" + pgQuote(d.Name),
		}
		if d.SSLMode != "" {
			parts = append(parts, "sslmode="+pgQuote(d.SSLMode))
		}
		return strings.Join(parts, " ")
	default:
		cfg := mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		cfg.DBName = d.Name
		return cfg.FormatDSN()
	}
}

// Address is a password-free description of the target, for display
// and logs.
func (d Database) Address() string {
	if d.Driver == DriverSQLite {
		return "sqlite:" + d.Name
	}
	target := net.JoinHostPort(d.Host, strconv.Itoa(d.Port)) + "/" + d.Name
	if d.User != "" {
		target = d.User + "@" + target
	}
	return d.Driver + "://" + target
}

// pgQuote quotes a keyword/value DSN value when it is empty or contains
// characters libpq treats specially.
func pgQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
