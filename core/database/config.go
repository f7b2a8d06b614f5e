package database

// Config holds configuration for the library index database.
type Config struct {
	// Driver selects the backing engine (sqlite or mysql).
	// SQLite is the default: the index is a local derived cache and an
	// embedded file keeps it next to the library it mirrors.
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Path is the SQLite database file. Ignored for mysql.
	Path string `mapstructure:"path" default:"library.db"`
	// Host is the database host (mysql only).
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port (mysql only).
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user (mysql only).
	User string `mapstructure:"user" default:"root"`
	// Password is the database password (mysql only).
	Password string `mapstructure:"password" default:""`
	// Name is the database name (mysql only).
	Name string `mapstructure:"name" default:"roster"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)
