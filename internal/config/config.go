package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Strings for identifiers and secrets, ints for
// durations, costs and capacities.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	StoreDriver    string // snapshot backend: "file" or "mysql"
	StorePath      string // path of the JSON snapshot document (file driver)
	DBUser         string // database username (mysql driver)
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	AdminSecret    string // shared secret gating the administrative surface
	BcryptCost     int    // bcrypt cost for hashing the admin secret
	LogCapacity    int    // maximum retained event log entries
	IdleTimeoutMin int    // minutes without a heartbeat before a session times out; 0 disables
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The mysql database
// variables are only required when STORE_DRIVER selects that backend.
func Load() Config {
	cfg := Config{
		Env:          must("APP_ENV"),                     // environment (dev/test/prod)
		Port:         must("APP_PORT"),                    // port to bind the HTTP server
		StoreDriver:  getenvDefault("STORE_DRIVER", "file"),
		StorePath:    getenvDefault("STORE_PATH", "data/lab.json"),
		JWTSecret:    must("JWT_SECRET"),                  // secret used for signing JWTs
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),     // TTL for access tokens in minutes
		AdminSecret:  must("ADMIN_SECRET"),                // shared secret for the admin gate
		BcryptCost:   mustInt("BCRYPT_COST"),              // bcrypt cost factor
		LogCapacity:  intDefault("LOG_CAPACITY", 100),     // bounded event log size
		IdleTimeoutMin: intDefault("SESSION_IDLE_TIMEOUT_MIN", 30),
	}
	if cfg.StoreDriver == "mysql" {
		cfg.DBUser = must("DB_USER") // database user
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST") // database host
		cfg.DBPort = must("DB_PORT") // database port
		cfg.DBName = must("DB_NAME") // database name
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// getenvDefault returns the value of key or def when unset/empty.
func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intDefault returns the integer value of key or def when unset or invalid.
func intDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
