// Package config provides CLI configuration loading for lineal.
// Configuration is merged from defaults, a lineal.yaml file, LINEAL_
// environment variables, and command-line flags, in increasing priority.
package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Storage backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Defaults.
const (
	DefaultPort      = 8080
	DefaultBackend   = BackendMemory
	DefaultStateFile = "lineal.db"
	DefaultDialect   = "ansi"
	DefaultOutput    = "table"
)

// StoreConfig selects and parameterizes the graph storage backend.
type StoreConfig struct {
	// Backend is one of memory, sqlite, postgres.
	Backend string `koanf:"backend"`
	// Path is the SQLite database file (sqlite backend only).
	Path string `koanf:"path"`
	// DSN is the connection string (postgres backend only).
	DSN string `koanf:"dsn"`
}

// Validate checks the store configuration.
func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Backend,
			validation.Required,
			validation.In(BackendMemory, BackendSQLite, BackendPostgres)),
		validation.Field(&s.Path,
			validation.Required.When(s.Backend == BackendSQLite)),
		validation.Field(&s.DSN,
			validation.Required.When(s.Backend == BackendPostgres)),
	)
}

// TraversalConfig bounds lineage traversals.
type TraversalConfig struct {
	// MaxDepth is the hard depth ceiling. Zero means the engine default.
	MaxDepth int `koanf:"max_depth"`
	// MaxNodes is the visited-node budget. Zero means the engine default.
	MaxNodes int `koanf:"max_nodes"`
}

// Validate checks the traversal bounds.
func (t TraversalConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.MaxDepth, validation.Min(0)),
		validation.Field(&t.MaxNodes, validation.Min(0)),
	)
}

// Config is the full CLI configuration.
type Config struct {
	// Port is the HTTP listen port for serve.
	Port int `koanf:"port"`
	// Store selects the graph storage backend.
	Store StoreConfig `koanf:"store"`
	// Traversal bounds lineage queries.
	Traversal TraversalConfig `koanf:"traversal"`
	// Dialect is the SQL dialect hint passed to the extractor.
	Dialect string `koanf:"dialect"`
	// ExtractTimeout bounds dependency extraction during registration.
	ExtractTimeout time.Duration `koanf:"extract_timeout"`
	// Manifest is a resource manifest applied at startup.
	Manifest string `koanf:"manifest"`
	// Watch re-applies the manifest when it changes on disk.
	Watch bool `koanf:"watch"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
	// Output is the CLI output format (table or json).
	Output string `koanf:"output"`
}

// Validate checks the full configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Store),
		validation.Field(&c.Traversal),
		validation.Field(&c.Output, validation.In("table", "json")),
	)
}
