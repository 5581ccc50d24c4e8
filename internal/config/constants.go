package config

const (
	// DefaultDatabasePath is the default path for the SQLite catalog database
	DefaultDatabasePath = "./librarian.db"

	// DefaultEnvFile is loaded before reading the environment, if present
	DefaultEnvFile = ".env"
)
