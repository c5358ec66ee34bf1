package config

// Defaults shared by the server and the CLI commands.
const (
	// DefaultDatabasePath is the default path for the SQLite database
	DefaultDatabasePath = "./asowa.db"

	// DefaultUploadDir is where uploaded design images are written
	DefaultUploadDir = "./uploads"

	// DefaultCORSOrigin is the storefront dev server origin
	DefaultCORSOrigin = "http://localhost:8080"

	// DefaultAuditRetentionSchedule purges old audit events daily at 03:00
	DefaultAuditRetentionSchedule = "0 3 * * *"
)
