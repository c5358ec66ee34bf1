// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL) and migrations
//	├── errors.go        # Driver-independent constraint error detection
//	├── accounts/        # Credential store for user accounts
//	├── audit/           # Security audit trail
//	└── designs/         # Design catalogue CRUD
//
// # Backends
//
// SQLite is the default (DATABASE_PATH). Setting DATABASE_URL switches to
// PostgreSQL through the pgx-based gorm driver. Uniqueness is always enforced
// by the database; repositories translate constraint errors into the sentinel
// errors from the entities package.
//
// # Usage
//
//	db, err := database.NewDatabase(cfg.Database, log)
//	accountsRepo := accounts.NewRepository(db.DB)
//	designsRepo := designs.NewRepository(db.DB)
package database
