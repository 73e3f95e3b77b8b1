package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	paybridge "github.com/goliatone/go-paybridge"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	// ActivityTable is created by the first migration of every dialect.
	ActivityTable = "paybridge_activity_entries"

	migrationsDir = "data/sql/migrations"
)

// DialectForDriver maps a database/sql driver name to its migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// DialectFS returns the migration files for dialect. Postgres files live at
// the root of data/sql/migrations and sqlite files in its sqlite directory.
// A nil root uses the embedded migrations.
func DialectFS(dialect string, root fs.FS) (fs.FS, error) {
	if root == nil {
		root = paybridge.GetMigrationsFS()
	}
	dir := migrationsDir
	switch dialect {
	case DialectPostgres:
	case DialectSQLite:
		dir += "/sqlite"
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	sub, err := fs.Sub(root, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s filesystem: %w", dialect, err)
	}
	if err := requireActivitySchema(sub, dialect); err != nil {
		return nil, err
	}
	return sub, nil
}

// Register hands the migrations for dialect to register, typically a
// persistence client's RegisterSQLMigrations.
func Register(dialect string, register func(fs.FS)) error {
	if register == nil {
		return fmt.Errorf("migrations: register function is required")
	}
	fsys, err := DialectFS(dialect, nil)
	if err != nil {
		return err
	}
	register(fsys)
	return nil
}

func requireActivitySchema(fsys fs.FS, dialect string) error {
	matches, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: glob %s: %w", dialect, err)
	}
	for _, name := range matches {
		content, readErr := fs.ReadFile(fsys, name)
		if readErr != nil {
			return fmt.Errorf("migrations: read %s/%s: %w", dialect, name, readErr)
		}
		if strings.Contains(string(content), ActivityTable) {
			return nil
		}
	}
	return fmt.Errorf("migrations: %s has no migration creating %s", dialect, ActivityTable)
}
