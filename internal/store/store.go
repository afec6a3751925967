package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/roach88/factstore/internal/queryir"
	"github.com/roach88/factstore/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - facts table with timestamp, item/attribute/timestamp and item indexes
const currentSchemaVersion = 1

// MemoryPath opens a drive held entirely in memory.
const MemoryPath = ":memory:"

// Engine names a database/sql driver.
type Engine string

const (
	// EngineCGO is github.com/mattn/go-sqlite3.
	EngineCGO Engine = "sqlite3"

	// EnginePureGo is modernc.org/sqlite.
	EnginePureGo Engine = "sqlite"
)

// Valid reports whether e names a registered engine.
func (e Engine) Valid() bool {
	return e == EngineCGO || e == EnginePureGo
}

// Options configures a drive.
type Options struct {
	// Engine selects the SQLite driver. Empty means EngineCGO.
	Engine Engine

	// Logger receives debug-level drive events. Nil means slog.Default().
	Logger *slog.Logger
}

// Drive is one independently opened partition of facts.
type Drive struct {
	name   string
	path   string
	engine Engine
	db     *sql.DB
	logger *slog.Logger

	mu     sync.Mutex // serializes prepared statement use
	closed bool
	insert *sql.Stmt
	remove *sql.Stmt
	after  *sql.Stmt
	last   *sql.Stmt
	stmts  map[queryir.Shape]*sql.Stmt
}

// Open creates or opens the drive database at path and prepares its
// statements. path may be MemoryPath.
//
// The database is configured with:
//   - WAL mode for on-disk files
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Failures wrap ErrConnection.
func Open(ctx context.Context, name, path string, opts Options) (*Drive, error) {
	engine := opts.Engine
	if engine == "" {
		engine = EngineCGO
	}
	if !engine.Valid() {
		return nil, fmt.Errorf("open drive %s: unknown engine %q: %w", name, engine, ErrConnection)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(string(engine), path)
	if err != nil {
		return nil, fmt.Errorf("open drive %s: %w: %w", name, ErrConnection, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect drive %s: %w: %w", name, ErrConnection, err)
	}

	// One connection: an in-memory database lives only as long as its
	// connection, and SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db, path == MemoryPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure drive %s: %w: %w", name, ErrConnection, err)
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema for drive %s: %w: %w", name, ErrConnection, err)
	}

	d := &Drive{
		name:   name,
		path:   path,
		engine: engine,
		db:     db,
		logger: logger.With("drive", name),
		stmts:  make(map[queryir.Shape]*sql.Stmt, len(queryir.Shapes)),
	}
	if err := d.prepare(ctx); err != nil {
		d.closeStatements()
		db.Close()
		return nil, fmt.Errorf("prepare drive %s: %w: %w", name, ErrConnection, err)
	}

	d.logger.Debug("drive opened", "path", path, "engine", string(engine))
	return d, nil
}

// prepare compiles one statement per shape plus the insert, delete and
// ordinal statements.
func (d *Drive) prepare(ctx context.Context) error {
	compiler := querysql.NewSQLCompiler()

	var err error
	if d.insert, err = d.db.PrepareContext(ctx, compiler.CompileInsert()); err != nil {
		return fmt.Errorf("insert statement: %w", err)
	}
	if d.remove, err = d.db.PrepareContext(ctx, compiler.CompileDeleteOrdinal()); err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	if d.after, err = d.db.PrepareContext(ctx, compiler.CompileAfterOrdinal()); err != nil {
		return fmt.Errorf("after statement: %w", err)
	}
	if d.last, err = d.db.PrepareContext(ctx, compiler.CompileLastOrdinal()); err != nil {
		return fmt.Errorf("last ordinal statement: %w", err)
	}

	for _, shape := range queryir.Shapes {
		text, err := compiler.CompileShape(shape)
		if err != nil {
			return err
		}
		stmt, err := d.db.PrepareContext(ctx, text)
		if err != nil {
			return fmt.Errorf("%s statement: %w", shape, err)
		}
		d.stmts[shape] = stmt
	}
	return nil
}

// Name returns the logical drive name.
func (d *Drive) Name() string {
	return d.name
}

// Path returns the database path, or MemoryPath.
func (d *Drive) Path() string {
	return d.path
}

// Engine returns the SQLite driver in use.
func (d *Drive) Engine() Engine {
	return d.engine
}

// InMemory reports whether the drive has no backing file.
func (d *Drive) InMemory() bool {
	return d.path == MemoryPath
}

// Close releases the prepared statements and the database.
// Calling Close more than once is safe.
func (d *Drive) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.closeStatements()
	return d.db.Close()
}

func (d *Drive) closeStatements() {
	for _, stmt := range []*sql.Stmt{d.insert, d.remove, d.after, d.last} {
		if stmt != nil {
			stmt.Close()
		}
	}
	for _, stmt := range d.stmts {
		stmt.Close()
	}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB, inMemory bool) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	if !inMemory {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates the table and indexes if they don't exist and stamps
// the schema version. This function is idempotent.
func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if version < currentSchemaVersion {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (d *Drive) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := d.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
