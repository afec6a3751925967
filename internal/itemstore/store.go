package itemstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/factstore/internal/store"
)

// DriveName addresses one of the two drives.
type DriveName string

const (
	User   DriveName = "user"
	System DriveName = "system"
)

// Drives lists the drive names in merge order.
var Drives = []DriveName{User, System}

// ParseDriveName validates a drive name from user input.
func ParseDriveName(s string) (DriveName, error) {
	switch DriveName(s) {
	case User, System:
		return DriveName(s), nil
	}
	return "", fmt.Errorf("%w: %q (want user or system)", ErrUnknownDrive, s)
}

// Options configures Open.
type Options struct {
	// UserPath and SystemPath locate the drive databases. Ignored when
	// InMemory is set.
	UserPath   string
	SystemPath string

	// InMemory holds both drives in memory for the life of the Store.
	InMemory bool

	// Engine selects the SQLite driver for both drives.
	Engine store.Engine

	// Clock stamps facts written without a timestamp. Nil means SystemClock.
	Clock Clock

	// IDs generates factIds and item ids. Nil means UUIDv7Generator.
	IDs IDGenerator

	// Logger receives debug-level events. Nil means slog.Default().
	Logger *slog.Logger
}

// Store is the fact store facade over the user and system drives.
//
// A Store is safe for concurrent use.
type Store struct {
	user   *store.Drive
	system *store.Drive

	clock  Clock
	ids    IDGenerator
	logger *slog.Logger
	notify *notifier
}

// Open opens both drives. Failures wrap ErrConnection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	userPath, systemPath := opts.UserPath, opts.SystemPath
	if opts.InMemory {
		userPath, systemPath = store.MemoryPath, store.MemoryPath
	}
	if userPath == "" || systemPath == "" {
		return nil, fmt.Errorf("open store: drive path missing: %w", ErrConnection)
	}

	driveOpts := store.Options{Engine: opts.Engine, Logger: logger}

	user, err := store.Open(ctx, string(User), userPath, driveOpts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	system, err := store.Open(ctx, string(System), systemPath, driveOpts)
	if err != nil {
		user.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Store{
		user:   user,
		system: system,
		clock:  clock,
		ids:    ids,
		logger: logger,
		notify: &notifier{},
	}, nil
}

// Close closes both drives.
func (s *Store) Close() error {
	userErr := s.user.Close()
	systemErr := s.system.Close()
	if userErr != nil {
		return fmt.Errorf("close user drive: %w", userErr)
	}
	if systemErr != nil {
		return fmt.Errorf("close system drive: %w", systemErr)
	}
	return nil
}

// Drive returns the named drive, for tooling that needs the debug surface.
func (s *Store) Drive(name DriveName) (*store.Drive, error) {
	switch name {
	case User:
		return s.user, nil
	case System:
		return s.system, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDrive, name)
}

// NewID returns a fresh id from the store's generator.
func (s *Store) NewID() string {
	return s.ids.Generate()
}

// Now returns the current time from the store's clock.
func (s *Store) Now() string {
	return formatNow(s.clock)
}
