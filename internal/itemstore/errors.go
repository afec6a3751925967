package itemstore

import (
	"errors"

	"github.com/roach88/factstore/internal/queryir"
	"github.com/roach88/factstore/internal/store"
)

// Error kinds surfaced by the facade. All are matched with errors.Is.
var (
	ErrConnection            = store.ErrConnection
	ErrWrite                 = store.ErrWrite
	ErrNotFound              = store.ErrNotFound
	ErrUnsupportedQueryShape = queryir.ErrUnsupportedQueryShape

	// ErrUnknownDrive is returned for a drive name other than user or system.
	ErrUnknownDrive = errors.New("unknown drive")

	// ErrInvalidEdge is returned for a relationship without both endpoints.
	ErrInvalidEdge = errors.New("invalid relationship edge")
)
