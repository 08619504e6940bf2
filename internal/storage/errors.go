package storage

import "drivecert/pkg/platform/sentinel"

// ErrNotFound keeps storage-level 404s consistent across the in-memory and
// postgres implementations. Services translate it into a coded domain error.
var ErrNotFound = sentinel.ErrNotFound
