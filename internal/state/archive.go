package state

import "github.com/wordbound/wordbound-server/internal"

// Archiver is an optional write-through sink for durable copies of users and
// completed matches. Writes are best-effort: failures are logged by the
// caller and never fail the primary operation. A nil Archiver disables
// persistence.
type Archiver interface {
	ArchiveUser(internal.User) error
	ArchiveMatch(internal.Match) error
}
