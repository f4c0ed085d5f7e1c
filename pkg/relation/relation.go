// Package relation defines the physical identity of a relation's storage: the
// locator triple naming it on disk, the backend scope tag, the fork
// enumeration and the segment file naming convention.
package relation

import "fmt"

// BlockNumber addresses one fixed-size block within a fork's logical block
// sequence.
type BlockNumber uint32

// InvalidBlockNumber is the "unknown" sentinel for cached sizes.
const InvalidBlockNumber BlockNumber = 0xFFFFFFFF

// Valid reports whether the block number is not the sentinel.
func (b BlockNumber) Valid() bool {
	return b != InvalidBlockNumber
}

// BackendID distinguishes session-private (temporary) relation storage from
// shared storage.
type BackendID int32

// InvalidBackendID marks a relation as shared rather than session-private.
const InvalidBackendID BackendID = -1

// Locator is the physical identifier of a relation: which tablespace and
// database it lives in and its relation file number. Immutable once assigned.
type Locator struct {
	Tablespace uint32 // Tablespace identifier.
	Database   uint32 // Database identifier.
	Relation   uint32 // Relation file number: the base of every segment file name.
}

func (l Locator) String() string {
	return fmt.Sprintf("%d/%d/%d", l.Tablespace, l.Database, l.Relation)
}

// LocatorBackend pairs a Locator with its backend scope. It is comparable and
// serves as the handle cache lookup key.
type LocatorBackend struct {
	Locator Locator
	Backend BackendID
}

// IsTemp reports whether the relation is session-private.
func (lb LocatorBackend) IsTemp() bool {
	return lb.Backend != InvalidBackendID
}

func (lb LocatorBackend) String() string {
	if lb.IsTemp() {
		return fmt.Sprintf("%s (backend %d)", lb.Locator, lb.Backend)
	}
	return lb.Locator.String()
}
