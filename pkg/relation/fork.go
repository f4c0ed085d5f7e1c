package relation

import "fmt"

// Fork identifies one of the independent logical block sequences that make up
// a relation's storage. Each fork has its own size and its own segment files.
type Fork uint8

const (
	// ForkMain holds the relation's primary data blocks.
	ForkMain Fork = iota

	// ForkFSM holds the free-space map.
	ForkFSM

	// ForkVisibility holds the visibility map.
	ForkVisibility

	// ForkInit holds the initialization fork.
	ForkInit
)

// MaxFork is the highest valid fork value; per-fork arrays are sized
// MaxFork+1.
const MaxFork = ForkInit

// forkSuffixes maps each fork to the suffix appended to segment file names.
// The main fork uses the bare relation file number.
var forkSuffixes = [MaxFork + 1]string{"", "_fsm", "_vm", "_init"}

var forkNames = [MaxFork + 1]string{"main", "fsm", "vm", "init"}

// Valid reports whether f is a known fork kind.
func (f Fork) Valid() bool {
	return f <= MaxFork
}

// Suffix returns the file name suffix for the fork ("" for the main fork).
func (f Fork) Suffix() string {
	return forkSuffixes[f]
}

func (f Fork) String() string {
	if !f.Valid() {
		return fmt.Sprintf("fork(%d)", uint8(f))
	}
	return forkNames[f]
}

// ParseFork maps a fork name ("main", "fsm", "vm", "init") back to its Fork
// value.
func ParseFork(name string) (Fork, error) {
	for i, n := range forkNames {
		if n == name {
			return Fork(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fork name %q", name)
}
