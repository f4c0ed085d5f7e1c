package relation

import (
	"fmt"
	"path/filepath"
)

// DirPath returns the directory that holds every segment file of the
// relation: <dataDir>/<tablespace>/<database>.
func DirPath(dataDir string, lb LocatorBackend) string {
	return filepath.Join(
		dataDir,
		fmt.Sprintf("%d", lb.Locator.Tablespace),
		fmt.Sprintf("%d", lb.Locator.Database),
	)
}

// FileName returns the bare segment file name for one fork segment. The first
// segment of the main fork is the relation file number itself; other forks
// append their suffix; segments past the first append ".N" starting at N=1.
// Session-private relations carry a "t<backend>_" prefix.
func FileName(lb LocatorBackend, fork Fork, segno uint32) string {
	name := fmt.Sprintf("%d", lb.Locator.Relation)
	if lb.IsTemp() {
		name = fmt.Sprintf("t%d_%d", lb.Backend, lb.Locator.Relation)
	}

	name += fork.Suffix()
	if segno > 0 {
		name = fmt.Sprintf("%s.%d", name, segno)
	}

	return name
}

// FilePath returns the full path of one fork segment under dataDir.
func FilePath(dataDir string, lb LocatorBackend, fork Fork, segno uint32) string {
	return filepath.Join(DirPath(dataDir, lb), FileName(lb, fork, segno))
}
