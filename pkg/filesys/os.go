package filesys

import (
	"os"
)

// OS is the Service implementation over the local filesystem.
type OS struct {
	perm os.FileMode
}

// NewOS creates a filesystem service creating files with the given
// permission bits.
func NewOS(perm os.FileMode) *OS {
	if perm == 0 {
		perm = 0644
	}
	return &OS{perm: perm}
}

func (s *OS) Open(path string) (SegmentFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, s.perm)
	if err != nil {
		return nil, err
	}
	return &osFile{f: f}, nil
}

func (s *OS) Create(path string, excl bool) (SegmentFile, error) {
	flags := os.O_RDWR | os.O_CREATE
	if excl {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, s.perm)
	if err != nil {
		return nil, err
	}
	return &osFile{f: f}, nil
}

func (s *OS) Remove(path string) error {
	return os.Remove(path)
}

func (s *OS) Exists(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !stat.IsDir(), nil
}

func (s *OS) CreateDir(dirPath string, permission os.FileMode) error {
	stat, err := os.Stat(dirPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	return os.MkdirAll(dirPath, permission)
}

// osFile adapts *os.File to SegmentFile.
type osFile struct {
	f *os.File
}

func (o *osFile) ReadAt(p []byte, off int64) (int, error) {
	return o.f.ReadAt(p, off)
}

func (o *osFile) WriteAt(p []byte, off int64) (int, error) {
	return o.f.WriteAt(p, off)
}

func (o *osFile) Sync() error {
	return o.f.Sync()
}

func (o *osFile) Truncate(length int64) error {
	return o.f.Truncate(length)
}

func (o *osFile) Size() (int64, error) {
	stat, err := o.f.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (o *osFile) Prefetch(off, length int64) error {
	return prefetch(o.f, off, length)
}

func (o *osFile) WriteBack(off, length int64) error {
	return writeBack(o.f, off, length)
}

func (o *osFile) Name() string {
	return o.f.Name()
}

func (o *osFile) Close() error {
	return o.f.Close()
}
