package securezip

import (
	"io/fs"
	"os"
	"time"

	"github.com/absfs/absfs"
)

// osFS is an absfs.FileSystem backed directly by the operating system.
// It is the default filesystem for a SecureZipper; tests substitute
// memfs through Config.FS.
type osFS struct{}

// NewOSFS returns an absfs.FileSystem that delegates to the os package.
func NewOSFS() absfs.FileSystem {
	return &osFS{}
}

func (*osFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	return os.OpenFile(name, flag, perm)
}

func (fs *osFS) Open(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

func (fs *osFS) Create(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (*osFS) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(name, perm)
}

func (*osFS) MkdirAll(name string, perm os.FileMode) error {
	return os.MkdirAll(name, perm)
}

func (*osFS) Remove(name string) error {
	return os.Remove(name)
}

func (*osFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (*osFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (*osFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (*osFS) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

func (*osFS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

func (*osFS) Chown(name string, uid, gid int) error {
	return os.Chown(name, uid, gid)
}

func (*osFS) Truncate(name string, size int64) error {
	return os.Truncate(name, size)
}

func (*osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (*osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (*osFS) Sub(dir string) (fs.FS, error) {
	return os.DirFS(dir), nil
}

func (*osFS) Separator() uint8 {
	return os.PathSeparator
}

func (*osFS) ListSeparator() uint8 {
	return os.PathListSeparator
}

func (*osFS) Chdir(dir string) error {
	return os.Chdir(dir)
}

func (*osFS) Getwd() (string, error) {
	return os.Getwd()
}

func (*osFS) TempDir() string {
	return os.TempDir()
}
