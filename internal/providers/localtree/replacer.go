package localtree

import (
	"fmt"
	"path"
	"sync"

	"github.com/spf13/afero"
)

// replacer writes to a temporary sibling and renames it over the target on Close.
type replacer struct {
	fs     afero.Fs
	target string
	tmp    afero.File

	once sync.Once
	err  error
}

func newReplacer(fs afero.Fs, target string) (*replacer, error) {
	dir, name := path.Split(target)
	tmp, err := afero.TempFile(fs, dir, "."+name+".tmp-")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &replacer{fs: fs, target: target, tmp: tmp}, nil
}

func (r *replacer) Write(p []byte) (int, error) {
	return r.tmp.Write(p)
}

// Close commits the written bytes.
func (r *replacer) Close() error {
	r.once.Do(func() {
		if err := r.tmp.Sync(); err != nil {
			r.abandon()
			r.err = fmt.Errorf("sync temp file: %w", err)
			return
		}
		if err := r.tmp.Close(); err != nil {
			_ = r.fs.Remove(r.tmp.Name())
			r.err = fmt.Errorf("close temp file: %w", err)
			return
		}
		if err := r.fs.Rename(r.tmp.Name(), r.target); err != nil {
			_ = r.fs.Remove(r.tmp.Name())
			r.err = fmt.Errorf("replace %s: %w", r.target, err)
		}
	})
	return r.err
}

// Discard drops the written bytes and leaves the target untouched.
func (r *replacer) Discard() error {
	r.once.Do(r.abandon)
	return r.err
}

func (r *replacer) abandon() {
	_ = r.tmp.Close()
	r.err = r.fs.Remove(r.tmp.Name())
}
