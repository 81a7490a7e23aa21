package manifests

import (
	"os"
	"path/filepath"
)

const tempPattern = ".scriptdex-*"

// replaceFile swaps path for data in one rename, creating its directory
// first. Readers of path never observe a half written file. Every failure
// is reported as ErrIO and the temp file is removed.
func replaceFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return wrapIO("create "+filepath.Base(dir)+" dir", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return wrapIO("stage "+filepath.Base(path), err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return wrapIO("stage "+filepath.Base(path), err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return wrapIO("stage "+filepath.Base(path), err)
	}
	if err = tmp.Sync(); err != nil {
		return wrapIO("flush "+filepath.Base(path), err)
	}
	if err = tmp.Close(); err != nil {
		return wrapIO("flush "+filepath.Base(path), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return wrapIO("replace "+filepath.Base(path), err)
	}

	// Persist the rename itself; a failure here leaves a valid file behind.
	if d, derr := os.Open(dir); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
