//go:build !unix && !windows

package store

import "os"

// Platforms without advisory locks rely on the in-process mutex alone.
func tryLockFile(*os.File) (bool, error) { return true, nil }

func unlockFile(*os.File) error { return nil }
