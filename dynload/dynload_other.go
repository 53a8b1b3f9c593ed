//go:build !darwin && !freebsd && !linux && !windows

package dynload

type nativeLoader struct{}

func (nativeLoader) open(string) (uintptr, error) { return 0, ErrUnsupportedPlatform }

func (nativeLoader) symbol(uintptr, string) (uintptr, error) { return 0, ErrUnsupportedPlatform }

func (nativeLoader) close(uintptr) error { return nil }
