//go:build darwin || freebsd || linux

package dynload

import "github.com/ebitengine/purego"

type nativeLoader struct{}

func (nativeLoader) open(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
}

func (nativeLoader) symbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func (nativeLoader) close(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return purego.Dlclose(handle)
}
