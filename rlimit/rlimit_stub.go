//go:build freebsd || windows
// +build freebsd windows

package rlimit

// SetRLimit is a no-op here, the platform default is left alone.
func SetRLimit(required uint64) (uint64, error) {
	return required, nil
}
