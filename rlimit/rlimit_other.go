//go:build !freebsd && !windows
// +build !freebsd,!windows

package rlimit

import (
	"fmt"
	"syscall"
)

// SetRLimit raises the soft open files limit to at least required and
// returns the limit that was in place before. LevelDb keeps many table
// files open.
func SetRLimit(required uint64) (uint64, error) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}
	prev := uint64(rLimit.Cur)
	if prev >= required {
		return prev, nil
	}
	if uint64(rLimit.Max) < required {
		return prev, fmt.Errorf("Open files hard limit %d is below %d", rLimit.Max, required)
	}
	rLimit.Cur = required
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return prev, err
	}
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return prev, err
	}
	if uint64(rLimit.Cur) < required {
		return prev, fmt.Errorf("Could not change open files rlimit to: %d", required)
	}
	return prev, nil
}
