//go:build unix

package main

import (
	"fmt"
	"syscall"
	"time"
)

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// stopProcess asks nicely first, then kills after the grace period.
func stopProcess(name string, pid int) {
	if !processAlive(pid) {
		return
	}

	fmt.Printf("stopping %s pid=%d\n", name, pid)
	syscall.Kill(pid, syscall.SIGTERM)

	deadline := time.Now().Add(shutdownGracePeriod)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}

	fmt.Printf("killing %s pid=%d\n", name, pid)
	syscall.Kill(pid, syscall.SIGKILL)
}

func killProcess(pid int) {
	if processAlive(pid) {
		syscall.Kill(pid, syscall.SIGKILL)
	}
}
