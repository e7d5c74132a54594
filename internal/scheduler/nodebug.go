//go:build !debug

package scheduler

func debugLog(string, ...any) {}
