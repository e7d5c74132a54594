// Package cpu pins worker goroutines to CPU cores.
//
// Pinning locks the calling goroutine to its OS thread and, where the platform
// allows it, restricts that thread to a single core chosen from the worker ID.
package cpu

import "runtime"

// CoreFor maps a worker ID onto the range [0, runtime.NumCPU()-1].
func CoreFor(workerID int) int {
	n := runtime.NumCPU()
	core := workerID % n
	if core < 0 {
		core += n
	}
	return core
}

// SetupWorkerAffinity locks the goroutine to an OS thread and pins it to the
// core returned by CoreFor. Pinning failures are ignored; the thread stays
// locked either way. The returned function unlocks the thread and should be
// deferred.
func SetupWorkerAffinity(workerID int) func() {
	runtime.LockOSThread()
	_ = pinToCore(CoreFor(workerID))

	return runtime.UnlockOSThread
}
