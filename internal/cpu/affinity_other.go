//go:build !linux && !windows

package cpu

// pinToCore is a no-op; thread affinity is not available on this platform
// (macOS only supports affinity hints).
func pinToCore(int) error {
	return nil
}
