//go:build windows

package collector

// DefaultGPUProbe returns the OS-level fallback probe for this platform.
func DefaultGPUProbe() GPUProbe {
	return NewWMIGPUProbe()
}
