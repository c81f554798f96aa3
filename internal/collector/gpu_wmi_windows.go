//go:build windows

package collector

import (
	"fmt"

	"github.com/StackExchange/wmi"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// win32VideoController mirrors the WMI class fields this probe reads.
type win32VideoController struct {
	Name            string
	AdapterRAM      uint32
	CurrentRefreshRate uint32
}

// WMIGPUProbe is the OS-level fallback probe for GPU identity when no
// native vendor SDK (NVML, ADLX, ...) is wired in.
type WMIGPUProbe struct{}

// NewWMIGPUProbe constructs the WMI-backed fallback probe.
func NewWMIGPUProbe() *WMIGPUProbe { return &WMIGPUProbe{} }

func (WMIGPUProbe) Name() string { return "wmi" }

func (WMIGPUProbe) Sample() (*model.GPUInfo, error) {
	var controllers []win32VideoController
	if err := wmi.Query("SELECT Name, AdapterRAM FROM Win32_VideoController", &controllers); err != nil {
		return nil, fmt.Errorf("wmi gpu query: %w", err)
	}
	if len(controllers) == 0 {
		return nil, fmt.Errorf("wmi gpu query: no video controller reported")
	}
	c := controllers[0]
	return &model.GPUInfo{
		Name:        c.Name,
		VRAMTotalMB: uint64(c.AdapterRAM) / (1024 * 1024),
	}, nil
}
