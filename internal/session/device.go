package session

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/tripatlas/go-trip-client/internal/domain"
	"github.com/tripatlas/go-trip-client/internal/utils"
)

var (
	deviceOnce sync.Once
	deviceInfo domain.DeviceInfo
)

// Device returns the host's device descriptors, computed once per process
// on first use. The descriptors are immutable for the process lifetime, so
// recomputing them per event would be wasted work.
func Device() domain.DeviceInfo {
	deviceOnce.Do(func() {
		deviceInfo = computeDevice()
	})
	return deviceInfo
}

func computeDevice() domain.DeviceInfo {
	d := domain.DeviceInfo{
		Type:    "desktop",
		OS:      runtime.GOOS,
		Runtime: "go/" + strings.TrimPrefix(runtime.Version(), "go"),
	}

	// The embedding host may describe its display via env; absent or
	// malformed values leave ScreenSize empty.
	w := utils.AtoiDefault(os.Getenv("SCREEN_WIDTH"), 0)
	h := utils.AtoiDefault(os.Getenv("SCREEN_HEIGHT"), 0)
	if w > 0 && h > 0 {
		d.ScreenSize = strconv.Itoa(w) + "x" + strconv.Itoa(h)
		if w < 768 {
			d.Type = "mobile"
		} else if w < 1024 {
			d.Type = "tablet"
		}
	}
	return d
}
