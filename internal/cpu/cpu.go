// Package cpu probes host capabilities to choose a render quality tier.
//
// The engine enables 2x oversampling by default on hosts with spare
// processing headroom and disables it on constrained hardware. The probe
// combines the logical core count with SIMD availability: few cores or a
// missing vector unit put the host in the economy tier.
//
// Detection runs once on the first call and is cached; a forced override is
// available for tests.
package cpu

import (
	"runtime"
	"sync"
)

// economyCoreLimit is the logical core count at or below which the host is
// classified as economy tier.
const economyCoreLimit = 4

// Features describes the host capabilities the quality heuristic reads.
type Features struct {
	// x86/amd64 SIMD features.
	HasSSE2 bool
	HasAVX  bool
	HasAVX2 bool

	// ARM SIMD features.
	HasNEON bool

	// Architecture is runtime.GOARCH at detection time.
	Architecture string
}

// hasVectorUnit reports whether any usable SIMD extension is present.
func (f Features) hasVectorUnit() bool {
	return f.HasSSE2 || f.HasAVX || f.HasAVX2 || f.HasNEON
}

// Tier classifies how much rendering work the host can absorb.
type Tier int

const (
	// TierEconomy keeps the render path cheap: no oversampling.
	TierEconomy Tier = iota
	// TierFull enables 2x oversampling by default.
	TierFull
)

func (t Tier) String() string {
	switch t {
	case TierEconomy:
		return "economy"
	case TierFull:
		return "full"
	default:
		return "unknown"
	}
}

var (
	detectOnce       sync.Once
	detectedFeatures Features

	forcedMu       sync.RWMutex
	forcedFeatures *Features
	forcedCores    int
)

// DetectFeatures returns the host CPU features, detecting them on first use.
// Safe for concurrent callers.
func DetectFeatures() Features {
	forcedMu.RLock()
	forced := forcedFeatures
	forcedMu.RUnlock()

	if forced != nil {
		return *forced
	}

	detectOnce.Do(func() {
		detectedFeatures = detectFeaturesImpl()
	})

	return detectedFeatures
}

// DetectTier returns the render quality tier for this host.
func DetectTier() Tier {
	forcedMu.RLock()
	cores := forcedCores
	forcedMu.RUnlock()

	if cores == 0 {
		cores = runtime.NumCPU()
	}

	return tierFor(DetectFeatures(), cores)
}

func tierFor(f Features, cores int) Tier {
	if cores <= economyCoreLimit || !f.hasVectorUnit() {
		return TierEconomy
	}

	return TierFull
}

// SetForced overrides detection for tests. A zero core count keeps the real
// value.
func SetForced(f Features, cores int) {
	forcedMu.Lock()
	forcedFeatures = &f
	forcedCores = cores
	forcedMu.Unlock()
}

// ResetForced restores hardware detection after SetForced.
func ResetForced() {
	forcedMu.Lock()
	forcedFeatures = nil
	forcedCores = 0
	forcedMu.Unlock()
}
