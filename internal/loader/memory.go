package loader

import (
	"fmt"
	"os"
)

// Strategy is the advisory loading recommendation.
type Strategy string

const (
	// StrategyInMemory suits datasets that fit comfortably in process memory.
	StrategyInMemory Strategy = "in-memory"
	// StrategyColumnar recommends the embedded columnar engine's out-of-core
	// processing for datasets too large for naive in-memory handling.
	StrategyColumnar Strategy = "columnar"
)

// CSV is typically 2-3x larger than its in-memory representation.
const memoryRatio = 2.5

// Above this estimated footprint the columnar strategy is recommended.
const columnarThresholdMB = 1000.0

// MemoryEstimate is an advisory footprint estimate; nothing enforces it.
type MemoryEstimate struct {
	FileSizeMB        float64
	EstimatedMemoryMB float64
	Recommended       Strategy
}

// EstimateMemory derives a loading recommendation from the source file size
// in bytes.
func EstimateMemory(fileSizeBytes int64) MemoryEstimate {
	sizeMB := float64(fileSizeBytes) / (1024 * 1024)
	estMB := sizeMB / memoryRatio

	strategy := StrategyInMemory
	if estMB > columnarThresholdMB {
		strategy = StrategyColumnar
	}
	return MemoryEstimate{
		FileSizeMB:        sizeMB,
		EstimatedMemoryMB: estMB,
		Recommended:       strategy,
	}
}

// EstimateMemory stats the loader's source file and estimates its in-memory
// footprint.
func (l *Loader) EstimateMemory() (MemoryEstimate, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return MemoryEstimate{}, fmt.Errorf("%w: %s", ErrDataNotFound, l.path)
	}
	return EstimateMemory(info.Size()), nil
}
