package common

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// BaseMetrics provides common fields used across different metrics types
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	Mu              sync.RWMutex
}

// UpdateBaseMetrics updates common metrics fields
func (bm *BaseMetrics) UpdateBaseMetrics(success bool) {
	bm.Mu.Lock()
	defer bm.Mu.Unlock()

	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
}

// GetBaseMetrics returns the common metrics as a map
func (bm *BaseMetrics) GetBaseMetrics() map[string]interface{} {
	bm.Mu.RLock()
	defer bm.Mu.RUnlock()

	return map[string]interface{}{
		"total_operations": bm.TotalOperations,
		"successful_ops":   bm.SuccessfulOps,
		"failed_ops":       bm.FailedOps,
		"last_operation":   bm.LastOperation,
	}
}

// ScanMetrics tracks per-file work done by an engine run. Safe for concurrent use.
type ScanMetrics struct {
	BaseMetrics
	bytesRead atomic.Int64
	start     time.Time
	elapsed   time.Duration
}

// NewScanMetrics starts the clock for a scan.
func NewScanMetrics() *ScanMetrics {
	return &ScanMetrics{start: time.Now()}
}

// RecordFile counts one processed file and the bytes read for it.
func (sm *ScanMetrics) RecordFile(success bool, bytes int64) {
	sm.UpdateBaseMetrics(success)
	if bytes > 0 {
		sm.bytesRead.Add(bytes)
	}
}

// Finish stops the clock and returns the elapsed time.
func (sm *ScanMetrics) Finish() time.Duration {
	sm.Mu.Lock()
	defer sm.Mu.Unlock()
	sm.elapsed = time.Since(sm.start)
	return sm.elapsed
}

// BytesRead returns the total bytes read so far.
func (sm *ScanMetrics) BytesRead() int64 {
	return sm.bytesRead.Load()
}

// GetMetrics returns scan metrics as a map
func (sm *ScanMetrics) GetMetrics() map[string]interface{} {
	metrics := sm.GetBaseMetrics()
	sm.Mu.RLock()
	defer sm.Mu.RUnlock()

	metrics["bytes_read"] = sm.bytesRead.Load()
	metrics["elapsed"] = sm.elapsed
	if secs := sm.elapsed.Seconds(); secs > 0 {
		metrics["bytes_per_sec"] = float64(sm.bytesRead.Load()) / secs
	}
	return metrics
}

// TimeUtils provides time-related utilities used across packages
type TimeUtils struct{}

// NewTimeUtils creates a new TimeUtils instance
func NewTimeUtils() *TimeUtils {
	return &TimeUtils{}
}

// FormatDuration formats a duration for human-readable display
func (tu TimeUtils) FormatDuration(duration time.Duration) string {
	if duration < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(duration.Nanoseconds())/1000)
	} else if duration < time.Second {
		return fmt.Sprintf("%.2fms", float64(duration.Nanoseconds())/1000000)
	} else if duration < time.Minute {
		return fmt.Sprintf("%.2fs", duration.Seconds())
	} else if duration < time.Hour {
		return fmt.Sprintf("%.2fm", duration.Minutes())
	}
	return fmt.Sprintf("%.2fh", duration.Hours())
}
