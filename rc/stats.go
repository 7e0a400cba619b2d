package rc

import "github.com/moontrade/smartptr/pkg/counter"

// Stats are process-wide control block counters. Live counts blocks whose
// storage has not been released yet.
type Stats struct {
	Blocks           counter.Counter
	Live             counter.Counter
	PeakLive         counter.Counter
	Disposes         counter.Counter
	DisposePanics    counter.Counter
	StorageReleases  counter.Counter
	Promotions       counter.Counter
	FailedPromotions counter.Counter
}

var stats Stats

// SnapshotStats returns a copy of the process-wide counters.
func SnapshotStats() Stats {
	var s Stats
	s.Blocks.Store(stats.Blocks.Load())
	s.Live.Store(stats.Live.Load())
	s.PeakLive.Store(stats.PeakLive.Load())
	s.Disposes.Store(stats.Disposes.Load())
	s.DisposePanics.Store(stats.DisposePanics.Load())
	s.StorageReleases.Store(stats.StorageReleases.Load())
	s.Promotions.Store(stats.Promotions.Load())
	s.FailedPromotions.Store(stats.FailedPromotions.Load())
	return s
}
