package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// CodeFilter is a probabilistic set of short codes already handed out. A hit
// only means "maybe taken"; the unique constraint stays authoritative.
type CodeFilter struct {
	mu       sync.RWMutex
	filter   *bloom.BloomFilter
	capacity uint
	fpRate   float64
}

func NewCodeFilter(capacity uint, fpRate float64) *CodeFilter {
	if capacity == 0 {
		capacity = 100_000
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.001
	}
	return &CodeFilter{
		filter:   bloom.NewWithEstimates(capacity, fpRate),
		capacity: capacity,
		fpRate:   fpRate,
	}
}

func (f *CodeFilter) Add(code string) {
	f.mu.Lock()
	f.filter.AddString(code)
	f.mu.Unlock()
}

func (f *CodeFilter) MayContain(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(code)
}

// Reset replaces the contents with codes, dropping entries of deleted links.
func (f *CodeFilter) Reset(codes []string) {
	capacity := f.capacity
	if n := uint(len(codes)) * 2; n > capacity {
		capacity = n
	}
	next := bloom.NewWithEstimates(capacity, f.fpRate)
	for _, code := range codes {
		next.AddString(code)
	}

	f.mu.Lock()
	f.filter = next
	f.capacity = capacity
	f.mu.Unlock()
}
