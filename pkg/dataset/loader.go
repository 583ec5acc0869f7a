// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// NewRand returns a deterministic random number generator for the given seed.
// The same seed always produces the same sequence.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x5eed))
}

// Batch is a group of consecutive samples yielded by a Loader.
type Batch struct {
	Samples []Sample

	// Indices of the samples in the loader's split.
	Indices []int
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int { return len(b.Samples) }

// Labels returns the labels of the samples in the batch.
func (b *Batch) Labels() []int {
	labels := make([]int, len(b.Samples))
	for ii, s := range b.Samples {
		labels[ii] = s.Label
	}
	return labels
}

// Loader iterates over a SplitSet in batches. It is finite and restartable: Yield returns io.EOF at the
// end of the epoch, and Reset starts a new one. The last batch of an epoch may be shorter than the
// batch size.
//
// If shuffling is enabled, each epoch visits the samples in a new random order, drawn from a generator
// seeded at construction, so the sequence of epochs is reproducible. Samples of a batch are decoded
// concurrently by the configured number of workers, but the contents and order of the batch don't depend
// on the number of workers.
//
// Configure the Loader with the With* methods before the first call to Yield.
// Yield and Reset are safe for concurrent use.
type Loader struct {
	split     SplitSet
	name, id  string
	batchSize int
	shuffle   bool
	workers   int
	rng       *rand.Rand

	mu       sync.Mutex
	order    []int
	position int
	epoch    int
	started  bool
}

// NewLoader creates a Loader over split, yielding batches of batchSize samples, in order and without
// parallelism. It panics if split is nil or batchSize is not positive.
func NewLoader(split SplitSet, batchSize int) *Loader {
	if split == nil {
		exceptions.Panicf("dataset.NewLoader: nil split")
	}
	if batchSize <= 0 {
		exceptions.Panicf("dataset.NewLoader(%q): batch size must be > 0, got %d", split.Name(), batchSize)
	}
	l := &Loader{
		split:     split,
		name:      split.Name(),
		id:        uuid.NewString(),
		batchSize: batchSize,
		workers:   1,
		order:     make([]int, split.Len()),
	}
	for ii := range l.order {
		l.order[ii] = ii
	}
	return l
}

// WithShuffle enables shuffling of the samples at every epoch, using a generator seeded with seed.
//
// It returns the Loader, so configuration calls can be cascaded.
func (l *Loader) WithShuffle(seed int64) *Loader {
	l.shuffle = true
	l.rng = NewRand(seed)
	return l
}

// WithWorkers sets the number of goroutines decoding the samples of each batch. Values < 1 are taken as 1.
//
// It returns the Loader, so configuration calls can be cascaded.
func (l *Loader) WithWorkers(workers int) *Loader {
	l.workers = max(workers, 1)
	return l
}

// WithName sets the name used in logs and errors. It defaults to the split name.
func (l *Loader) WithName(name string) *Loader {
	l.name = name
	return l
}

// Name of the loader.
func (l *Loader) Name() string { return l.name }

// ID is a unique identifier of the loader, used to tell loaders apart in the logs.
func (l *Loader) ID() string { return l.id }

// Split returns the underlying SplitSet.
func (l *Loader) Split() SplitSet { return l.split }

// BatchSize returns the configured batch size.
func (l *Loader) BatchSize() int { return l.batchSize }

// Shuffle returns whether the loader shuffles the samples every epoch.
func (l *Loader) Shuffle() bool { return l.shuffle }

// Workers returns the number of goroutines decoding samples.
func (l *Loader) Workers() int { return l.workers }

// Len returns the number of samples per epoch.
func (l *Loader) Len() int { return len(l.order) }

// NumBatches returns the number of batches per epoch.
func (l *Loader) NumBatches() int {
	return (len(l.order) + l.batchSize - 1) / l.batchSize
}

// Epoch returns the number of epochs started so far.
func (l *Loader) Epoch() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}

// String implements fmt.Stringer.
func (l *Loader) String() string {
	return fmt.Sprintf("Loader(%q, batch=%d, shuffle=%v, workers=%d)", l.name, l.batchSize, l.shuffle, l.workers)
}

// startEpoch must be called with the lock held.
func (l *Loader) startEpoch() {
	l.started = true
	l.position = 0
	l.epoch++
	if l.shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) { l.order[i], l.order[j] = l.order[j], l.order[i] })
	}
	klog.V(1).Infof("Loader %q (%s): epoch %d with %d samples in %d batches",
		l.name, l.id, l.epoch, len(l.order), l.NumBatches())
}

// Reset starts a new epoch, reshuffling the samples if shuffling is enabled.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startEpoch()
}

// Yield returns the next batch of the epoch, or io.EOF when the epoch is over.
// Call Reset to start a new epoch.
func (l *Loader) Yield() (*Batch, error) {
	l.mu.Lock()
	if !l.started {
		l.startEpoch()
	}
	if l.position >= len(l.order) {
		l.mu.Unlock()
		return nil, io.EOF
	}
	end := min(l.position+l.batchSize, len(l.order))
	indices := make([]int, end-l.position)
	copy(indices, l.order[l.position:end])
	l.position = end
	l.mu.Unlock()

	samples, err := l.decode(indices)
	if err != nil {
		return nil, err
	}
	return &Batch{Samples: samples, Indices: indices}, nil
}

// sampleAt calls split.Sample converting panics (e.g. from a user provided Transform) to errors.
func (l *Loader) sampleAt(idx int) (sample Sample, err error) {
	exception := exceptions.Try(func() {
		sample, err = l.split.Sample(idx)
	})
	if exception != nil {
		if e, ok := exception.(error); ok {
			err = errors.Wrap(e, "panic while reading sample")
		} else {
			err = errors.Errorf("panic while reading sample: %v", exception)
		}
	}
	if err != nil {
		err = errors.WithMessagef(err, "loader %q: sample #%d", l.name, idx)
	}
	return
}

func (l *Loader) decode(indices []int) ([]Sample, error) {
	samples := make([]Sample, len(indices))
	workers := min(l.workers, len(indices))
	if workers <= 1 {
		for ii, idx := range indices {
			var err error
			samples[ii], err = l.sampleAt(idx)
			if err != nil {
				return nil, err
			}
		}
		return samples, nil
	}

	var (
		wg       sync.WaitGroup
		muErr    sync.Mutex
		firstErr error
	)
	positions := make(chan int)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range positions {
				sample, err := l.sampleAt(indices[pos])
				if err != nil {
					klog.Errorf("Loader %q (%s): %v", l.name, l.id, err)
					muErr.Lock()
					if firstErr == nil {
						firstErr = err
					}
					muErr.Unlock()
					continue
				}
				samples[pos] = sample
			}
		}()
	}
	for pos := range indices {
		positions <- pos
	}
	close(positions)
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return samples, nil
}
