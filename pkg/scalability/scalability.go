// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

// Package scalability reduces a training split to a fraction of its samples, for experiments on how
// results scale with the amount of training data.
//
// Two modes are supported:
//
//   - ModeRandom: the samples are shuffled and split in Ratio folds of near-equal size, and only the first
//     fold is kept.
//   - ModeEqual: the samples are grouped by label and 1/Ratio of each class is kept, so the class
//     proportions are preserved. This requires one pass over the split to read all labels.
//
// Both are reproducible: the same split, Ratio and Seed always select the same samples.
package scalability

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/vpdata/vpdata/pkg/dataset"
	"k8s.io/klog/v2"
)

// Mode of reduction.
type Mode string

const (
	ModeRandom Mode = "random"
	ModeEqual  Mode = "equal"
)

// Defaults for Config zero values.
const (
	DefaultBatchSize = 128
	DefaultWorkers   = 2
)

// UnsupportedModeError is returned for a Mode other than ModeRandom or ModeEqual.
type UnsupportedModeError struct {
	Mode Mode
}

// Error implements the error interface.
func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("unsupported scalability mode %q, valid modes are %q and %q", e.Mode, ModeRandom, ModeEqual)
}

// InvalidRatioError is returned when the ratio is smaller than 2.
type InvalidRatioError struct {
	Ratio int
}

// Error implements the error interface.
func (e *InvalidRatioError) Error() string {
	return fmt.Sprintf("scalability ratio must be >= 2, got %d", e.Ratio)
}

// LabelExtractor returns the label used to stratify a sample. The default uses Sample.Label.
type LabelExtractor func(sample dataset.Sample) int

// Config of Reduce.
type Config struct {
	// Ratio: 1/Ratio of the samples are kept. It must be >= 2.
	Ratio int

	// Mode of reduction.
	Mode Mode

	// Seed of the selection, and of the shuffling of the returned loader.
	Seed int64

	// BatchSize of the returned loader, and of the pass reading the labels. Defaults to DefaultBatchSize.
	BatchSize int

	// Workers decoding samples, for both the label pass and the returned loader. Defaults to DefaultWorkers.
	Workers int

	// LabelOf extracts the label of a sample in ModeEqual. Defaults to Sample.Label.
	LabelOf LabelExtractor

	// ShowProgressBar during the pass reading the labels.
	ShowProgressBar bool
}

// Reduction is the result of Reduce.
type Reduction struct {
	// Loader over the selected samples, shuffled every epoch.
	Loader *dataset.Loader

	// Selection are the indices of the selected samples in the original split, in increasing order.
	Selection []int

	// ClassCounts is the number of selected samples per label. Only filled in ModeEqual, where the labels
	// are known.
	ClassCounts map[int]int
}

func (cfg *Config) validate(train dataset.SplitSet) error {
	if cfg.Mode != ModeRandom && cfg.Mode != ModeEqual {
		return &UnsupportedModeError{Mode: cfg.Mode}
	}
	if cfg.Ratio < 2 {
		return &InvalidRatioError{Ratio: cfg.Ratio}
	}
	if train == nil {
		return errors.New("scalability: nil train split")
	}
	if train.Len() < cfg.Ratio {
		return errors.Errorf("scalability: can't split the %d samples of %q in %d folds", train.Len(), train.Name(), cfg.Ratio)
	}
	if cfg.BatchSize < 0 {
		return errors.Errorf("scalability: invalid batch size %d", cfg.BatchSize)
	}
	return nil
}

// Reduce selects 1/cfg.Ratio of the samples of train, and returns a loader over them.
//
// It fails with *UnsupportedModeError or *InvalidRatioError before reading anything.
func Reduce(train dataset.SplitSet, cfg Config) (*Reduction, error) {
	if err := cfg.validate(train); err != nil {
		return nil, err
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	reduction := &Reduction{}
	switch cfg.Mode {
	case ModeRandom:
		reduction.Selection = RandomFold(train.Len(), cfg.Ratio, cfg.Seed)
	case ModeEqual:
		labels, err := readLabels(train, &cfg)
		if err != nil {
			return nil, err
		}
		reduction.Selection = StratifiedSelection(labels, cfg.Ratio, cfg.Seed)
		reduction.ClassCounts = make(map[int]int)
		for _, idx := range reduction.Selection {
			reduction.ClassCounts[labels[idx]]++
		}
		if klog.V(1).Enabled() {
			for _, label := range slices.Sorted(maps.Keys(reduction.ClassCounts)) {
				klog.Infof("Scalability %q: class %d keeps %d samples", train.Name(), label, reduction.ClassCounts[label])
			}
		}
	}

	subset, err := dataset.Subset(train, reduction.Selection)
	if err != nil {
		return nil, err
	}
	reduction.Loader = dataset.NewLoader(subset, cfg.BatchSize).
		WithShuffle(cfg.Seed).
		WithWorkers(cfg.Workers).
		WithName(fmt.Sprintf("%s/1:%d", train.Name(), cfg.Ratio))
	klog.V(1).Infof("Scalability %q (%s, ratio 1:%d): kept %s of %s samples", train.Name(), cfg.Mode, cfg.Ratio,
		humanize.Comma(int64(len(reduction.Selection))), humanize.Comma(int64(train.Len())))
	return reduction, nil
}

// RandomFold shuffles the indices [0, n) with a generator seeded with seed, splits them in ratio folds
// and returns the first one, sorted.
//
// Folds have near-equal sizes: the first n%ratio folds have one more element than the others.
func RandomFold(n, ratio int, seed int64) []int {
	if n <= 0 || ratio <= 0 {
		return []int{}
	}
	foldSize := n / ratio
	if n%ratio > 0 {
		foldSize++
	}
	fold := dataset.NewRand(seed).Perm(n)[:foldSize]
	slices.Sort(fold)
	return fold
}

// StratifiedSelection selects, from each class, round(classSize/ratio) of its indices (at least one), at
// random with a generator seeded with seed. labels[i] is the label of the sample i.
//
// It returns the selected indices, sorted.
func StratifiedSelection(labels []int, ratio int, seed int64) []int {
	if ratio <= 0 {
		return []int{}
	}
	groups := make(map[int][]int)
	for idx, label := range labels {
		groups[label] = append(groups[label], idx)
	}
	rng := dataset.NewRand(seed)
	selection := make([]int, 0, len(labels)/ratio+len(groups))
	for _, label := range slices.Sorted(maps.Keys(groups)) {
		group := groups[label]
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		keep := max(1, int(math.Round(float64(len(group))/float64(ratio))))
		selection = append(selection, group[:keep]...)
	}
	slices.Sort(selection)
	return selection
}

// readLabels reads the label of every sample of train, in order.
func readLabels(train dataset.SplitSet, cfg *Config) ([]int, error) {
	labelOf := cfg.LabelOf
	if labelOf == nil {
		labelOf = func(sample dataset.Sample) int { return sample.Label }
	}
	loader := dataset.NewLoader(train, cfg.BatchSize).
		WithWorkers(cfg.Workers).
		WithName(train.Name() + "/labels")
	var bar *progressbar.ProgressBar
	if cfg.ShowProgressBar {
		bar = progressbar.NewOptions(train.Len(),
			progressbar.OptionSetDescription("Reading labels"),
			progressbar.OptionUseANSICodes(true),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("samples"),
			progressbar.OptionSetTheme(progressbar.ThemeUnicode),
		)
		defer func() { _ = bar.Close() }()
	}
	labels := make([]int, train.Len())
	for {
		batch, err := loader.Yield()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "scalability: reading the labels of %q", train.Name())
		}
		for ii, sample := range batch.Samples {
			labels[batch.Indices[ii]] = labelOf(sample)
		}
		if bar != nil {
			_ = bar.Add(batch.Len())
		}
	}
	return labels, nil
}
