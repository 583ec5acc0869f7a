// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

// Package adapters implements one Adapter per supported dataset. Each adapter hides the storage format,
// download, split convention and labeling quirks of its dataset, and produces train and test
// dataset.SplitSet with consistent labels and class names.
//
// Adapters come in families:
//
//   - FamilyStandard: public datasets with an official train/test split.
//   - FamilyDomainShift: WILDS datasets, whose test subset comes from a shifted distribution.
//   - FamilyCustom: datasets without an official split, partitioned with a seeded random split.
//   - FamilyCorruption: CIFAR-10-C, test only.
//   - FamilyArchive: Tiny ImageNet, downloaded and restructured on demand.
package adapters

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
	"github.com/vpdata/vpdata/pkg/support/fsutil"
	"k8s.io/klog/v2"
)

// Family of adapters, sharing how splits are obtained.
type Family int

const (
	FamilyStandard Family = iota
	FamilyDomainShift
	FamilyCustom
	FamilyCorruption
	FamilyArchive
)

// String implements fmt.Stringer.
func (f Family) String() string {
	switch f {
	case FamilyStandard:
		return "standard"
	case FamilyDomainShift:
		return "domain-shift"
	case FamilyCustom:
		return "custom"
	case FamilyCorruption:
		return "corruption"
	case FamilyArchive:
		return "archive"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Variant holds dataset specific options.
type Variant struct {
	// CorruptionMode selects the corruption of CIFAR10-C, one of CorruptionModes. Defaults to "gaussian_noise".
	CorruptionMode string

	// Severity selects one of the 5 severity levels (1 to 5) of CIFAR10-C. 0 selects all of them.
	Severity int
}

// Options for Adapter.Prepare.
type Options struct {
	// Root directory where datasets are stored (and downloaded to). A leading "~" is replaced by the home directory.
	Root string

	// ImageSize is the side of the square images produced by the default transform.
	ImageSize int

	// Normalization is accepted for completeness, but it is not applied by any adapter: to normalize, provide
	// a Transform that does it (see dataset.Pipeline.Normalize).
	Normalization registry.Normalization

	// Download allows fetching missing files from their public source.
	Download bool

	// BatchSize is informative for adapters, loaders are built by the caller.
	BatchSize int

	// Seed for the random partition of datasets without an official split.
	Seed int64

	// Transform applied to every image. If nil, dataset.DefaultTransform(ImageSize) is used.
	Transform dataset.Transform

	// Descriptor of the dataset, from the registry.
	Descriptor registry.Descriptor

	// Variant holds dataset specific options.
	Variant Variant
}

func (opts *Options) transform() dataset.Transform {
	if opts.Transform != nil {
		return opts.Transform
	}
	return dataset.DefaultTransform(opts.ImageSize)
}

func (opts *Options) rootDir() (string, error) {
	if opts.Root == "" {
		return "", errors.New("adapters: Options.Root not set")
	}
	return fsutil.ReplaceTildeInDir(opts.Root)
}

// Result of Adapter.Prepare.
type Result struct {
	// Train split, nil for test-only datasets.
	Train dataset.SplitSet

	// Test split.
	Test dataset.SplitSet

	// ClassNames indexed by label, shared by both splits.
	ClassNames []string

	// RawTrain is the training split object as built by the adapter, before any wrapping by the caller.
	// It is nil for test-only datasets.
	RawTrain dataset.SplitSet
}

// Adapter prepares one dataset.
type Adapter interface {
	// Name of the dataset.
	Name() registry.Name

	// Family of the adapter.
	Family() Family

	// Prepare makes the dataset available (downloading it if needed and allowed) and returns its splits.
	Prepare(opts Options) (*Result, error)
}

// Adapters returns a new map with all the adapters, indexed by dataset name.
func Adapters() map[registry.Name]Adapter {
	all := []Adapter{
		cifar10Adapter, cifar100Adapter, svhnAdapter, gtsrbAdapter, food101Adapter, petsAdapter, flowersAdapter,
		dtdAdapter, eurosatAdapter, ucf101Adapter,
		camelyonAdapter, iwildcamAdapter, fmowAdapter,
		abideAdapter, melanomaAdapter, spawriousAdapter, imagenetAdapter,
		&corruptionAdapter{},
		&tinyImageNetAdapter{},
	}
	m := make(map[registry.Name]Adapter, len(all))
	for _, a := range all {
		m[a.Name()] = a
	}
	return m
}

// Names returns the sorted names of the datasets with an adapter.
func Names() []registry.Name {
	return slices.Sorted(maps.Keys(Adapters()))
}

// RefineClassNames returns a copy of the names lower-cased, with underscores and hyphens replaced by spaces.
func RefineClassNames(names []string) []string {
	refined := make([]string, len(names))
	replacer := strings.NewReplacer("_", " ", "-", " ")
	for ii, name := range names {
		refined[ii] = replacer.Replace(strings.ToLower(name))
	}
	return refined
}

// newResult builds the Result, checking that both splits agree on the class names.
func newResult(name registry.Name, train, test dataset.SplitSet, classNames []string) (*Result, error) {
	for _, split := range []dataset.SplitSet{train, test} {
		if split == nil {
			continue
		}
		if !slices.Equal(split.ClassNames(), classNames) {
			return nil, errors.Errorf("dataset %q: split %q has %d class names, different from the %d of the dataset",
				name, split.Name(), len(split.ClassNames()), len(classNames))
		}
	}
	if test == nil {
		return nil, errors.Errorf("dataset %q: no test split", name)
	}
	if train != nil {
		klog.V(1).Infof("Dataset %s: %d train and %d test samples, %d classes", name, train.Len(), test.Len(), len(classNames))
	} else {
		klog.V(1).Infof("Dataset %s: %d test samples, %d classes (no train split)", name, test.Len(), len(classNames))
	}
	return &Result{Train: train, Test: test, ClassNames: slices.Clone(classNames), RawTrain: train}, nil
}

// requirePaths returns a *dataset.DatasetNotFoundError for the first path that doesn't exist.
func requirePaths(name registry.Name, reason string, paths ...string) error {
	for _, path := range paths {
		exists, err := fsutil.FileExists(path)
		if err != nil {
			return err
		}
		if !exists {
			return &dataset.DatasetNotFoundError{Dataset: string(name), Path: path, Reason: reason}
		}
	}
	return nil
}

// fetch makes sure the paths exist, running download if they don't and downloading is allowed.
func fetch(name registry.Name, opts *Options, download func() error, paths ...string) error {
	if err := requirePaths(name, "", paths...); err == nil {
		return nil
	} else if !opts.Download {
		return errors.WithMessage(err, "download disabled")
	}
	klog.Infof("Dataset %s: fetching missing files", name)
	if err := download(); err != nil {
		var missing *downloader.MissingDirError
		if errors.As(err, &missing) {
			return &dataset.ArchiveCorruptionError{Dataset: string(name), Archive: missing.Archive, Cause: err}
		}
		return errors.WithMessagef(err, "dataset %q: download failed", name)
	}
	if err := requirePaths(name, "", paths...); err != nil {
		return &dataset.ArchiveCorruptionError{Dataset: string(name), Archive: "", Cause: err}
	}
	return nil
}
