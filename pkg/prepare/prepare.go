// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

// Package prepare routes a dataset name to its adapter, and wraps the resulting splits in loaders.
//
// Example:
//
//	d := prepare.New(registry.Default())
//	prepared, err := d.Dispatch("CIFAR10", prepare.Options{Root: "~/data", Download: true})
//	if err != nil { ... }
//	for {
//		batch, err := prepared.TrainLoader.Yield()
//		if err == io.EOF {
//			break
//		}
//		...
//	}
package prepare

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/adapters"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"k8s.io/klog/v2"
)

// Loader parallelism: the number of goroutines decoding the samples of each batch.
const (
	DefaultWorkers = 2
	ArchiveWorkers = 4
)

// DefaultSeed is used when Options.Seed is 0.
const DefaultSeed = 1

// UnsupportedDatasetError is returned by Dispatch for a name without an adapter.
type UnsupportedDatasetError struct {
	Name string
}

// Error implements the error interface.
func (e *UnsupportedDatasetError) Error() string {
	return fmt.Sprintf("dataset %q not supported", e.Name)
}

// ConfigurationMismatchError is returned when a dataset with an adapter has no registry entry, or when the
// adapter and the registry disagree about the dataset.
type ConfigurationMismatchError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationMismatchError) Error() string {
	return fmt.Sprintf("configuration mismatch for dataset %q: %s", e.Name, e.Reason)
}

// Options for Dispatch. Zero values are filled from the dataset descriptor.
type Options struct {
	// Root directory of the datasets. A leading "~" is replaced by the home directory.
	Root string

	// ImageSize of the default transform. Defaults to the descriptor's image size.
	ImageSize int

	// Backbone selects the normalization constants of the descriptor when Normalization is not set.
	Backbone string

	// Normalization is passed to the adapters, but it is not applied by the default transform.
	Normalization registry.Normalization

	// Download allows fetching missing datasets.
	Download bool

	// BatchSize of the loaders. Defaults to the descriptor's batch size.
	BatchSize int

	// Seed for the training loader shuffling and for the partition of datasets without an official split.
	// Defaults to DefaultSeed.
	Seed int64

	// Transform applied to every image. Defaults to dataset.DefaultTransform(ImageSize).
	Transform dataset.Transform

	// Variant holds dataset specific options (e.g. the CIFAR10-C corruption).
	Variant adapters.Variant
}

// Prepared holds the result of a Dispatch.
type Prepared struct {
	// TrainLoader shuffles every epoch. It is nil for test-only datasets.
	TrainLoader *dataset.Loader

	// TestLoader never shuffles.
	TestLoader *dataset.Loader

	// ClassNames indexed by label.
	ClassNames []string

	// TrainSplit is the raw training split, nil for test-only datasets.
	TrainSplit dataset.SplitSet

	// Descriptor of the dataset.
	Descriptor registry.Descriptor
}

// Dispatcher prepares datasets by name.
type Dispatcher struct {
	registry *registry.Registry
	adapters map[registry.Name]adapters.Adapter
}

// New creates a Dispatcher using the given registry and all the adapters.
func New(reg *registry.Registry) *Dispatcher {
	return NewWithAdapters(reg, adapters.Adapters())
}

// NewWithAdapters creates a Dispatcher with a custom set of adapters, indexed by dataset name.
func NewWithAdapters(reg *registry.Registry, all map[registry.Name]adapters.Adapter) *Dispatcher {
	return &Dispatcher{registry: reg, adapters: all}
}

// Dispatch prepares the dataset name: it runs its adapter and wraps the splits in loaders.
func (d *Dispatcher) Dispatch(name string, opts Options) (*Prepared, error) {
	adapter, found := d.adapters[registry.Name(name)]
	if !found {
		return nil, &UnsupportedDatasetError{Name: name}
	}
	descriptor, err := d.registry.Lookup(name)
	if err != nil {
		var unknown *registry.UnknownDatasetError
		if errors.As(err, &unknown) {
			return nil, &ConfigurationMismatchError{Name: name, Reason: "adapter available, but no registry entry"}
		}
		return nil, err
	}
	adapterOpts, err := resolveOptions(&opts, descriptor)
	if err != nil {
		return nil, errors.WithMessagef(err, "dataset %q", name)
	}

	klog.V(1).Infof("Preparing dataset %s (%s family): root=%q, image size %d, batch size %d",
		name, adapter.Family(), adapterOpts.Root, adapterOpts.ImageSize, adapterOpts.BatchSize)
	result, err := adapter.Prepare(adapterOpts)
	if err != nil {
		return nil, err
	}
	if len(result.ClassNames) != descriptor.ClassCount {
		return nil, &ConfigurationMismatchError{Name: name,
			Reason: fmt.Sprintf("registry has %d classes, but the dataset has %d", descriptor.ClassCount, len(result.ClassNames))}
	}

	prepared := &Prepared{
		ClassNames: result.ClassNames,
		TrainSplit: result.RawTrain,
		Descriptor: descriptor,
	}
	workers := DefaultWorkers
	if adapter.Family() == adapters.FamilyArchive {
		workers = ArchiveWorkers
	}
	if result.Train != nil {
		prepared.TrainLoader = dataset.NewLoader(result.Train, adapterOpts.BatchSize).
			WithShuffle(adapterOpts.Seed).
			WithWorkers(workers).
			WithName(name + "/train")
	}
	prepared.TestLoader = dataset.NewLoader(result.Test, adapterOpts.BatchSize).
		WithWorkers(workers).
		WithName(name + "/test")
	return prepared, nil
}

// resolveOptions fills the zero values of opts from the descriptor.
func resolveOptions(opts *Options, descriptor registry.Descriptor) (adapters.Options, error) {
	resolved := adapters.Options{
		Root:          opts.Root,
		ImageSize:     opts.ImageSize,
		Normalization: opts.Normalization,
		Download:      opts.Download,
		BatchSize:     opts.BatchSize,
		Seed:          opts.Seed,
		Transform:     opts.Transform,
		Descriptor:    descriptor,
		Variant:       opts.Variant,
	}
	if resolved.Root == "" {
		return resolved, errors.New("Options.Root must be set")
	}
	if resolved.ImageSize == 0 {
		resolved.ImageSize = descriptor.ImageSize
	}
	if resolved.BatchSize == 0 {
		resolved.BatchSize = descriptor.BatchSize
	}
	if resolved.ImageSize < 0 || resolved.BatchSize < 0 {
		return resolved, errors.Errorf("image size (%d) and batch size (%d) must be positive",
			resolved.ImageSize, resolved.BatchSize)
	}
	if resolved.Seed == 0 {
		resolved.Seed = DefaultSeed
	}
	if resolved.Normalization == (registry.Normalization{}) && opts.Backbone != "" {
		norm, found := descriptor.NormalizationFor(opts.Backbone)
		if !found {
			return resolved, &registry.UnknownBackboneError{Name: opts.Backbone}
		}
		resolved.Normalization = norm
	}
	if resolved.Transform == nil {
		resolved.Transform = dataset.DefaultTransform(resolved.ImageSize)
	}
	return resolved, nil
}
