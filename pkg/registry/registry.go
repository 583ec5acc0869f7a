// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

// Package registry holds the static, per-dataset experiment configuration: class counts, image and batch
// sizes, few-shot candidates, epoch bounds for hyper-parameter search and the normalization constants of
// each supported backbone.
//
// A Registry is immutable after construction: Lookup returns copies, so callers can't change what other
// callers see.
package registry

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gomlx/exceptions"
)

// Name of a dataset, drawn from a closed enumeration.
type Name string

// Dataset names known to the registry.
const (
	CIFAR10       Name = "CIFAR10"
	CIFAR10C      Name = "CIFAR10-C"
	CIFAR100      Name = "CIFAR100"
	ABIDE         Name = "ABIDE"
	Melanoma      Name = "Melanoma"
	DR            Name = "DR"
	SVHN          Name = "SVHN"
	GTSRB         Name = "GTSRB"
	Flowers102    Name = "Flowers102"
	DTD           Name = "DTD"
	Food101       Name = "Food101"
	EuroSAT       Name = "EuroSAT"
	OxfordIIITPet Name = "OxfordIIITPet"
	StanfordCars  Name = "StanfordCars"
	SUN397        Name = "SUN397"
	UCF101        Name = "UCF101"
	Camelyon17    Name = "Camelyon17"
	Iwildcam      Name = "Iwildcam"
	FMoW          Name = "FMoW"
	Spawrious     Name = "Spawrious"
	ImageNet1k    Name = "ImageNet1k"
	TinyImageNet  Name = "tiny-imagenet-200"
)

// Normalization holds per-channel (RGB) mean and standard deviation.
type Normalization struct {
	Mean, Std [3]float64
}

// EpochBounds are the minimum and maximum number of epochs explored by hyper-parameter search.
// The zero value means the dataset is not tuned.
type EpochBounds struct {
	Min, Max int
}

// Descriptor is the configuration of one dataset.
type Descriptor struct {
	Name Name

	// ClassCount is the number of classes of the dataset.
	ClassCount int

	// ShotCounts are the few-shot candidates (examples per class), in increasing order.
	ShotCounts []int

	// ImageSize is the side of the square image fed to the model.
	ImageSize int

	// BatchSize used for training and evaluation.
	BatchSize int

	// TuneBatchSize is the batch size used during hyper-parameter search.
	TuneBatchSize int

	// Epochs explored during hyper-parameter search.
	Epochs EpochBounds

	// Normalization constants keyed by backbone name.
	Normalization map[string]Normalization
}

// Clone returns a deep copy of the descriptor.
func (d Descriptor) Clone() Descriptor {
	d.ShotCounts = slices.Clone(d.ShotCounts)
	d.Normalization = maps.Clone(d.Normalization)
	return d
}

// NormalizationFor returns the normalization constants for the given backbone.
func (d Descriptor) NormalizationFor(backbone string) (Normalization, bool) {
	norm, found := d.Normalization[backbone]
	return norm, found
}

// Backbone describes a pre-trained source model.
type Backbone struct {
	Name string

	// SourceClassCount is the number of output classes of the pre-trained model.
	SourceClassCount int

	Normalization Normalization
}

// UnknownDatasetError is returned when looking up a name not in the registry.
type UnknownDatasetError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownDatasetError) Error() string {
	return fmt.Sprintf("unknown dataset %q", e.Name)
}

// UnknownBackboneError is returned when looking up a backbone not in the registry.
type UnknownBackboneError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownBackboneError) Error() string {
	return fmt.Sprintf("unknown backbone %q", e.Name)
}

// Registry is an immutable collection of dataset descriptors and backbones.
type Registry struct {
	descriptors map[Name]Descriptor
	backbones   map[string]Backbone
}

// New creates a Registry with the given descriptors and the default backbones.
// Descriptors are copied, so later changes to them don't affect the registry.
func New(descriptors ...Descriptor) *Registry {
	r := &Registry{
		descriptors: make(map[Name]Descriptor, len(descriptors)),
		backbones:   make(map[string]Backbone, len(defaultBackbones)),
	}
	for _, d := range descriptors {
		r.descriptors[d.Name] = d.Clone()
	}
	for _, b := range defaultBackbones {
		r.backbones[b.Name] = b
	}
	return r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry with all the known datasets. It is built once, on first use.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = New(defaultDescriptors()...)
	})
	return defaultRegistry
}

// Lookup returns a copy of the descriptor for the dataset name.
// It fails with *UnknownDatasetError if the name is not registered.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, found := r.descriptors[Name(name)]
	if !found {
		return Descriptor{}, &UnknownDatasetError{Name: name}
	}
	return d.Clone(), nil
}

// MustLookup is like Lookup, but panics on error.
func (r *Registry) MustLookup(name string) Descriptor {
	d, err := r.Lookup(name)
	if err != nil {
		exceptions.Panicf("registry.MustLookup: %v", err)
	}
	return d
}

// Has returns whether the dataset name is registered.
func (r *Registry) Has(name Name) bool {
	_, found := r.descriptors[name]
	return found
}

// Names returns the registered dataset names, sorted.
func (r *Registry) Names() []Name {
	return slices.Sorted(maps.Keys(r.descriptors))
}

// Backbone returns the backbone with the given name.
func (r *Registry) Backbone(name string) (Backbone, error) {
	b, found := r.backbones[name]
	if !found {
		return Backbone{}, &UnknownBackboneError{Name: name}
	}
	return b, nil
}

// Backbones returns all known backbones, sorted by name.
func (r *Registry) Backbones() []Backbone {
	names := slices.Sorted(maps.Keys(r.backbones))
	backbones := make([]Backbone, 0, len(names))
	for _, name := range names {
		backbones = append(backbones, r.backbones[name])
	}
	return backbones
}
