// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"image"
	"slices"

	"github.com/pkg/errors"
)

// SplitSet is an ordered, finite collection of labeled samples, plus the ordered class names.
//
// For every sample, ClassNames()[sample.Label] is the name of its class.
// Implementations must be safe for concurrent calls to Sample.
type SplitSet interface {
	// Name of the split, used for logging, e.g. "CIFAR10/train".
	Name() string

	// Len returns the number of samples.
	Len() int

	// ClassNames returns the class names, indexed by label.
	ClassNames() []string

	// Sample decodes and returns the i-th sample.
	Sample(i int) (Sample, error)
}

func validateLabels(name string, labels func(yield func(int, int) bool), numClasses int) error {
	if numClasses == 0 {
		return errors.Errorf("split %q has no class names", name)
	}
	for ii, label := range labels {
		if label < 0 || label >= numClasses {
			return errors.Errorf("split %q: sample #%d has label %d, but there are only %d classes",
				name, ii, label, numClasses)
		}
	}
	return nil
}

// Item is one example stored in an image file.
type Item struct {
	Path     string
	Label    int
	Metadata Metadata
}

// FileSplit is a SplitSet of images stored in individual files, decoded lazily.
type FileSplit struct {
	name       string
	items      []Item
	classNames []string
	transform  Transform
}

var _ SplitSet = (*FileSplit)(nil)

// NewFileSplit creates a FileSplit. It returns an error if any item label is not a valid class index.
func NewFileSplit(name string, items []Item, classNames []string, transform Transform) (*FileSplit, error) {
	if transform == nil {
		return nil, errors.Errorf("split %q: nil transform", name)
	}
	err := validateLabels(name, func(yield func(int, int) bool) {
		for ii, item := range items {
			if !yield(ii, item.Label) {
				return
			}
		}
	}, len(classNames))
	if err != nil {
		return nil, err
	}
	return &FileSplit{name: name, items: items, classNames: slices.Clone(classNames), transform: transform}, nil
}

// Name implements SplitSet.
func (s *FileSplit) Name() string { return s.name }

// Len implements SplitSet.
func (s *FileSplit) Len() int { return len(s.items) }

// ClassNames implements SplitSet.
func (s *FileSplit) ClassNames() []string { return s.classNames }

// Item returns the i-th item, without decoding it.
func (s *FileSplit) Item(i int) Item { return s.items[i] }

// Sample implements SplitSet.
func (s *FileSplit) Sample(i int) (Sample, error) {
	if i < 0 || i >= len(s.items) {
		return Sample{}, errors.Errorf("split %q: index %d out of range [0, %d)", s.name, i, len(s.items))
	}
	item := s.items[i]
	img, err := DecodeImage(item.Path)
	if err != nil {
		return Sample{}, errors.WithMessagef(err, "split %q", s.name)
	}
	t, err := s.transform.Apply(img)
	if err != nil {
		return Sample{}, errors.WithMessagef(err, "split %q: transforming %q", s.name, item.Path)
	}
	return NewSample(t, item.Label, item.Metadata), nil
}

// RecordReader returns the image of the i-th record.
// It must be safe for concurrent use.
type RecordReader func(i int) (image.Image, error)

// RecordSplit is a SplitSet of fixed-format records (e.g. rows of a binary or .npy file), whose labels are
// known upfront and whose images are read on demand.
type RecordSplit struct {
	name       string
	labels     []int
	read       RecordReader
	classNames []string
	transform  Transform
}

var _ SplitSet = (*RecordSplit)(nil)

// NewRecordSplit creates a RecordSplit. It returns an error if any label is not a valid class index.
func NewRecordSplit(name string, labels []int, classNames []string, read RecordReader, transform Transform) (*RecordSplit, error) {
	if transform == nil {
		return nil, errors.Errorf("split %q: nil transform", name)
	}
	if err := validateLabels(name, slices.All(labels), len(classNames)); err != nil {
		return nil, err
	}
	return &RecordSplit{name: name, labels: labels, read: read, classNames: slices.Clone(classNames), transform: transform}, nil
}

// Name implements SplitSet.
func (s *RecordSplit) Name() string { return s.name }

// Len implements SplitSet.
func (s *RecordSplit) Len() int { return len(s.labels) }

// ClassNames implements SplitSet.
func (s *RecordSplit) ClassNames() []string { return s.classNames }

// Sample implements SplitSet.
func (s *RecordSplit) Sample(i int) (Sample, error) {
	if i < 0 || i >= len(s.labels) {
		return Sample{}, errors.Errorf("split %q: index %d out of range [0, %d)", s.name, i, len(s.labels))
	}
	img, err := s.read(i)
	if err != nil {
		return Sample{}, errors.WithMessagef(err, "split %q: reading record #%d", s.name, i)
	}
	t, err := s.transform.Apply(img)
	if err != nil {
		return Sample{}, errors.WithMessagef(err, "split %q: transforming record #%d", s.name, i)
	}
	return NewSample(t, s.labels[i], nil), nil
}

// SubsetSplit is a view over a subset of another SplitSet.
type SubsetSplit struct {
	base    SplitSet
	indices []int
}

var _ SplitSet = (*SubsetSplit)(nil)

// Subset creates a view of base restricted to indices, in the given order.
// It returns an error if any index is out of range.
func Subset(base SplitSet, indices []int) (*SubsetSplit, error) {
	n := base.Len()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, errors.Errorf("Subset of %q: index %d out of range [0, %d)", base.Name(), idx, n)
		}
	}
	return &SubsetSplit{base: base, indices: slices.Clone(indices)}, nil
}

// Name implements SplitSet.
func (s *SubsetSplit) Name() string { return s.base.Name() + "/subset" }

// Len implements SplitSet.
func (s *SubsetSplit) Len() int { return len(s.indices) }

// ClassNames implements SplitSet.
func (s *SubsetSplit) ClassNames() []string { return s.base.ClassNames() }

// Sample implements SplitSet.
func (s *SubsetSplit) Sample(i int) (Sample, error) {
	if i < 0 || i >= len(s.indices) {
		return Sample{}, errors.Errorf("split %q: index %d out of range [0, %d)", s.Name(), i, len(s.indices))
	}
	return s.base.Sample(s.indices[i])
}

// Indices returns the indices into the base split.
func (s *SubsetSplit) Indices() []int { return s.indices }

// Base returns the split this subset is a view of.
func (s *SubsetSplit) Base() SplitSet { return s.base }
