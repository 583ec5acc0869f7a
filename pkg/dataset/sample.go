// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

// Package dataset defines the uniform data model shared by every dataset: samples, splits and batch loaders.
//
// A SplitSet is an ordered, finite collection of labeled samples plus the ordered class names, such that
// ClassNames()[sample.Label] names the sample. Samples are decoded lazily, when requested, and a Loader
// groups them in batches, optionally shuffled and decoded in parallel.
package dataset

import (
	"fmt"
	"maps"
)

// Tensor is a dense image tensor, in channels-first (CHW) layout.
type Tensor struct {
	Channels, Height, Width int
	Data                    []float32
}

// NewTensor creates a zero-initialized tensor with the given dimensions.
func NewTensor(channels, height, width int) *Tensor {
	return &Tensor{
		Channels: channels,
		Height:   height,
		Width:    width,
		Data:     make([]float32, channels*height*width),
	}
}

// At returns the value at the given channel, row and column.
func (t *Tensor) At(channel, y, x int) float32 {
	return t.Data[(channel*t.Height+y)*t.Width+x]
}

// Set the value at the given channel, row and column.
func (t *Tensor) Set(channel, y, x int, value float32) {
	t.Data[(channel*t.Height+y)*t.Width+x] = value
}

// Shape returns the dimensions (channels, height, width).
func (t *Tensor) Shape() [3]int {
	return [3]int{t.Channels, t.Height, t.Width}
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%d, %d, %d]", t.Channels, t.Height, t.Width)
}

// Metadata holds per-sample extra information, e.g. the domain (hospital, camera location, region) of
// distribution-shift datasets.
type Metadata map[string]string

// Sample is one labeled example.
type Sample struct {
	Image *Tensor
	Label int

	// Metadata is never nil, even for datasets that have no metadata.
	Metadata Metadata
}

// NewSample creates a Sample, with a copy of metadata (nil metadata becomes an empty map).
func NewSample(image *Tensor, label int, metadata Metadata) Sample {
	md := make(Metadata, len(metadata))
	maps.Copy(md, metadata)
	return Sample{Image: image, Label: label, Metadata: md}
}
