// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/registry"
)

// Transform converts a decoded image to the tensor served in a Sample.
//
// Implementations must be safe for concurrent use, since a Loader may call Apply from several workers.
type Transform interface {
	Apply(img image.Image) (*Tensor, error)
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(img image.Image) (*Tensor, error)

// Apply implements Transform.
func (fn TransformFunc) Apply(img image.Image) (*Tensor, error) {
	return fn(img)
}

// Pipeline is the standard Transform: conversion to an RGB float tensor with values in [0, 1], optionally
// resized and normalized. It is configured with chained calls, e.g.:
//
//	transform := dataset.NewPipeline().Resize(128).Normalize(registry.ImageNetNormalization)
//
// Configure it before use: it is read-only (and safe for concurrent use) afterward.
type Pipeline struct {
	size      int
	filter    imaging.ResampleFilter
	normalize *registry.Normalization
}

// NewPipeline returns a Pipeline that only converts images to tensors.
func NewPipeline() *Pipeline {
	return &Pipeline{filter: imaging.Linear}
}

// DefaultTransform is tensor conversion followed by a resize to size x size.
//
// The aspect ratio is not preserved: the image is stretched to the square, so every sample of a split has
// the same shape and can be batched. Use a custom Transform to match the shorter edge and crop instead.
//
// It deliberately doesn't normalize: callers that need normalization compose it with Pipeline.Normalize,
// or provide their own Transform.
func DefaultTransform(size int) *Pipeline {
	return NewPipeline().Resize(size)
}

// Resize configures the Pipeline to resize images to size x size. A size <= 0 disables resizing.
//
// It returns the Pipeline, so configuration calls can be cascaded.
func (p *Pipeline) Resize(size int) *Pipeline {
	p.size = size
	return p
}

// Filter sets the resampling filter used when resizing. Default is imaging.Linear (bilinear).
func (p *Pipeline) Filter(filter imaging.ResampleFilter) *Pipeline {
	p.filter = filter
	return p
}

// Normalize configures the Pipeline to subtract the per-channel mean and divide by the standard deviation.
func (p *Pipeline) Normalize(norm registry.Normalization) *Pipeline {
	p.normalize = &norm
	return p
}

// Size returns the configured resize target, or 0 if not resizing.
func (p *Pipeline) Size() int {
	return p.size
}

// Apply implements Transform.
func (p *Pipeline) Apply(img image.Image) (*Tensor, error) {
	if img == nil {
		return nil, errors.New("Pipeline.Apply: nil image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.Errorf("Pipeline.Apply: empty image with bounds %s", bounds)
	}
	var nrgba *image.NRGBA
	if p.size > 0 && (bounds.Dx() != p.size || bounds.Dy() != p.size) {
		nrgba = imaging.Resize(img, p.size, p.size, p.filter)
	} else {
		nrgba = imaging.Clone(img)
	}
	t := ToTensor(nrgba)
	if p.normalize != nil {
		for c := range 3 {
			mean, std := float32(p.normalize.Mean[c]), float32(p.normalize.Std[c])
			if std == 0 {
				return nil, errors.Errorf("Pipeline.Apply: normalization std for channel %d is 0", c)
			}
			channel := t.Data[c*t.Height*t.Width : (c+1)*t.Height*t.Width]
			for ii, v := range channel {
				channel[ii] = (v - mean) / std
			}
		}
	}
	return t, nil
}

// ToTensor converts an image to a 3-channel (RGB) CHW tensor with values in [0, 1]. Alpha is dropped.
func ToTensor(img *image.NRGBA) *Tensor {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	t := NewTensor(3, height, width)
	plane := width * height
	for y := range height {
		row := img.Pix[y*img.Stride : y*img.Stride+4*width]
		for x := range width {
			pos := y*width + x
			t.Data[pos] = float32(row[4*x]) / 255
			t.Data[plane+pos] = float32(row[4*x+1]) / 255
			t.Data[2*plane+pos] = float32(row[4*x+2]) / 255
		}
	}
	return t
}
