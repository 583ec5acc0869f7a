// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Len(t, r.Names(), 22)
	for _, name := range r.Names() {
		d, err := r.Lookup(string(name))
		require.NoError(t, err)
		assert.Equal(t, name, d.Name)
		assert.Positive(t, d.ClassCount, "dataset %s", name)
		assert.Positive(t, d.ImageSize, "dataset %s", name)
		assert.Positive(t, d.BatchSize, "dataset %s", name)
		assert.NotEmpty(t, d.ShotCounts, "dataset %s", name)
		assert.IsIncreasing(t, d.ShotCounts, "dataset %s", name)
		assert.LessOrEqual(t, d.Epochs.Min, d.Epochs.Max, "dataset %s", name)
		norm, found := d.NormalizationFor("resnet18")
		require.True(t, found)
		assert.Equal(t, ImageNetNormalization, norm)
	}
}

func TestTables(t *testing.T) {
	r := Default()
	testCases := []struct {
		name                                Name
		classes, imageSize, batch, tuneBatch int
		shots                               []int
		epochs                              EpochBounds
	}{
		{CIFAR10, 10, 128, 128, 128, []int{1, 5, 10}, EpochBounds{3, 5}},
		{CIFAR10C, 10, 128, 128, 128, []int{1, 5, 10}, EpochBounds{}},
		{ABIDE, 2, 200, 64, 64, []int{1, 5, 10}, EpochBounds{3, 5}},
		{DTD, 47, 128, 32, 64, []int{1, 5, 10}, EpochBounds{3, 5}},
		{Iwildcam, 183, 128, 256, 256, []int{1, 2, 5}, EpochBounds{2, 2}},
		{SUN397, 397, 128, 256, 256, []int{1, 2}, EpochBounds{2, 2}},
		{ImageNet1k, 1000, 128, 128, 128, []int{1}, EpochBounds{2, 2}},
		{TinyImageNet, 200, 128, 128, 128, []int{1, 5, 10}, EpochBounds{3, 5}},
	}
	for _, tc := range testCases {
		t.Run(string(tc.name), func(t *testing.T) {
			d := r.MustLookup(string(tc.name))
			assert.Equal(t, tc.classes, d.ClassCount)
			assert.Equal(t, tc.imageSize, d.ImageSize)
			assert.Equal(t, tc.batch, d.BatchSize)
			assert.Equal(t, tc.tuneBatch, d.TuneBatchSize)
			assert.Equal(t, tc.shots, d.ShotCounts)
			assert.Equal(t, tc.epochs, d.Epochs)
		})
	}
}

func TestUnknownDataset(t *testing.T) {
	r := Default()
	_, err := r.Lookup("MNIST")
	var unknown *UnknownDatasetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "MNIST", unknown.Name)
	assert.Panics(t, func() { r.MustLookup("MNIST") })

	// Names are case-sensitive.
	_, err = r.Lookup("cifar10")
	require.Error(t, err)
}

func TestImmutability(t *testing.T) {
	r := Default()
	d := r.MustLookup("Flowers102")
	d.ShotCounts[0] = 1000
	d.Normalization["resnet18"] = Normalization{}
	d.ClassCount = -1

	again := r.MustLookup("Flowers102")
	assert.Equal(t, []int{1, 5, 9}, again.ShotCounts)
	assert.Equal(t, ImageNetNormalization, again.Normalization["resnet18"])
	assert.Equal(t, 102, again.ClassCount)

	// Entries sharing the default shot counts don't alias each other either.
	c10 := r.MustLookup("CIFAR10")
	c10.ShotCounts[1] = 77
	assert.Equal(t, []int{1, 5, 10}, r.MustLookup("SVHN").ShotCounts)
}

func TestCustomRegistry(t *testing.T) {
	shots := []int{1, 2}
	r := New(Descriptor{Name: "Toy", ClassCount: 3, ShotCounts: shots})
	shots[0] = 9
	d, err := r.Lookup("Toy")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, d.ShotCounts)
	assert.True(t, r.Has("Toy"))
	assert.False(t, r.Has(CIFAR10))
}

func TestBackbones(t *testing.T) {
	r := Default()
	b, err := r.Backbone("clip_ViT_B_32")
	require.NoError(t, err)
	assert.Equal(t, 512, b.SourceClassCount)
	b, err = r.Backbone("clip")
	require.NoError(t, err)
	assert.Equal(t, 81, b.SourceClassCount)
	_, err = r.Backbone("alexnet")
	var unknown *UnknownBackboneError
	require.True(t, errors.As(err, &unknown))
	assert.Len(t, r.Backbones(), 10)
}
