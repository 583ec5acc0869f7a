// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package prepare

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpdata/vpdata/pkg/adapters"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
)

// fakeAdapter returns in-memory splits of numSamples uniform 2x2 images, and records the options it got.
type fakeAdapter struct {
	name       registry.Name
	family     adapters.Family
	numClasses int
	testOnly   bool
	got        adapters.Options
}

func (a *fakeAdapter) Name() registry.Name      { return a.name }
func (a *fakeAdapter) Family() adapters.Family { return a.family }

func (a *fakeAdapter) Prepare(opts adapters.Options) (*adapters.Result, error) {
	a.got = opts
	classNames := make([]string, a.numClasses)
	for ii := range classNames {
		classNames[ii] = fmt.Sprintf("class %d", ii)
	}
	labels := make([]int, 10)
	for ii := range labels {
		labels[ii] = ii % a.numClasses
	}
	read := func(i int) (image.Image, error) { return image.NewGray(image.Rect(0, 0, 2, 2)), nil }
	test, err := dataset.NewRecordSplit(string(a.name)+"/test", labels, classNames, read, opts.Transform)
	if err != nil {
		return nil, err
	}
	result := &adapters.Result{Test: test, ClassNames: classNames}
	if !a.testOnly {
		result.Train = must.M1(dataset.NewRecordSplit(string(a.name)+"/train", labels, classNames, read, opts.Transform))
		result.RawTrain = result.Train
	}
	return result, nil
}

func newFakeDispatcher(fakes ...*fakeAdapter) *Dispatcher {
	all := make(map[registry.Name]adapters.Adapter, len(fakes))
	for _, fake := range fakes {
		all[fake.name] = fake
	}
	return NewWithAdapters(registry.Default(), all)
}

func TestDispatchLoaderPolicy(t *testing.T) {
	standard := &fakeAdapter{name: registry.EuroSAT, family: adapters.FamilyStandard, numClasses: 10}
	archive := &fakeAdapter{name: registry.TinyImageNet, family: adapters.FamilyArchive, numClasses: 200}
	corruption := &fakeAdapter{name: registry.CIFAR10C, family: adapters.FamilyCorruption, numClasses: 10, testOnly: true}
	d := newFakeDispatcher(standard, archive, corruption)

	prepared, err := d.Dispatch("EuroSAT", Options{Root: t.TempDir()})
	require.NoError(t, err)
	require.NotNil(t, prepared.TrainLoader)
	assert.True(t, prepared.TrainLoader.Shuffle())
	assert.Equal(t, DefaultWorkers, prepared.TrainLoader.Workers())
	assert.False(t, prepared.TestLoader.Shuffle())
	assert.Equal(t, 128, prepared.TrainLoader.BatchSize())
	assert.Equal(t, prepared.TrainSplit, prepared.TrainLoader.Split())
	assert.Equal(t, registry.EuroSAT, prepared.Descriptor.Name)
	assert.Len(t, prepared.ClassNames, 10)

	// Options filled from the descriptor.
	assert.Equal(t, 128, standard.got.ImageSize)
	assert.Equal(t, int64(DefaultSeed), standard.got.Seed)
	assert.Equal(t, registry.EuroSAT, standard.got.Descriptor.Name)
	require.NotNil(t, standard.got.Transform)
	assert.Equal(t, 128, standard.got.Transform.(*dataset.Pipeline).Size())

	prepared, err = d.Dispatch(string(registry.TinyImageNet), Options{Root: t.TempDir(), BatchSize: 3})
	require.NoError(t, err)
	assert.Equal(t, ArchiveWorkers, prepared.TrainLoader.Workers())
	assert.Equal(t, 3, prepared.TrainLoader.BatchSize())
	assert.Equal(t, 4, prepared.TestLoader.NumBatches())

	prepared, err = d.Dispatch(string(registry.CIFAR10C), Options{Root: t.TempDir()})
	require.NoError(t, err)
	assert.Nil(t, prepared.TrainLoader)
	assert.Nil(t, prepared.TrainSplit)
	require.NotNil(t, prepared.TestLoader)
}

func TestDispatchOptions(t *testing.T) {
	fake := &fakeAdapter{name: registry.ABIDE, family: adapters.FamilyCustom, numClasses: 2}
	d := newFakeDispatcher(fake)

	transform := dataset.NewPipeline().Resize(4)
	_, err := d.Dispatch("ABIDE", Options{Root: "~/data", Seed: 42, Transform: transform, ImageSize: 64, Backbone: "clip"})
	require.NoError(t, err)
	assert.Same(t, transform, fake.got.Transform)
	assert.Equal(t, int64(42), fake.got.Seed)
	assert.Equal(t, 64, fake.got.ImageSize)
	assert.Equal(t, registry.ImageNetNormalization, fake.got.Normalization)

	_, err = d.Dispatch("ABIDE", Options{Root: "/data", Backbone: "alexnet"})
	var unknownBackbone *registry.UnknownBackboneError
	require.ErrorAs(t, err, &unknownBackbone)

	_, err = d.Dispatch("ABIDE", Options{})
	require.Error(t, err, "Root must be set")

	_, err = d.Dispatch("ABIDE", Options{Root: "/data", BatchSize: -1})
	require.Error(t, err)
}

func TestDispatchErrors(t *testing.T) {
	d := New(registry.Default())
	for _, name := range []string{"bogus", "DR", "SUN397", "cifar10"} {
		_, err := d.Dispatch(name, Options{Root: t.TempDir()})
		var unsupported *UnsupportedDatasetError
		require.ErrorAs(t, err, &unsupported, "dataset %q", name)
		assert.Equal(t, name, unsupported.Name)
	}

	// Adapter without registry entry.
	d = New(registry.New())
	_, err := d.Dispatch("CIFAR10", Options{Root: t.TempDir()})
	var mismatch *ConfigurationMismatchError
	require.ErrorAs(t, err, &mismatch)

	// Adapter errors are passed through.
	d = New(registry.Default())
	_, err = d.Dispatch("CIFAR10", Options{Root: t.TempDir()})
	var notFound *dataset.DatasetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.False(t, errors.As(err, &mismatch))
}

// writeCIFAR10 writes a CIFAR-10 binary fixture with 2 images per batch file, labeled 0 and 7.
func writeCIFAR10(t *testing.T, root string) {
	dataDir := filepath.Join(root, "cifar10", "cifar-10-batches-bin")
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	const imageBytes = 32 * 32 * 3
	var records bytes.Buffer
	for _, label := range []byte{0, 7} {
		records.WriteByte(label)
		records.Write(bytes.Repeat([]byte{label * 20}, imageBytes))
	}
	for _, file := range []string{"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin", "data_batch_4.bin",
		"data_batch_5.bin", "test_batch.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, file), records.Bytes(), 0644))
	}
}

func TestDispatchCIFAR10(t *testing.T) {
	root := t.TempDir()
	writeCIFAR10(t, root)
	d := New(registry.Default())
	prepared, err := d.Dispatch("CIFAR10", Options{Root: root, ImageSize: 16, BatchSize: 4})
	require.NoError(t, err)
	assert.Equal(t, prepared.Descriptor.ClassCount, len(prepared.ClassNames))
	assert.Equal(t, 10, prepared.TrainLoader.Len())
	assert.Equal(t, 2, prepared.TestLoader.Len())

	var count int
	for {
		batch, err := prepared.TrainLoader.Yield()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		for _, sample := range batch.Samples {
			assert.Equal(t, [3]int{3, 16, 16}, sample.Image.Shape())
			assert.Contains(t, []int{0, 7}, sample.Label)
			assert.InDelta(t, float64(sample.Label*20)/255, sample.Image.At(0, 5, 5), 1e-3)
			assert.NotNil(t, sample.Metadata)
		}
		count += batch.Len()
	}
	assert.Equal(t, 10, count)

	// Test loader order is the split order.
	batch, err := prepared.TestLoader.Yield()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, batch.Indices)
	assert.Equal(t, []int{0, 7}, batch.Labels())

	// Class count mismatch between registry and dataset.
	d = New(registry.New(registry.Descriptor{Name: registry.CIFAR10, ClassCount: 3, ImageSize: 16, BatchSize: 4}))
	_, err = d.Dispatch("CIFAR10", Options{Root: root})
	var mismatch *ConfigurationMismatchError
	require.ErrorAs(t, err, &mismatch)
}
