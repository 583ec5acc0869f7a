// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
)

func itemPaths(split dataset.SplitSet) []string {
	fileSplit := split.(*dataset.FileSplit)
	paths := make([]string, fileSplit.Len())
	for ii := range paths {
		paths[ii] = fileSplit.Item(ii).Path
	}
	return paths
}

func TestPartition(t *testing.T) {
	items := make([]dataset.Item, 100)
	for ii := range items {
		items[ii] = dataset.Item{Path: fmt.Sprintf("img_%03d.png", ii), Label: ii % 3}
	}
	train, test := Partition(items, 7, DefaultTestFraction)
	assert.Len(t, test, 20)
	assert.Len(t, train, 80)

	// Disjoint and complete.
	seen := make(map[string]bool)
	for _, item := range slices.Concat(train, test) {
		assert.False(t, seen[item.Path], "item %q in both splits", item.Path)
		seen[item.Path] = true
	}
	assert.Len(t, seen, 100)

	// Independent of the listing order.
	reversed := slices.Clone(items)
	slices.Reverse(reversed)
	train2, test2 := Partition(reversed, 7, DefaultTestFraction)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	// Another seed gives another partition.
	_, test3 := Partition(items, 8, DefaultTestFraction)
	assert.NotEqual(t, test, test3)

	// Degenerate cases.
	train, test = Partition(nil, 1, DefaultTestFraction)
	assert.Empty(t, train)
	assert.Empty(t, test)
	train, test = Partition(items[:1], 1, 1.5)
	assert.Empty(t, train)
	assert.Len(t, test, 1)
}

func TestMelanoma(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Melanoma")
	var meta strings.Builder
	meta.WriteString("lesion_id,image_id,dx,dx_type,age,sex,localization\n")
	for ii := range 10 {
		dx := MelanomaLabels[ii%len(MelanomaLabels)]
		fmt.Fprintf(&meta, "HAM_%07d,ISIC_%07d,%s,histo,50.0,male,back\n", ii, ii, dx)
		writeImage(t, filepath.Join(dir, "images", fmt.Sprintf("ISIC_%07d.jpg", ii)), uint8(20*ii))
	}
	writeFile(t, filepath.Join(dir, "HAM10000_metadata.csv"), meta.String())

	opts := testOptions(root)
	result, err := melanomaAdapter.Prepare(opts)
	require.NoError(t, err)
	checkResult(t, registry.Melanoma, result, true)
	assert.Equal(t, 8, result.Train.Len())
	assert.Equal(t, 2, result.Test.Len())
	sample := sampleAt(t, result.Test, 0)
	assert.Equal(t, "back", sample.Metadata["localization"])

	// Same seed, same partition.
	again, err := melanomaAdapter.Prepare(opts)
	require.NoError(t, err)
	assert.Equal(t, itemPaths(result.Test), itemPaths(again.Test))
	assert.Equal(t, itemPaths(result.Train), itemPaths(again.Train))

	writeFile(t, filepath.Join(dir, "HAM10000_metadata.csv"),
		"lesion_id,image_id,dx,localization\nHAM_1,ISIC_1,unknown,back\n")
	_, err = melanomaAdapter.Prepare(opts)
	require.Error(t, err)
}

func TestABIDE(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ABIDE")
	writeFile(t, filepath.Join(dir, "Phenotypic.csv"),
		"SUB_ID,FILE_ID,DX_GROUP\n"+
			"50003,Pitt_0050003,1\n"+
			"50004,no_filename,2\n"+
			"50005,Pitt_0050005,2\n"+
			"50006,Pitt_0050006,2\n"+ // No image.
			"50007,Pitt_0050007,1\n"+
			"50008,Pitt_0050008,2\n"+
			"50009,Pitt_0050009,1\n")
	for _, id := range []string{"Pitt_0050003", "Pitt_0050005", "Pitt_0050007", "Pitt_0050008", "Pitt_0050009"} {
		writeImage(t, filepath.Join(dir, "images", id+".png"), 120)
	}
	result, err := abideAdapter.Prepare(testOptions(root))
	require.NoError(t, err)
	checkResult(t, registry.ABIDE, result, true)
	assert.Equal(t, []string{"Autism", "Control"}, result.ClassNames)
	assert.Equal(t, 5, result.Train.Len()+result.Test.Len())
	assert.Equal(t, 1, result.Test.Len())
}

func TestSpawrious(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "spawrious224", "0")
	for ii, path := range []string{
		"beach/corgi/0.png", "beach/labrador/1.png", "desert/bulldog/2.png", "desert/dachshund/3.png", "jungle/corgi/4.png",
	} {
		writeImage(t, filepath.Join(dir, path), uint8(ii))
	}
	result, err := spawriousAdapter.Prepare(testOptions(root))
	require.NoError(t, err)
	checkResult(t, registry.Spawrious, result, true)
	assert.Equal(t, 4, result.Train.Len())
	assert.Equal(t, 1, result.Test.Len())

	all := slices.Concat(itemPaths(result.Train), itemPaths(result.Test))
	labels := slices.Concat(labelsOf(t, result.Train), labelsOf(t, result.Test))
	for ii, path := range all {
		breed := filepath.Base(filepath.Dir(path))
		assert.Equal(t, breed, result.ClassNames[labels[ii]])
	}
	sample := sampleAt(t, result.Test, 0)
	assert.Contains(t, []string{"beach", "desert", "jungle"}, sample.Metadata["background"])

	// Unknown breeds are rejected.
	writeImage(t, filepath.Join(dir, "beach", "poodle", "5.png"), 0)
	_, err = spawriousAdapter.Prepare(testOptions(root))
	require.Error(t, err)
}

func TestImageNet1k(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ImageNet1k")
	for ii := range 5 {
		writeImage(t, filepath.Join(dir, "great_white-shark", fmt.Sprintf("%d.jpg", ii)), 1)
		writeImage(t, filepath.Join(dir, "Goldfish", fmt.Sprintf("%d.jpg", ii)), 2)
	}
	result, err := imagenetAdapter.Prepare(testOptions(root))
	require.NoError(t, err)
	checkResult(t, registry.ImageNet1k, result, false)
	assert.Equal(t, []string{"goldfish", "great white shark"}, result.ClassNames)
	assert.Equal(t, 8, result.Train.Len())
	assert.Equal(t, 2, result.Test.Len())
}

func TestCustomMissing(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.Download = true
	for _, adapter := range []Adapter{abideAdapter, melanomaAdapter, spawriousAdapter, imagenetAdapter} {
		_, err := adapter.Prepare(opts)
		var notFound *dataset.DatasetNotFoundError
		require.ErrorAs(t, err, &notFound, "dataset %s", adapter.Name())
		assert.Equal(t, string(adapter.Name()), notFound.Dataset)
	}
}
