// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
)

func TestAdapters(t *testing.T) {
	all := Adapters()
	assert.Len(t, all, 19)
	reg := registry.Default()
	for name, adapter := range all {
		assert.Equal(t, name, adapter.Name())
		assert.True(t, reg.Has(name), "adapter %q has no registry entry", name)
	}
	for _, name := range []registry.Name{registry.DR, registry.StanfordCars, registry.SUN397} {
		assert.NotContains(t, all, name)
	}
	assert.True(t, slices.IsSorted(Names()))

	families := map[registry.Name]Family{
		registry.CIFAR10:      FamilyStandard,
		registry.UCF101:       FamilyStandard,
		registry.Camelyon17:   FamilyDomainShift,
		registry.FMoW:         FamilyDomainShift,
		registry.Spawrious:    FamilyCustom,
		registry.ImageNet1k:   FamilyCustom,
		registry.CIFAR10C:     FamilyCorruption,
		registry.TinyImageNet: FamilyArchive,
	}
	for name, family := range families {
		assert.Equal(t, family, all[name].Family(), "dataset %s", name)
	}
	assert.Equal(t, "domain-shift", FamilyDomainShift.String())
}

func TestRefineClassNames(t *testing.T) {
	names := []string{"Apply_Eye_Makeup", "multi-unit_residential", "tabby cat"}
	refined := RefineClassNames(names)
	assert.Equal(t, []string{"apply eye makeup", "multi unit residential", "tabby cat"}, refined)
	assert.Equal(t, "Apply_Eye_Makeup", names[0], "input must not be modified")
}

func TestDatasetNotFound(t *testing.T) {
	root := t.TempDir()
	for _, name := range []registry.Name{registry.CIFAR10, registry.SVHN, registry.Flowers102, registry.Camelyon17,
		registry.CIFAR10C, registry.TinyImageNet} {
		_, err := Adapters()[name].Prepare(testOptions(root))
		var notFound *dataset.DatasetNotFoundError
		require.ErrorAs(t, err, &notFound, "dataset %s", name)
		assert.Equal(t, string(name), notFound.Dataset)
	}

	// The CoOp split files have no download, even when downloading is allowed.
	opts := testOptions(root)
	opts.Download = true
	_, err := eurosatAdapter.Prepare(opts)
	var notFound *dataset.DatasetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, filepath.Join(root, "eurosat", "split_zhou_EuroSAT.json"), notFound.Path)

	_, err = cifar10Adapter.Prepare(Options{})
	require.Error(t, err, "Root must be set")
}

func TestFetch(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "data")
	opts := &Options{Root: root, Download: true}

	// The archive was extracted but didn't create the expected directory.
	err := fetch(registry.CIFAR10, opts, func() error {
		return errors.WithMessage(&downloader.MissingDirError{URL: "http://x", Archive: "x.tar.gz", Dir: path}, "fetching")
	}, path)
	var corrupted *dataset.ArchiveCorruptionError
	require.ErrorAs(t, err, &corrupted)
	assert.Equal(t, "x.tar.gz", corrupted.Archive)

	// The download reported success, but the files are still missing.
	err = fetch(registry.CIFAR10, opts, func() error { return nil }, path)
	require.ErrorAs(t, err, &corrupted)

	// Other download failures are passed through.
	err = fetch(registry.CIFAR10, opts, func() error { return errors.New("connection refused") }, path)
	require.Error(t, err)
	assert.False(t, errors.As(err, &corrupted))

	// Nothing is downloaded when the files are there.
	writeFile(t, path, "x")
	err = fetch(registry.CIFAR10, opts, func() error { t.Fatal("unexpected download"); return nil }, path)
	require.NoError(t, err)
}
