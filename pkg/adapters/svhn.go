// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"image"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
	"k8s.io/klog/v2"
)

// svhnDataset reads the "cropped digits" format of SVHN: Matlab files with a 32x32x3xN uint8 matrix "X"
// and the labels "y", where the digit 0 is labeled 10.
type svhnDataset struct{}

var svhnAdapter = &svhnDataset{}

const svhnBaseURL = "http://ufldl.stanford.edu/housenumbers/"

func (a *svhnDataset) Name() registry.Name { return registry.SVHN }
func (a *svhnDataset) Family() Family      { return FamilyStandard }

func (a *svhnDataset) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, "svhn")
	files := []string{"train_32x32.mat", "test_32x32.mat"}
	paths := []string{filepath.Join(dir, files[0]), filepath.Join(dir, files[1])}
	err = fetch(registry.SVHN, &opts, func() error {
		for ii, file := range files {
			if err := downloader.DownloadIfMissing(svhnBaseURL+file, paths[ii], ""); err != nil {
				return err
			}
		}
		return nil
	}, paths...)
	if err != nil {
		return nil, err
	}

	classNames := RefineClassNames(SVHNLabels)
	var splits [2]*dataset.RecordSplit
	for ii, split := range []string{"train", "test"} {
		pixels, labels, err := readSVHN(paths[ii])
		if err != nil {
			return nil, err
		}
		read := func(i int) (image.Image, error) {
			return planarToImage(pixels[i*cifarImageBytes:(i+1)*cifarImageBytes], cifarSide, cifarSide), nil
		}
		splits[ii], err = dataset.NewRecordSplit("SVHN/"+split, labels, classNames, read, opts.transform())
		if err != nil {
			return nil, err
		}
	}
	return newResult(registry.SVHN, splits[0], splits[1], classNames)
}

// readSVHN returns the images converted to the planar (channel, row, column) layout, and the labels.
func readSVHN(path string) (pixels []byte, labels []int, err error) {
	vars, err := readMatlabVars(path, "X", "y")
	if err != nil {
		return nil, nil, err
	}
	labels, err = toInts(vars["y"])
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "labels \"y\" in SVHN file %q", path)
	}
	for ii, label := range labels {
		if label == 10 {
			labels[ii] = 0
		}
	}
	values := vars["X"]
	if len(values) != len(labels)*cifarImageBytes {
		return nil, nil, errors.Errorf("SVHN file %q has %d pixel values for %d labels, expected %d",
			path, len(values), len(labels), len(labels)*cifarImageBytes)
	}
	klog.V(1).Infof("SVHN: read %d images from %q", len(labels), path)

	// X is 32x32x3xN in column-major order: element (row, col, channel, n) is at
	// row + 32*col + 1024*channel + 3072*n.
	const plane = cifarSide * cifarSide
	pixels = make([]byte, len(values))
	for n := range labels {
		base := n * cifarImageBytes
		for channel := range 3 {
			for col := range cifarSide {
				for row := range cifarSide {
					src := base + channel*plane + col*cifarSide + row
					v, ok := values[src].(uint8)
					if !ok {
						i, err := toInt(values[src])
						if err != nil {
							return nil, nil, errors.WithMessagef(err, "images \"X\" in SVHN file %q", path)
						}
						v = byte(i)
					}
					pixels[base+channel*plane+row*cifarSide+col] = v
				}
			}
		}
	}
	return pixels, labels, nil
}
