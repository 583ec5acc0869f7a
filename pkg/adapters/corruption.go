// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"fmt"
	"image"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
	"github.com/vpdata/vpdata/pkg/support/npy"
	"k8s.io/klog/v2"
)

// UnsupportedCorruptionError is returned when the requested CIFAR10-C corruption mode is not one of
// CorruptionModes.
type UnsupportedCorruptionError struct {
	Mode string
}

// Error implements the error interface.
func (e *UnsupportedCorruptionError) Error() string {
	return fmt.Sprintf("unsupported CIFAR10-C corruption mode %q, valid modes are: %s",
		e.Mode, strings.Join(CorruptionModes, ", "))
}

const (
	// DefaultCorruptionMode is used when Variant.CorruptionMode is empty.
	DefaultCorruptionMode = "gaussian_noise"

	// CorruptionSeverities is the number of severity levels of CIFAR10-C. Each level holds the same
	// corruptionImagesPerSeverity test images of CIFAR-10, stacked in increasing order of severity.
	CorruptionSeverities        = 5
	corruptionImagesPerSeverity = 10_000

	cifar10CURL = "https://zenodo.org/record/2535967/files/CIFAR-10-C.tar"
	cifar10CDir = "CIFAR-10-C"
)

// corruptionAdapter reads CIFAR-10-C: one <mode>.npy file per corruption, with uint8 images shaped
// [N, 32, 32, 3], and their labels in labels.npy. It is a test-only dataset.
//
// Images are read lazily from the .npy file, which is kept open while the split is in use.
type corruptionAdapter struct{}

func (a *corruptionAdapter) Name() registry.Name { return registry.CIFAR10C }
func (a *corruptionAdapter) Family() Family      { return FamilyCorruption }

func (a *corruptionAdapter) Prepare(opts Options) (*Result, error) {
	mode := opts.Variant.CorruptionMode
	if mode == "" {
		mode = DefaultCorruptionMode
	}
	if !slices.Contains(CorruptionModes, mode) {
		return nil, &UnsupportedCorruptionError{Mode: mode}
	}
	severity := opts.Variant.Severity
	if severity < 0 || severity > CorruptionSeverities {
		return nil, errors.Errorf("CIFAR10-C severity must be between 1 and %d (or 0 for all), got %d",
			CorruptionSeverities, severity)
	}
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	dataDir := filepath.Join(root, cifar10CDir)
	imagesPath := filepath.Join(dataDir, mode+".npy")
	labelsPath := filepath.Join(dataDir, "labels.npy")
	err = fetch(registry.CIFAR10C, &opts, func() error {
		return downloader.DownloadAndUntarIfMissing(cifar10CURL, root, cifar10CDir+".tar", cifar10CDir, "")
	}, imagesPath, labelsPath)
	if err != nil {
		return nil, err
	}

	labels, err := readNpyInts(labelsPath)
	if err != nil {
		return nil, err
	}
	pixels, start, end, err := readCorruptionBlock(imagesPath, len(labels), severity)
	if err != nil {
		return nil, err
	}
	rowSize := cifarImageBytes
	read := func(i int) (image.Image, error) {
		return interleavedToImage(pixels[i*rowSize:(i+1)*rowSize], cifarSide, cifarSide), nil
	}
	classNames := RefineClassNames(CIFAR10Labels)
	splitName := fmt.Sprintf("%s/%s", registry.CIFAR10C, mode)
	if severity > 0 {
		splitName = fmt.Sprintf("%s/%d", splitName, severity)
	}
	test, err := dataset.NewRecordSplit(splitName, labels[start:end], classNames, read, opts.transform())
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("CIFAR10-C: corruption %q, severity %d, %d images", mode, severity, end-start)
	return newResult(registry.CIFAR10C, nil, test, classNames)
}

// readCorruptionBlock loads into memory the images of the given severity (all of them for severity 0),
// and returns them with their range [start, end) in the file.
func readCorruptionBlock(imagesPath string, numLabels, severity int) (pixels []byte, start, end int, err error) {
	images, err := npy.Open(imagesPath)
	if err != nil {
		return nil, 0, 0, err
	}
	defer func() { _ = images.Close() }()
	if err = checkCorruptionImages(images, numLabels); err != nil {
		return nil, 0, 0, err
	}
	start, end = 0, numLabels
	if severity > 0 {
		start = (severity - 1) * corruptionImagesPerSeverity
		end = min(severity*corruptionImagesPerSeverity, numLabels)
		if start >= end {
			return nil, 0, 0, errors.Errorf("CIFAR10-C file %q has %d images, no images for severity %d",
				imagesPath, numLabels, severity)
		}
	}
	pixels, err = images.ReadRows(start, end)
	if err != nil {
		return nil, 0, 0, err
	}
	return pixels, start, end, nil
}

// checkCorruptionImages verifies the images are uint8 [numLabels, 32, 32, 3] in C order.
func checkCorruptionImages(images *npy.File, numLabels int) error {
	wantShape := []int{numLabels, cifarSide, cifarSide, 3}
	if strings.TrimLeft(images.DType, "<>|=") != "u1" || !slices.Equal(images.Shape, wantShape) || images.FortranOrder {
		return errors.Errorf("CIFAR10-C images: expected uint8 array shaped %v in C order, got dtype %q shaped %v (fortran_order=%v)",
			wantShape, images.DType, images.Shape, images.FortranOrder)
	}
	return nil
}

func readNpyInts(path string) ([]int, error) {
	f, err := npy.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.ReadAllInts()
}
