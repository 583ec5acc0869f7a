// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
)

// CIFAR images are 32x32 RGB, stored as three consecutive planes (channel-first).
const (
	cifarSide       = 32
	cifarImageBytes = cifarSide * cifarSide * 3
)

// cifarAdapter reads the binary versions of CIFAR-10 and CIFAR-100.
// Each record is a header (the labels) followed by the image.
type cifarAdapter struct {
	name                           registry.Name
	dir                            string
	url, tarName, subDir, checksum string
	trainFiles, testFiles          []string
	headerSize, labelOffset        int
	labels                         []string
}

var (
	cifar10Adapter = &cifarAdapter{
		name:     registry.CIFAR10,
		dir:      "cifar10",
		url:      "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz",
		tarName:  "cifar-10-binary.tar.gz",
		subDir:   "cifar-10-batches-bin",
		checksum: "c4a38c50a1bc5f3a1c5537f2155ab9d68f9f25eb1ed8d9ddda3db29a59bca1dd",
		trainFiles: []string{"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin", "data_batch_4.bin",
			"data_batch_5.bin"},
		testFiles:   []string{"test_batch.bin"},
		headerSize:  1,
		labelOffset: 0,
		labels:      CIFAR10Labels,
	}

	// CIFAR-100 records have the coarse label followed by the fine label: only the fine label is used.
	cifar100Adapter = &cifarAdapter{
		name:        registry.CIFAR100,
		dir:         "cifar100",
		url:         "https://www.cs.toronto.edu/~kriz/cifar-100-binary.tar.gz",
		tarName:     "cifar-100-binary.tar.gz",
		subDir:      "cifar-100-binary",
		checksum:    "58a81ae192c23a4be8b1804d68e518ed807d710a4eb253b1f2a199162a40d8ec",
		trainFiles:  []string{"train.bin"},
		testFiles:   []string{"test.bin"},
		headerSize:  2,
		labelOffset: 1,
		labels:      CIFAR100FineLabels,
	}
)

func (a *cifarAdapter) Name() registry.Name { return a.name }
func (a *cifarAdapter) Family() Family      { return FamilyStandard }

func (a *cifarAdapter) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Join(root, a.dir)
	dataDir := filepath.Join(baseDir, a.subDir)
	var required []string
	for _, file := range slices.Concat(a.trainFiles, a.testFiles) {
		required = append(required, filepath.Join(dataDir, file))
	}
	err = fetch(a.name, &opts, func() error {
		return downloader.DownloadAndUntarIfMissing(a.url, baseDir, a.tarName, a.subDir, a.checksum)
	}, required...)
	if err != nil {
		return nil, err
	}

	classNames := RefineClassNames(a.labels)
	train, err := a.loadSplit("train", dataDir, a.trainFiles, classNames, &opts)
	if err != nil {
		return nil, err
	}
	test, err := a.loadSplit("test", dataDir, a.testFiles, classNames, &opts)
	if err != nil {
		return nil, err
	}
	return newResult(a.name, train, test, classNames)
}

func (a *cifarAdapter) loadSplit(split, dataDir string, files, classNames []string, opts *Options) (*dataset.RecordSplit, error) {
	pixels, labels, err := readCIFARRecords(dataDir, files, a.headerSize, a.labelOffset)
	if err != nil {
		return nil, errors.WithMessagef(err, "dataset %q", a.name)
	}
	read := func(i int) (image.Image, error) {
		return planarToImage(pixels[i*cifarImageBytes:(i+1)*cifarImageBytes], cifarSide, cifarSide), nil
	}
	return dataset.NewRecordSplit(fmt.Sprintf("%s/%s", a.name, split), labels, classNames, read, opts.transform())
}

// readCIFARRecords reads all records of the given files, returning the concatenated images and the labels.
func readCIFARRecords(dataDir string, files []string, headerSize, labelOffset int) (pixels []byte, labels []int, err error) {
	recordSize := headerSize + cifarImageBytes
	for _, file := range files {
		path := filepath.Join(dataDir, file)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read data file %q", path)
		}
		if len(data)%recordSize != 0 {
			return nil, nil, errors.Errorf("data file %q has %d bytes, not a multiple of the record size %d",
				path, len(data), recordSize)
		}
		for pos := 0; pos < len(data); pos += recordSize {
			labels = append(labels, int(data[pos+labelOffset]))
			pixels = append(pixels, data[pos+headerSize:pos+recordSize]...)
		}
	}
	return pixels, labels, nil
}

// planarToImage converts an image stored as 3 channel planes (R, G and B) to an image.
func planarToImage(pix []byte, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	plane := width * height
	for y := range height {
		for x := range width {
			src := y*width + x
			dst := y*img.Stride + 4*x
			img.Pix[dst] = pix[src]
			img.Pix[dst+1] = pix[plane+src]
			img.Pix[dst+2] = pix[2*plane+src]
			img.Pix[dst+3] = 255
		}
	}
	return img
}

// interleavedToImage converts an image stored as height x width x 3 (RGB) bytes to an image.
func interleavedToImage(pix []byte, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			src := 3 * (y*width + x)
			dst := y*img.Stride + 4*x
			copy(img.Pix[dst:dst+3], pix[src:src+3])
			img.Pix[dst+3] = 255
		}
	}
	return img
}
