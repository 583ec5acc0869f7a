// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
)

// gtsrbDataset reads the German Traffic Sign Recognition Benchmark: training images in one directory
// per class id ("00000" to "00042"), test images in a flat directory with labels in a ";"-separated
// ground-truth table. Images are in PPM format.
type gtsrbDataset struct{}

var gtsrbAdapter = &gtsrbDataset{}

const gtsrbBaseURL = "https://sid.erda.dk/public/archives/daaeac0d7ce1152aea9b61d9f1e19370/"

func (a *gtsrbDataset) Name() registry.Name { return registry.GTSRB }
func (a *gtsrbDataset) Family() Family      { return FamilyStandard }

func (a *gtsrbDataset) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Join(root, "gtsrb")
	trainDir := filepath.Join(baseDir, "GTSRB", "Training")
	testDir := filepath.Join(baseDir, "GTSRB", "Final_Test", "Images")
	groundTruth := filepath.Join(baseDir, "GT-final_test.csv")
	err = fetch(registry.GTSRB, &opts, func() error {
		downloads := []struct{ zip, target string }{
			{"GTSRB-Training_fixed.zip", trainDir},
			{"GTSRB_Final_Test_Images.zip", testDir},
			{"GTSRB_Final_Test_GT.zip", groundTruth},
		}
		for _, d := range downloads {
			err := downloader.DownloadAndUnzipIfMissing(gtsrbBaseURL+d.zip, filepath.Join(baseDir, d.zip), baseDir, d.target, "")
			if err != nil {
				return err
			}
		}
		return nil
	}, trainDir, testDir, groundTruth)
	if err != nil {
		return nil, err
	}

	classNames := RefineClassNames(GTSRBLabels)
	classDirs := make([]string, len(GTSRBLabels))
	for ii := range classDirs {
		classDirs[ii] = fmt.Sprintf("%05d", ii)
	}
	trainItems, _, err := dataset.ScanImageFolder(trainDir, classDirs)
	if err != nil {
		return nil, errors.WithMessagef(err, "dataset %q", registry.GTSRB)
	}
	train, err := dataset.NewFileSplit("GTSRB/train", trainItems, classNames, opts.transform())
	if err != nil {
		return nil, err
	}

	gt, err := readTable(groundTruth, ';')
	if err != nil {
		return nil, err
	}
	cols, err := gt.Columns("Filename", "ClassId")
	if err != nil {
		return nil, err
	}
	testItems := make([]dataset.Item, gt.Len())
	for ii := range testItems {
		label, err := strconv.Atoi(cols[1][ii])
		if err != nil {
			return nil, errors.Wrapf(err, "ground truth %q, row %d: invalid ClassId", groundTruth, ii)
		}
		testItems[ii] = dataset.Item{Path: filepath.Join(testDir, cols[0][ii]), Label: label}
	}
	test, err := dataset.NewFileSplit("GTSRB/test", testItems, classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	return newResult(registry.GTSRB, train, test, classNames)
}
