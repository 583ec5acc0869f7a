// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
)

// wildsDataset reads a dataset of the WILDS benchmark from its on-disk layout: a directory with a metadata
// table describing every sample, from which the "train" and "test" subsets are selected.
//
// The test subset is drawn from a shifted distribution (another hospital, another camera location, later
// years), and the samples carry the domain in their metadata.
type wildsDataset struct {
	name     registry.Name
	dir      string
	url      string
	metaFile string

	// subsets returns the items of the train and test subsets, and the class names.
	subsets func(dir string, meta *table) (train, test []dataset.Item, classNames []string, err error)
}

const wildsBundleURL = "https://worksheets.codalab.org/rest/bundles/%s/contents/blob/"

var (
	camelyonAdapter = &wildsDataset{
		name:     registry.Camelyon17,
		dir:      "camelyon17_v1.0",
		url:      fmt.Sprintf(wildsBundleURL, "0xe45e15f39fb54e9d9e919556af67aabe"),
		metaFile: "metadata.csv",
		subsets:  camelyonSubsets,
	}
	iwildcamAdapter = &wildsDataset{
		name:     registry.Iwildcam,
		dir:      "iwildcam_v2.0",
		url:      fmt.Sprintf(wildsBundleURL, "0x6313da2b204647e79a14b468131fcd64"),
		metaFile: "metadata.csv",
		subsets:  iwildcamSubsets,
	}
	fmowAdapter = &wildsDataset{
		name:     registry.FMoW,
		dir:      "fmow_v1.1",
		url:      fmt.Sprintf(wildsBundleURL, "0xaec91eb7c9d548ebb15e1b5e60f966ab"),
		metaFile: "rgb_metadata.csv",
		subsets:  fmowSubsets,
	}
)

func (a *wildsDataset) Name() registry.Name { return a.name }
func (a *wildsDataset) Family() Family      { return FamilyDomainShift }

func (a *wildsDataset) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, a.dir)
	metaPath := filepath.Join(dir, a.metaFile)
	err = fetch(a.name, &opts, func() error {
		return downloader.DownloadAndUntarIfMissing(a.url, dir, "archive.tar.gz", a.metaFile, "")
	}, metaPath)
	if err != nil {
		return nil, err
	}
	meta, err := readTable(metaPath, ',')
	if err != nil {
		return nil, err
	}
	trainItems, testItems, classNames, err := a.subsets(dir, meta)
	if err != nil {
		return nil, errors.WithMessagef(err, "dataset %q", a.name)
	}
	train, err := dataset.NewFileSplit(string(a.name)+"/train", trainItems, classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	test, err := dataset.NewFileSplit(string(a.name)+"/test", testItems, classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	return newResult(a.name, train, test, classNames)
}

// Camelyon17 hospitals: training patches come from 0, 3 and 4, the test patches from 2.
var (
	camelyonTrainCenters = []int{0, 3, 4}
	camelyonTestCenter   = 2
)

// camelyonSubsets reads the patches of Camelyon17. The "split" column separates, within the training
// hospitals, the training patches (0) from the in-distribution validation ones (1).
func camelyonSubsets(dir string, meta *table) (train, test []dataset.Item, classNames []string, err error) {
	columns := []string{"patient", "node", "x_coord", "y_coord", "tumor", "center", "split", "slide"}
	values := make(map[string][]int, len(columns))
	for _, name := range columns {
		if values[name], err = meta.IntColumn(name); err != nil {
			return
		}
	}
	for row := range meta.Len() {
		patient, node := values["patient"][row], values["node"][row]
		center := values["center"][row]
		item := dataset.Item{
			Path: filepath.Join(dir, "patches",
				fmt.Sprintf("patient_%03d_node_%d", patient, node),
				fmt.Sprintf("patch_patient_%03d_node_%d_x_%d_y_%d.png", patient, node, values["x_coord"][row], values["y_coord"][row])),
			Label: values["tumor"][row],
			Metadata: dataset.Metadata{
				"hospital": strconv.Itoa(center),
				"slide":    strconv.Itoa(values["slide"][row]),
			},
		}
		switch {
		case center == camelyonTestCenter:
			test = append(test, item)
		case slices.Contains(camelyonTrainCenters, center) && values["split"][row] == 0:
			train = append(train, item)
		}
	}
	return train, test, slices.Clone(CamelyonLabels), nil
}

// iwildcamCuratedClasses is the number of categories of categories.csv kept as classes: every label
// beyond them is mapped to the IwildcamCatchAllLabel class.
const iwildcamCuratedClasses = 182

// iwildcamSubsets reads the camera-trap images of iWildCam: the "split" column names the subset, and the
// test subset comes from camera locations unseen in training.
func iwildcamSubsets(dir string, meta *table) (train, test []dataset.Item, classNames []string, err error) {
	categoriesPath := filepath.Join(dir, "categories.csv")
	categories, err := readTable(categoriesPath, ',')
	if err != nil {
		return
	}
	names, err := categories.Column("name")
	if err != nil {
		return
	}
	if len(names) < iwildcamCuratedClasses {
		err = errors.Errorf("%q lists %d categories, expected at least %d", categoriesPath, len(names), iwildcamCuratedClasses)
		return
	}
	classNames = append(slices.Clone(names[:iwildcamCuratedClasses]), IwildcamCatchAllLabel)

	cols, err := meta.Columns("split", "filename", "location_remapped")
	if err != nil {
		return
	}
	labels, err := meta.IntColumn("y")
	if err != nil {
		return
	}
	for row, split := range cols[0] {
		if split != "train" && split != "test" {
			continue
		}
		label := labels[row]
		if label < 0 {
			err = errors.Errorf("metadata row %d: negative label %d", row, label)
			return
		}
		label = min(label, iwildcamCuratedClasses)
		item := dataset.Item{
			Path:     filepath.Join(dir, "train", cols[1][row]),
			Label:    label,
			Metadata: dataset.Metadata{"location": cols[2][row]},
		}
		if split == "train" {
			train = append(train, item)
		} else {
			test = append(test, item)
		}
	}
	return train, test, classNames, nil
}

// FMoW temporal shift: training images are from before fmowTrainBeforeYear, test images from
// fmowTestFromYear on.
const (
	fmowTrainBeforeYear = 2013
	fmowTestFromYear    = 2016
)

// fmowSubsets reads the satellite images of FMoW. Rows of the "seq" split are not part of the dataset,
// and image files are numbered by their position among the remaining rows.
func fmowSubsets(dir string, meta *table) (train, test []dataset.Item, classNames []string, err error) {
	cols, err := meta.Columns("split", "category", "timestamp", "country_code")
	if err != nil {
		return
	}
	categoryIdx := make(map[string]int, len(FMoWLabels))
	for ii, name := range FMoWLabels {
		categoryIdx[name] = ii
	}
	imageIdx := 0
	for row, split := range cols[0] {
		if split == "seq" {
			continue
		}
		idx := imageIdx
		imageIdx++
		label, found := categoryIdx[cols[1][row]]
		if !found {
			err = errors.Errorf("metadata row %d: unknown category %q", row, cols[1][row])
			return
		}
		timestamp := cols[2][row]
		var year int
		if len(timestamp) >= 4 {
			year, err = strconv.Atoi(timestamp[:4])
		}
		if len(timestamp) < 4 || err != nil {
			err = errors.Errorf("metadata row %d: invalid timestamp %q", row, timestamp)
			return
		}
		item := dataset.Item{
			Path:  filepath.Join(dir, "images", fmt.Sprintf("rgb_img_%d.png", idx)),
			Label: label,
			Metadata: dataset.Metadata{
				"country": cols[3][row],
				"year":    strconv.Itoa(year),
			},
		}
		switch {
		case year < fmowTrainBeforeYear && split == "train":
			train = append(train, item)
		case year >= fmowTestFromYear && (split == "val" || split == "test"):
			test = append(test, item)
		}
	}
	return train, test, slices.Clone(FMoWLabels), nil
}
