// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/fsutil"
	"k8s.io/klog/v2"
)

// customDataset reads a dataset without an official train/test split, stored in a local layout.
// The listed items are partitioned with Partition, seeded by Options.Seed.
//
// None of them is downloadable: they must be placed under the root directory beforehand.
type customDataset struct {
	name registry.Name
	dir  string

	// list returns all the items of the dataset, and the class names.
	list func(dir string) (items []dataset.Item, classNames []string, err error)
}

var (
	abideAdapter     = &customDataset{name: registry.ABIDE, dir: "ABIDE", list: listABIDE}
	melanomaAdapter  = &customDataset{name: registry.Melanoma, dir: "Melanoma", list: listMelanoma}
	spawriousAdapter = &customDataset{name: registry.Spawrious, dir: filepath.Join("spawrious224", "0"), list: listSpawrious}
	imagenetAdapter  = &customDataset{name: registry.ImageNet1k, dir: "ImageNet1k", list: listImageNet}
)

func (a *customDataset) Name() registry.Name { return a.name }
func (a *customDataset) Family() Family      { return FamilyCustom }

func (a *customDataset) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, a.dir)
	if err = requirePaths(a.name, "no public download available, place the dataset there", dir); err != nil {
		return nil, err
	}
	items, classNames, err := a.list(dir)
	if err != nil {
		return nil, errors.WithMessagef(err, "dataset %q", a.name)
	}
	if len(items) == 0 {
		return nil, &dataset.DatasetNotFoundError{Dataset: string(a.name), Path: dir, Reason: "no images found"}
	}
	train, test, err := partitionSplits(string(a.name), items, classNames, &opts)
	if err != nil {
		return nil, err
	}
	return newResult(a.name, train, test, classNames)
}

// listABIDE reads the ABIDE phenotypic table: each subject FILE_ID has its connectivity rendered as
// images/<FILE_ID>.png, and DX_GROUP is 1 for autism, 2 for control. Subjects without a file or without
// a rendered image are skipped.
func listABIDE(dir string) (items []dataset.Item, classNames []string, err error) {
	phenotypic, err := readTable(filepath.Join(dir, "Phenotypic.csv"), ',')
	if err != nil {
		return nil, nil, err
	}
	fileIDs, err := phenotypic.Column("FILE_ID")
	if err != nil {
		return nil, nil, err
	}
	groups, err := phenotypic.IntColumn("DX_GROUP")
	if err != nil {
		return nil, nil, err
	}
	var skipped int
	for row, fileID := range fileIDs {
		if fileID == "" || fileID == "no_filename" {
			skipped++
			continue
		}
		label := groups[row] - 1
		if label < 0 || label >= len(ABIDELabels) {
			return nil, nil, errors.Errorf("Phenotypic.csv, row %d: invalid DX_GROUP %d", row, groups[row])
		}
		path := filepath.Join(dir, "images", fileID+".png")
		exists, err := fsutil.FileExists(path)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			klog.V(2).Infof("ABIDE: no image for subject %q", fileID)
			skipped++
			continue
		}
		items = append(items, dataset.Item{Path: path, Label: label, Metadata: dataset.Metadata{"file_id": fileID}})
	}
	if skipped > 0 {
		klog.Warningf("ABIDE: skipped %s subjects without image", humanize.Comma(int64(skipped)))
	}
	return items, slices.Clone(ABIDELabels), nil
}

// listMelanoma reads the HAM10000 metadata: image_id names images/<image_id>.jpg, and dx is the diagnosis.
func listMelanoma(dir string) (items []dataset.Item, classNames []string, err error) {
	meta, err := readTable(filepath.Join(dir, "HAM10000_metadata.csv"), ',')
	if err != nil {
		return nil, nil, err
	}
	cols, err := meta.Columns("image_id", "dx", "localization")
	if err != nil {
		return nil, nil, err
	}
	dxIdx := make(map[string]int, len(MelanomaLabels))
	for ii, dx := range MelanomaLabels {
		dxIdx[dx] = ii
	}
	items = make([]dataset.Item, len(cols[0]))
	for row, imageID := range cols[0] {
		label, found := dxIdx[cols[1][row]]
		if !found {
			return nil, nil, errors.Errorf("HAM10000_metadata.csv, row %d: unknown diagnosis %q", row, cols[1][row])
		}
		items[row] = dataset.Item{
			Path:     filepath.Join(dir, "images", imageID+".jpg"),
			Label:    label,
			Metadata: dataset.Metadata{"localization": cols[2][row]},
		}
	}
	return items, slices.Clone(MelanomaLabels), nil
}

// listSpawrious reads the Spawrious images organized as <background>/<breed>/<image>: the background is
// the spurious attribute, kept in the sample metadata.
func listSpawrious(dir string) (items []dataset.Item, classNames []string, err error) {
	backgrounds, err := fsutil.SubDirs(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, background := range backgrounds {
		bgItems, _, err := dataset.ScanImageFolder(filepath.Join(dir, background), SpawriousLabels)
		if err != nil {
			return nil, nil, err
		}
		for _, item := range bgItems {
			item.Metadata = dataset.Metadata{"background": background}
			items = append(items, item)
		}
	}
	return items, slices.Clone(SpawriousLabels), nil
}

// listImageNet reads ImageNet-1k organized as one directory per class.
func listImageNet(dir string) (items []dataset.Item, classNames []string, err error) {
	items, classes, err := dataset.ScanImageFolder(dir, nil)
	if err != nil {
		return nil, nil, err
	}
	klog.V(1).Infof("ImageNet1k: %s images in %d classes", humanize.Comma(int64(len(items))), len(classes))
	return items, RefineClassNames(classes), nil
}
