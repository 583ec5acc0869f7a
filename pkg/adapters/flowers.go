// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
	"github.com/vpdata/vpdata/pkg/support/fsutil"
	"k8s.io/klog/v2"
)

// flowersDataset reads Oxford Flowers 102.
//
// When the CoOp split file oxford_flowers/split_zhou_OxfordFlowers.json is present, it is read like
// the other CoOp datasets, with the images under oxford_flowers/jpg.
//
// Otherwise it falls back to the official distribution under flowers-102 (downloaded if allowed):
// images jpg/image_NNNNN.jpg, their 1-based labels in imagelabels.mat and the official split (1-based
// image ids) in setid.mat. The official train and validation subsets are both used for training.
type flowersDataset struct{}

var (
	flowersAdapter = &flowersDataset{}
	flowersCoOp    = &coopDataset{registry.Flowers102, "oxford_flowers", "jpg", "split_zhou_OxfordFlowers.json"}
)

const flowersBaseURL = "https://www.robots.ox.ac.uk/~vgg/data/flowers/102/"

var flowersFiles = []struct {
	File, Checksum, UntarDir string
}{
	{"102flowers.tgz", "", "jpg"},
	{"imagelabels.mat", "4903e94206bac23bf772aadf06451916df56b58fc483a62db32a97b82656651d", ""},
	{"setid.mat", "46b8678f91fd95d3c8f4feab80d271a6c834a1dd896fe29fd3e6ad9ce5c8dccd", ""},
}

func (a *flowersDataset) Name() registry.Name { return registry.Flowers102 }
func (a *flowersDataset) Family() Family      { return FamilyStandard }

func (a *flowersDataset) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	splitPath := filepath.Join(root, flowersCoOp.dir, flowersCoOp.splitFile)
	hasSplitFile, err := fsutil.FileExists(splitPath)
	if err != nil {
		return nil, err
	}
	if hasSplitFile {
		return flowersCoOp.Prepare(opts)
	}
	klog.V(1).Infof("Flowers102: no CoOp split file in %q, using the official split", splitPath)
	return a.prepareOfficial(opts, root)
}

// prepareOfficial uses the official split in setid.mat.
func (a *flowersDataset) prepareOfficial(opts Options, root string) (*Result, error) {
	baseDir := filepath.Join(root, "flowers-102")
	var required []string
	for _, file := range flowersFiles {
		if file.UntarDir != "" {
			required = append(required, filepath.Join(baseDir, file.UntarDir))
		} else {
			required = append(required, filepath.Join(baseDir, file.File))
		}
	}
	err := fetch(registry.Flowers102, &opts, func() error {
		for _, file := range flowersFiles {
			url := flowersBaseURL + file.File
			var err error
			if file.UntarDir == "" {
				err = downloader.DownloadIfMissing(url, filepath.Join(baseDir, file.File), file.Checksum)
			} else {
				err = downloader.DownloadAndUntarIfMissing(url, baseDir, file.File, file.UntarDir, file.Checksum)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}, required...)
	if err != nil {
		return nil, err
	}

	imageLabels, err := readMatlabInts(filepath.Join(baseDir, "imagelabels.mat"), "labels")
	if err != nil {
		return nil, err
	}
	labels := imageLabels["labels"]
	setIDPath := filepath.Join(baseDir, "setid.mat")
	ids, err := readMatlabInts(setIDPath, "trnid", "valid", "tstid")
	if err != nil {
		return nil, err
	}

	itemsFor := func(imageIDs ...[]int) ([]dataset.Item, error) {
		var items []dataset.Item
		for _, idList := range imageIDs {
			for _, id := range idList {
				if id < 1 || id > len(labels) {
					return nil, errors.Errorf("Flowers102: image id %d in %q out of range [1, %d]", id, setIDPath, len(labels))
				}
				label := labels[id-1] - 1 // Labels are 1-based.
				if label < 0 || label >= len(FlowersLabels) {
					return nil, errors.Errorf("Flowers102: image id %d has invalid label %d", id, labels[id-1])
				}
				items = append(items, dataset.Item{
					Path:  filepath.Join(baseDir, "jpg", fmt.Sprintf("image_%05d.jpg", id)),
					Label: label,
				})
			}
		}
		return items, nil
	}
	classNames := RefineClassNames(FlowersLabels)
	trainItems, err := itemsFor(ids["trnid"], ids["valid"])
	if err != nil {
		return nil, err
	}
	testItems, err := itemsFor(ids["tstid"])
	if err != nil {
		return nil, err
	}
	train, err := dataset.NewFileSplit("Flowers102/train", trainItems, classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	test, err := dataset.NewFileSplit("Flowers102/test", testItems, classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	return newResult(registry.Flowers102, train, test, classNames)
}
