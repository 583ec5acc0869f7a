// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
)

// food101Dataset reads Food-101: images under images/<class>/<id>.jpg, and the official split in
// meta/{train,test}.json, each mapping a class to its image ids ("<class>/<id>").
type food101Dataset struct{}

var food101Adapter = &food101Dataset{}

const food101URL = "http://data.vision.ee.ethz.ch/cvl/food-101.tar.gz"

func (a *food101Dataset) Name() registry.Name { return registry.Food101 }
func (a *food101Dataset) Family() Family      { return FamilyStandard }

func (a *food101Dataset) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Join(root, "food-101")
	metaDir := filepath.Join(baseDir, "meta")
	err = fetch(registry.Food101, &opts, func() error {
		return downloader.DownloadAndUntarIfMissing(food101URL, root, "food-101.tar.gz", "food-101", "")
	}, filepath.Join(metaDir, "train.json"), filepath.Join(metaDir, "test.json"))
	if err != nil {
		return nil, err
	}

	trainMeta, err := readFood101Meta(filepath.Join(metaDir, "train.json"))
	if err != nil {
		return nil, err
	}
	testMeta, err := readFood101Meta(filepath.Join(metaDir, "test.json"))
	if err != nil {
		return nil, err
	}
	classes := slices.Sorted(maps.Keys(trainMeta))
	classNames := RefineClassNames(classes)
	classIdx := make(map[string]int, len(classes))
	for ii, class := range classes {
		classIdx[class] = ii
	}
	var splits [2]*dataset.FileSplit
	for ii, meta := range []map[string][]string{trainMeta, testMeta} {
		var items []dataset.Item
		for _, class := range slices.Sorted(maps.Keys(meta)) {
			label, found := classIdx[class]
			if !found {
				return nil, errors.Errorf("Food101: class %q in test split is not in the train split", class)
			}
			for _, id := range meta[class] {
				items = append(items, dataset.Item{Path: filepath.Join(baseDir, "images", id+".jpg"), Label: label})
			}
		}
		splits[ii], err = dataset.NewFileSplit("Food101/"+[]string{"train", "test"}[ii], items, classNames, opts.transform())
		if err != nil {
			return nil, err
		}
	}
	return newResult(registry.Food101, splits[0], splits[1], classNames)
}

func readFood101Meta(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read Food101 split file %q", path)
	}
	var meta map[string][]string
	if err = json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "failed to parse Food101 split file %q", path)
	}
	return meta, nil
}
