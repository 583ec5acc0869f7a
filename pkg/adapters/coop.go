// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
)

// coopDataset reads datasets distributed with a CoOp split file (split_zhou_<Name>.json), which lists
// for each of "train", "val" and "test" the entries [<image path>, <label>, <class name>], with image
// paths relative to the image directory.
//
// The split files have no public download URL, so these datasets must be placed under the root
// directory beforehand.
type coopDataset struct {
	name      registry.Name
	dir       string
	imageDir  string
	splitFile string
}

var (
	dtdAdapter     = &coopDataset{registry.DTD, "dtd", "images", "split_zhou_DescribableTextures.json"}
	eurosatAdapter = &coopDataset{registry.EuroSAT, "eurosat", "2750", "split_zhou_EuroSAT.json"}
	ucf101Adapter  = &coopDataset{registry.UCF101, "ucf101", "UCF-101-midframes", "split_zhou_UCF101.json"}
)

func (a *coopDataset) Name() registry.Name { return a.name }
func (a *coopDataset) Family() Family      { return FamilyStandard }

// coopEntry is one [<image path>, <label>, <class name>] entry of a split file.
type coopEntry struct {
	Path      string
	Label     int
	ClassName string
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *coopEntry) UnmarshalJSON(data []byte) error {
	var fields [3]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if err := json.Unmarshal(fields[0], &e.Path); err != nil {
		return errors.Wrap(err, "image path")
	}
	if err := json.Unmarshal(fields[1], &e.Label); err != nil {
		return errors.Wrap(err, "label")
	}
	if err := json.Unmarshal(fields[2], &e.ClassName); err != nil {
		return errors.Wrap(err, "class name")
	}
	return nil
}

type coopSplits struct {
	Train []coopEntry `json:"train"`
	Val   []coopEntry `json:"val"`
	Test  []coopEntry `json:"test"`
}

func (a *coopDataset) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Join(root, a.dir)
	splitPath := filepath.Join(baseDir, a.splitFile)
	imageDir := filepath.Join(baseDir, a.imageDir)
	err = requirePaths(a.name, "no public download available, place the images and the CoOp split file there",
		splitPath, imageDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(splitPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read split file %q", splitPath)
	}
	var splits coopSplits
	if err = json.Unmarshal(data, &splits); err != nil {
		return nil, errors.Wrapf(err, "failed to parse split file %q", splitPath)
	}

	rawNames := make(map[int]string)
	toItems := func(entries []coopEntry) []dataset.Item {
		items := make([]dataset.Item, len(entries))
		for ii, e := range entries {
			rawNames[e.Label] = e.ClassName
			items[ii] = dataset.Item{Path: filepath.Join(imageDir, e.Path), Label: e.Label}
		}
		return items
	}
	trainItems := toItems(splits.Train)
	testItems := toItems(splits.Test)
	// Val images are not used, but a class may only appear there.
	for _, e := range splits.Val {
		rawNames[e.Label] = e.ClassName
	}
	names := make([]string, len(rawNames))
	for label := range names {
		name, found := rawNames[label]
		if !found {
			return nil, errors.Errorf("dataset %q: split file %q has no entry with label %d", a.name, splitPath, label)
		}
		names[label] = name
	}
	classNames := RefineClassNames(names)
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
