// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
)

// petsDataset reads the Oxford-IIIT Pet dataset. The split files annotations/{trainval,test}.txt list
// "<image_id> <class_id> <species> <breed_id>", with 1-based class ids. The breed name is the image id
// without its trailing "_<number>".
type petsDataset struct{}

var petsAdapter = &petsDataset{}

const petsBaseURL = "https://www.robots.ox.ac.uk/~vgg/data/pets/data/"

func (a *petsDataset) Name() registry.Name { return registry.OxfordIIITPet }
func (a *petsDataset) Family() Family      { return FamilyStandard }

func (a *petsDataset) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Join(root, "oxford-iiit-pet")
	splitFiles := []string{
		filepath.Join(baseDir, "annotations", "trainval.txt"),
		filepath.Join(baseDir, "annotations", "test.txt"),
	}
	err = fetch(registry.OxfordIIITPet, &opts, func() error {
		for _, name := range []string{"images", "annotations"} {
			err := downloader.DownloadAndUntarIfMissing(petsBaseURL+name+".tar.gz", baseDir, name+".tar.gz", name, "")
			if err != nil {
				return err
			}
		}
		return nil
	}, splitFiles...)
	if err != nil {
		return nil, err
	}

	breeds := make(map[int]string)
	var splitItems [2][]dataset.Item
	for ii, path := range splitFiles {
		splitItems[ii], err = readPetsSplit(path, filepath.Join(baseDir, "images"), breeds)
		if err != nil {
			return nil, err
		}
	}
	rawNames := make([]string, len(breeds))
	for label := range rawNames {
		name, found := breeds[label]
		if !found {
			return nil, errors.Errorf("OxfordIIITPet: no image with class id %d in %q", label+1, baseDir)
		}
		rawNames[label] = name
	}
	classNames := RefineClassNames(rawNames)
	train, err := dataset.NewFileSplit("OxfordIIITPet/train", splitItems[0], classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	test, err := dataset.NewFileSplit("OxfordIIITPet/test", splitItems[1], classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	return newResult(registry.OxfordIIITPet, train, test, classNames)
}

// readPetsSplit parses a split file, recording the breed name of each label in breeds.
func readPetsSplit(path, imagesDir string, breeds map[int]string) ([]dataset.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open split file %q", path)
	}
	defer func() { _ = f.Close() }()
	var items []dataset.Item
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 {
			return nil, errors.Errorf("split file %q, line %d: expected \"<image_id> <class_id> ...\"", path, lineNum)
		}
		classID, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "split file %q, line %d: invalid class id", path, lineNum)
		}
		imageID := fields[0]
		label := classID - 1
		breed := imageID
		if idx := strings.LastIndex(imageID, "_"); idx > 0 {
			breed = imageID[:idx]
		}
		breeds[label] = breed
		items = append(items, dataset.Item{Path: filepath.Join(imagesDir, imageID+".jpg"), Label: label})
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read split file %q", path)
	}
	return items, nil
}
