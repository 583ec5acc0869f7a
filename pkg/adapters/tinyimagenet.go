// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/downloader"
	"github.com/vpdata/vpdata/pkg/support/fsutil"
	"k8s.io/klog/v2"
)

const tinyImageNetURL = "http://cs231n.stanford.edu/tiny-imagenet-200.zip"

// tinyImageNetAdapter reads Tiny ImageNet (200 classes of 64x64 images), which is distributed as a zip
// archive: training images are organized in one directory per class (WordNet id), but validation images
// are flat in val/images, with their classes listed in val/val_annotations.txt. The first Prepare moves
// them into one directory per class, so both splits can be read as image folders.
//
// The validation set is used as the test split.
type tinyImageNetAdapter struct{}

func (a *tinyImageNetAdapter) Name() registry.Name { return registry.TinyImageNet }
func (a *tinyImageNetAdapter) Family() Family      { return FamilyArchive }

func (a *tinyImageNetAdapter) Prepare(opts Options) (*Result, error) {
	root, err := opts.rootDir()
	if err != nil {
		return nil, err
	}
	datasetDir := filepath.Join(root, string(registry.TinyImageNet))
	trainDir := filepath.Join(datasetDir, "train")
	valDir := filepath.Join(datasetDir, "val")
	wordsPath := filepath.Join(datasetDir, "words.txt")
	err = fetch(registry.TinyImageNet, &opts, func() error {
		zipPath := filepath.Join(root, string(registry.TinyImageNet)+".zip")
		return downloader.DownloadAndUnzipIfMissing(tinyImageNetURL, zipPath, root, datasetDir, "")
	}, trainDir, valDir, wordsPath)
	if err != nil {
		return nil, err
	}
	if err = RestructureTinyImageNetVal(valDir); err != nil {
		return nil, err
	}

	trainItems, wnids, err := dataset.ScanImageFolder(trainDir, nil)
	if err != nil {
		return nil, err
	}
	testItems, _, err := dataset.ScanImageFolder(valDir, wnids)
	if err != nil {
		return nil, err
	}
	words, err := readIDNameTable(wordsPath)
	if err != nil {
		return nil, err
	}
	classNames := make([]string, len(wnids))
	for ii, wnid := range wnids {
		name, found := words[wnid]
		if !found {
			klog.Warningf("Tiny ImageNet: no name for class %q in %q, using the id", wnid, wordsPath)
			name = wnid
		}
		classNames[ii] = name
	}
	train, err := dataset.NewFileSplit(string(registry.TinyImageNet)+"/train", trainItems, classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	test, err := dataset.NewFileSplit(string(registry.TinyImageNet)+"/val", testItems, classNames, opts.transform())
	if err != nil {
		return nil, err
	}
	return newResult(registry.TinyImageNet, train, test, classNames)
}

// RestructureTinyImageNetVal moves the validation images in valDir/images into valDir/<wnid>/, according
// to valDir/val_annotations.txt, and then removes valDir/images.
//
// It does nothing if valDir/images doesn't exist, so it can be called every time. If a previous call was
// interrupted, images already moved are skipped.
func RestructureTinyImageNetVal(valDir string) error {
	imagesDir := filepath.Join(valDir, "images")
	exists, err := fsutil.FileExists(imagesDir)
	if err != nil || !exists {
		return err
	}
	klog.Infof("Tiny ImageNet: restructuring validation images in %q", valDir)
	annotations, err := readIDNameTable(filepath.Join(valDir, "val_annotations.txt"))
	if err != nil {
		return err
	}
	for _, file := range slices.Sorted(maps.Keys(annotations)) {
		wnid := annotations[file]
		classDir := filepath.Join(valDir, wnid)
		if err = os.MkdirAll(classDir, 0777); err != nil {
			return errors.Wrapf(err, "failed to create directory %q", classDir)
		}
		src, dst := filepath.Join(imagesDir, file), filepath.Join(classDir, file)
		if err = os.Rename(src, dst); err != nil {
			if moved, _ := fsutil.FileExists(dst); moved {
				continue
			}
			return errors.Wrapf(err, "failed to move validation image %q to %q", src, dst)
		}
	}
	if err = os.Remove(imagesDir); err != nil {
		return errors.Wrapf(err, "failed to remove %q after moving the validation images", imagesDir)
	}
	klog.V(1).Infof("Tiny ImageNet: moved %d validation images into class directories", len(annotations))
	return nil
}
