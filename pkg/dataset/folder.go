// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"github.com/vpdata/vpdata/pkg/support/fsutil"
	"k8s.io/klog/v2"
)

// ScanImageFolder lists the images organized as root/<class>/**/<image>.
//
// If classes is nil, the classes are the subdirectories of root, in lexicographic order, and label i is
// assigned to classes[i]. If classes is given, it defines the labels instead, and a subdirectory that is not
// one of the classes is an error. This allows a validation folder to share the labels discovered in the
// training folder even if some class has no validation images.
//
// Images within a class are returned in lexicographic path order.
func ScanImageFolder(root string, classes []string) (items []Item, foundClasses []string, err error) {
	dirs, err := fsutil.SubDirs(root)
	if err != nil {
		return nil, nil, err
	}
	if classes == nil {
		classes = dirs
	}
	classIdx := make(map[string]int, len(classes))
	for ii, name := range classes {
		classIdx[name] = ii
	}
	for _, dir := range dirs {
		label, found := classIdx[dir]
		if !found {
			return nil, nil, errors.Errorf("ScanImageFolder(%q): directory %q is not one of the %d known classes",
				root, dir, len(classes))
		}
		classDir := filepath.Join(root, dir)
		count := 0
		err = filepath.WalkDir(classDir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || !IsImageFile(path) {
				return nil
			}
			items = append(items, Item{Path: path, Label: label})
			count++
			return nil
		})
		if err != nil {
			return nil, nil, errors.Wrapf(err, "ScanImageFolder(%q): failed to walk %q", root, classDir)
		}
		if count == 0 {
			klog.Warningf("ScanImageFolder(%q): class directory %q has no images", root, dir)
		}
	}
	return items, slices.Clone(classes), nil
}
