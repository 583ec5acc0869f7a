// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"cmp"
	"math"
	"slices"

	"github.com/vpdata/vpdata/pkg/dataset"
)

// DefaultTestFraction is the fraction of the samples assigned to the test split of datasets without an
// official split.
const DefaultTestFraction = 0.2

// Partition splits items in train and test with a random permutation drawn from seed.
//
// Items are first sorted by path, so the result doesn't depend on the order in which they were listed:
// the same files and seed always produce the same partition. Both returned slices are sorted by path.
func Partition(items []dataset.Item, seed int64, testFraction float64) (train, test []dataset.Item) {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b dataset.Item) int { return cmp.Compare(a.Path, b.Path) })
	numTest := int(math.Round(float64(len(sorted)) * testFraction))
	numTest = min(max(numTest, 0), len(sorted))

	isTest := make([]bool, len(sorted))
	for _, idx := range dataset.NewRand(seed).Perm(len(sorted))[:numTest] {
		isTest[idx] = true
	}
	train = make([]dataset.Item, 0, len(sorted)-numTest)
	test = make([]dataset.Item, 0, numTest)
	for ii, item := range sorted {
		if isTest[ii] {
			test = append(test, item)
		} else {
			train = append(train, item)
		}
	}
	return train, test
}

// partitionSplits partitions items and builds the split selected for each mode.
func partitionSplits(name string, items []dataset.Item, classNames []string, opts *Options) (train, test *dataset.FileSplit, err error) {
	trainItems, testItems := Partition(items, opts.Seed, DefaultTestFraction)
	train, err = dataset.NewFileSplit(name+"/train", trainItems, classNames, opts.transform())
	if err != nil {
		return nil, nil, err
	}
	test, err = dataset.NewFileSplit(name+"/test", testItems, classNames, opts.transform())
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
