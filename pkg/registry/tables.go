// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package registry

// ImageNetNormalization are the ImageNet statistics, shared by all supported backbones.
var ImageNetNormalization = Normalization{
	Mean: [3]float64{0.485, 0.456, 0.406},
	Std:  [3]float64{0.229, 0.224, 0.225},
}

var defaultBackbones = []Backbone{
	{Name: "vgg16_bn", SourceClassCount: 1000, Normalization: ImageNetNormalization},
	{Name: "resnet18", SourceClassCount: 1000, Normalization: ImageNetNormalization},
	{Name: "resnet50", SourceClassCount: 1000, Normalization: ImageNetNormalization},
	{Name: "resnext101_32x8d", SourceClassCount: 1000, Normalization: ImageNetNormalization},
	{Name: "ig_resnext101_32x8d", SourceClassCount: 1000, Normalization: ImageNetNormalization},
	{Name: "vit_b_16", SourceClassCount: 1000, Normalization: ImageNetNormalization},
	{Name: "swin_t", SourceClassCount: 1000, Normalization: ImageNetNormalization},
	{Name: "clip", SourceClassCount: 81, Normalization: ImageNetNormalization},
	{Name: "clip_large", SourceClassCount: 81, Normalization: ImageNetNormalization},
	{Name: "clip_ViT_B_32", SourceClassCount: 512, Normalization: ImageNetNormalization},
}

// Default values for entries that don't override them.
const (
	defaultImageSize = 128
	defaultBatchSize = 128
)

var defaultShotCounts = []int{1, 5, 10}

// datasetTable is one row of the static configuration. Zero values take the defaults above.
type datasetTable struct {
	name          Name
	classes       int
	shots         []int
	imageSize     int
	batchSize     int
	tuneBatchSize int
	epochs        EpochBounds
}

var datasetTables = []datasetTable{
	{name: CIFAR10, classes: 10, epochs: EpochBounds{3, 5}},
	// Test-only corruption benchmark: never tuned, so no epoch bounds.
	{name: CIFAR10C, classes: 10},
	{name: CIFAR100, classes: 100, epochs: EpochBounds{2, 2}},
	{name: ABIDE, classes: 2, imageSize: 200, batchSize: 64, epochs: EpochBounds{3, 5}},
	{name: Melanoma, classes: 7, epochs: EpochBounds{3, 5}},
	{name: DR, classes: 5, epochs: EpochBounds{3, 5}},
	{name: SVHN, classes: 10, epochs: EpochBounds{2, 3}},
	{name: GTSRB, classes: 43, epochs: EpochBounds{2, 3}},
	{name: Flowers102, classes: 102, shots: []int{1, 5, 9}, batchSize: 64, epochs: EpochBounds{3, 5}},
	{name: DTD, classes: 47, batchSize: 32, tuneBatchSize: 64, epochs: EpochBounds{3, 5}},
	{name: Food101, classes: 101, shots: []int{1, 5, 9}, epochs: EpochBounds{2, 2}},
	{name: EuroSAT, classes: 10, epochs: EpochBounds{2, 3}},
	{name: OxfordIIITPet, classes: 37, epochs: EpochBounds{3, 5}},
	{name: StanfordCars, classes: 196, shots: []int{1, 2, 5}, epochs: EpochBounds{2, 2}},
	{name: SUN397, classes: 397, shots: []int{1, 2}, batchSize: 256, epochs: EpochBounds{2, 2}},
	{name: UCF101, classes: 101, shots: []int{1, 5, 9}, epochs: EpochBounds{3, 5}},
	{name: Camelyon17, classes: 2, batchSize: 256, epochs: EpochBounds{2, 2}},
	// 182 curated categories plus one catch-all bucket for the remaining labels.
	{name: Iwildcam, classes: 183, shots: []int{1, 2, 5}, batchSize: 256, epochs: EpochBounds{2, 2}},
	{name: FMoW, classes: 62, shots: []int{1, 2, 10}, epochs: EpochBounds{2, 2}},
	{name: Spawrious, classes: 4, epochs: EpochBounds{2, 2}},
	{name: ImageNet1k, classes: 1000, shots: []int{1}, epochs: EpochBounds{2, 2}},
	{name: TinyImageNet, classes: 200, epochs: EpochBounds{3, 5}},
}

func defaultDescriptors() []Descriptor {
	descriptors := make([]Descriptor, 0, len(datasetTables))
	for _, row := range datasetTables {
		d := Descriptor{
			Name:          row.name,
			ClassCount:    row.classes,
			ShotCounts:    row.shots,
			ImageSize:     row.imageSize,
			BatchSize:     row.batchSize,
			TuneBatchSize: row.tuneBatchSize,
			Epochs:        row.epochs,
			Normalization: make(map[string]Normalization, len(defaultBackbones)),
		}
		if d.ShotCounts == nil {
			d.ShotCounts = defaultShotCounts
		}
		if d.ImageSize == 0 {
			d.ImageSize = defaultImageSize
		}
		if d.BatchSize == 0 {
			d.BatchSize = defaultBatchSize
		}
		if d.TuneBatchSize == 0 {
			d.TuneBatchSize = d.BatchSize
		}
		for _, b := range defaultBackbones {
			d.Normalization[b.Name] = b.Normalization
		}
		descriptors = append(descriptors, d)
	}
	return descriptors
}
