// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageExtensions are the (lower-case) file extensions recognized as images.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".ppm", ".bmp", ".gif", ".tif", ".tiff", ".webp"}

// IsImageFile returns whether the path has one of the ImageExtensions (case-insensitive).
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, imgExt := range ImageExtensions {
		if ext == imgExt {
			return true
		}
	}
	return false
}

// DecodeImage reads and decodes the image file at path.
func DecodeImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %q", path)
	}
	return img, nil
}
