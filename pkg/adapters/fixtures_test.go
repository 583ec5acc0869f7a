// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lmittmann/ppm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vpdata/vpdata/pkg/dataset"
	"github.com/vpdata/vpdata/pkg/registry"
	"github.com/vpdata/vpdata/pkg/support/npy"
)

const testImageSize = 8

// writeImage writes a small uniform image, encoded according to the path extension.
func writeImage(t *testing.T, path string, value uint8) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	img := image.NewNRGBA(image.Rect(0, 0, 5, 7))
	for y := range 7 {
		for x := range 5 {
			img.Set(x, y, color.NRGBA{R: value, G: value, B: value, A: 255})
		}
	}
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		require.NoError(t, png.Encode(&buf, img))
	case ".jpg", ".jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	case ".ppm":
		require.NoError(t, ppm.Encode(&buf, img))
	default:
		t.Fatalf("unknown image extension for %q", path)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeNpy(t *testing.T, path, dtype string, shape []int, data []byte) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, npy.Write(f, dtype, shape, data))
	require.NoError(t, f.Close())
}

// matVar is a numeric Matlab variable for writeMat. Data is []uint8 or []float64, in column-major order.
type matVar struct {
	name string
	dims []int
	data any
}

// Level 5 MAT-file data types and array classes.
const (
	miInt8   = 1
	miUint8  = 2
	miInt32  = 5
	miUint32 = 6
	miDouble = 9
	miMatrix = 14

	mxDoubleClass = 6
	mxUint8Class  = 9
)

// writeMat writes an uncompressed level 5 MAT-file (little-endian) with the given variables.
func writeMat(t *testing.T, path string, vars ...matVar) {
	var buf bytes.Buffer
	header := make([]byte, 128)
	copy(header, fmt.Sprintf("%-116s", "MATLAB 5.0 MAT-file, Platform: GLNXA64"))
	copy(header[116:124], "        ")
	binary.LittleEndian.PutUint16(header[124:], 0x0100)
	copy(header[126:], "IM")
	buf.Write(header)

	for _, v := range vars {
		var class, dataType uint32
		var raw []byte
		var count int
		switch data := v.data.(type) {
		case []uint8:
			class, dataType, raw, count = mxUint8Class, miUint8, data, len(data)
		case []float64:
			class, dataType, count = mxDoubleClass, miDouble, len(data)
			raw = make([]byte, 8*len(data))
			for ii, x := range data {
				binary.LittleEndian.PutUint64(raw[8*ii:], math.Float64bits(x))
			}
		default:
			t.Fatalf("writeMat: unsupported data type %T for variable %q", v.data, v.name)
		}
		numElements := 1
		for _, dim := range v.dims {
			numElements *= dim
		}
		require.Equal(t, numElements, count, "variable %q: dims %v don't match the data", v.name, v.dims)

		var matrix bytes.Buffer
		flags := make([]byte, 8)
		binary.LittleEndian.PutUint32(flags, class)
		writeMatElement(&matrix, miUint32, flags)
		dims := make([]byte, 4*len(v.dims))
		for ii, dim := range v.dims {
			binary.LittleEndian.PutUint32(dims[4*ii:], uint32(dim))
		}
		writeMatElement(&matrix, miInt32, dims)
		writeMatElement(&matrix, miInt8, []byte(v.name))
		writeMatElement(&matrix, dataType, raw)
		writeMatElement(&buf, miMatrix, matrix.Bytes())
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

// writeMatElement writes a data element padded to 8 bytes, using the small element format (as Matlab
// does) for payloads of at most 4 bytes.
func writeMatElement(buf *bytes.Buffer, dataType uint32, payload []byte) {
	tag := make([]byte, 8)
	if dataType != miMatrix && len(payload) <= 4 {
		binary.LittleEndian.PutUint32(tag, uint32(len(payload))<<16|dataType)
		copy(tag[4:], payload)
		buf.Write(tag)
		return
	}
	binary.LittleEndian.PutUint32(tag, dataType)
	binary.LittleEndian.PutUint32(tag[4:], uint32(len(payload)))
	buf.Write(tag)
	buf.Write(payload)
	if pad := (8 - len(payload)%8) % 8; pad > 0 {
		buf.Write(make([]byte, pad))
	}
}

func testOptions(root string) Options {
	return Options{Root: root, ImageSize: testImageSize, Seed: 1}
}

// checkResult verifies the invariants shared by all adapters' results.
func checkResult(t *testing.T, name registry.Name, result *Result, fixedClasses bool) {
	require.NotNil(t, result)
	require.NotNil(t, result.Test)
	if fixedClasses {
		assert.Len(t, result.ClassNames, registry.Default().MustLookup(string(name)).ClassCount)
	}
	assert.Equal(t, result.Train, result.RawTrain)
	for _, split := range []dataset.SplitSet{result.Train, result.Test} {
		if split == nil {
			continue
		}
		assert.Equal(t, result.ClassNames, split.ClassNames())
	}
}

// sampleAt decodes the i-th sample, checking the image shape.
func sampleAt(t *testing.T, split dataset.SplitSet, i int) dataset.Sample {
	sample, err := split.Sample(i)
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, testImageSize, testImageSize}, sample.Image.Shape())
	assert.GreaterOrEqual(t, sample.Label, 0)
	assert.Less(t, sample.Label, len(split.ClassNames()))
	return sample
}

func labelsOf(t *testing.T, split dataset.SplitSet) []int {
	fileSplit, ok := split.(*dataset.FileSplit)
	require.True(t, ok, "split %q is not a *dataset.FileSplit", split.Name())
	labels := make([]int, fileSplit.Len())
	for ii := range labels {
		labels[ii] = fileSplit.Item(ii).Label
	}
	return labels
}
