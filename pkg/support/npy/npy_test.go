// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package npy

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dtype string, shape []int, data []byte) string {
	path := filepath.Join(t.TempDir(), "array.npy")
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, dtype, shape, data))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestWriteAndReadRows(t *testing.T) {
	data := make([]byte, 4*2*3)
	for ii := range data {
		data[ii] = byte(ii)
	}
	path := writeFile(t, "|u1", []int{4, 2, 3}, data)

	f := must.M1(Open(path))
	defer func() { _ = f.Close() }()
	assert.Equal(t, []int{4, 2, 3}, f.Shape)
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, 6, f.RowSize())
	assert.Zero(t, f.DataOffset%64)

	var wg sync.WaitGroup
	for row := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, f.RowSize())
			assert.NoError(t, f.ReadRow(row, buf))
			assert.Equal(t, data[row*6:(row+1)*6], buf)
		}()
	}
	wg.Wait()

	require.Error(t, f.ReadRow(4, make([]byte, 6)))
	require.Error(t, f.ReadRow(0, make([]byte, 5)))

	rows, err := f.ReadRows(1, 3)
	require.NoError(t, err)
	assert.Equal(t, data[6:18], rows)
	rows, err = f.ReadRows(2, 2)
	require.NoError(t, err)
	assert.Empty(t, rows)
	_, err = f.ReadRows(3, 5)
	require.Error(t, err)
}

func TestReadAllInts(t *testing.T) {
	data := make([]byte, 3*4)
	for ii, v := range []int32{-1, 7, 1000} {
		binary.LittleEndian.PutUint32(data[ii*4:], uint32(v))
	}
	f := must.M1(Open(writeFile(t, "<i4", []int{3}, data)))
	defer func() { _ = f.Close() }()
	assert.Equal(t, []int{-1, 7, 1000}, must.M1(f.ReadAllInts()))
}

func TestParseHeader(t *testing.T) {
	var h Header
	require.NoError(t, parseHeader("{'descr': '<f4', 'fortran_order': True, 'shape': (2, 3), }", &h))
	assert.Equal(t, "<f4", h.DType)
	assert.True(t, h.FortranOrder)
	assert.Equal(t, []int{2, 3}, h.Shape)
	assert.Equal(t, 4, must.M1(h.ItemSize()))

	require.NoError(t, parseHeader("{'descr': '|u1', 'fortran_order': False, 'shape': (), }", &h))
	assert.Empty(t, h.Shape)
	assert.Equal(t, 1, h.Size())

	require.Error(t, parseHeader("{'shape': (2,)}", &h))
	_, err := Header{DType: ">i4"}.ItemSize()
	require.Error(t, err)
}

func TestFortranToCLayout(t *testing.T) {
	// 2x3 matrix [[1 2 3] [4 5 6]] stored column-major: 1 4 2 5 3 6.
	fortran := []byte{1, 4, 2, 5, 3, 6}
	c := make([]byte, 6)
	require.NoError(t, FortranToCLayout(1, []int{2, 3}, fortran, c))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, c)
	require.Error(t, FortranToCLayout(1, []int{2, 2}, fortran, c))
}

func TestInvalidMagic(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte("not a numpy file at all")))
	require.Error(t, err)
}
