// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

// Package npy reads (and writes) arrays stored in NumPy's .npy file format.
//
// Files are read lazily: Open only parses the header, and rows (slices along the first axis) are read on
// demand with ReadRow, which is safe for concurrent use. This allows large arrays, like the corrupted
// CIFAR-10 images, to be served without loading them into memory.
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const magic = "\x93NUMPY"

// Header describes an array stored in a .npy file.
type Header struct {
	// DType is NumPy's type descriptor, e.g. "|u1" or "<f4".
	DType string

	// Shape of the array.
	Shape []int

	// FortranOrder is true if the array is stored in column-major order.
	FortranOrder bool

	// DataOffset is the position in the file where the data starts.
	DataOffset int64
}

// ItemSize returns the size in bytes of one element.
func (h Header) ItemSize() (int, error) {
	descr := strings.TrimLeft(h.DType, "<>|=")
	if len(descr) < 2 {
		return 0, errors.Errorf("unsupported NumPy dtype %q", h.DType)
	}
	switch descr[0] {
	case 'b', 'i', 'u', 'f', 'c':
	default:
		return 0, errors.Errorf("unsupported NumPy dtype %q", h.DType)
	}
	size, err := strconv.Atoi(descr[1:])
	if err != nil || size <= 0 {
		return 0, errors.Errorf("unsupported NumPy dtype %q", h.DType)
	}
	if size > 1 && strings.HasPrefix(h.DType, ">") {
		return 0, errors.Errorf("big-endian .npy arrays (%q) are not supported", h.DType)
	}
	return size, nil
}

// Size returns the number of elements of the array.
func (h Header) Size() int {
	size := 1
	for _, dim := range h.Shape {
		size *= dim
	}
	return size
}

var (
	reDescr   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	reFortran = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	reShape   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// ReadHeader reads and parses the header of a .npy file.
func ReadHeader(r io.Reader) (h Header, err error) {
	prefix := make([]byte, len(magic)+2)
	if _, err = io.ReadFull(r, prefix); err != nil {
		return h, errors.Wrap(err, "failed to read .npy magic string")
	}
	if string(prefix[:len(magic)]) != magic {
		return h, errors.New("invalid .npy file format: magic string mismatch")
	}
	major := prefix[len(magic)]
	var headerLen int
	switch {
	case major == 1:
		lenBytes := make([]byte, 2)
		if _, err = io.ReadFull(r, lenBytes); err != nil {
			return h, errors.Wrap(err, "failed to read .npy header length")
		}
		headerLen = int(binary.LittleEndian.Uint16(lenBytes))
		h.DataOffset = int64(len(prefix) + 2 + headerLen)
	case major >= 2:
		lenBytes := make([]byte, 4)
		if _, err = io.ReadFull(r, lenBytes); err != nil {
			return h, errors.Wrap(err, "failed to read .npy header length")
		}
		headerLen = int(binary.LittleEndian.Uint32(lenBytes))
		h.DataOffset = int64(len(prefix) + 4 + headerLen)
	default:
		return h, errors.Errorf("unsupported .npy version %d.%d", major, prefix[len(magic)+1])
	}
	headerBytes := make([]byte, headerLen)
	if _, err = io.ReadFull(r, headerBytes); err != nil {
		return h, errors.Wrap(err, "failed to read .npy header")
	}
	if err = parseHeader(string(headerBytes), &h); err != nil {
		return h, err
	}
	return h, nil
}

// parseHeader extracts dtype, shape and fortran_order from the header dictionary, e.g.:
// "{'descr': '|u1', 'fortran_order': False, 'shape': (50000, 32, 32, 3), }".
func parseHeader(header string, h *Header) error {
	m := reDescr.FindStringSubmatch(header)
	if len(m) < 2 {
		return errors.Errorf("could not find 'descr' in .npy header %q", header)
	}
	h.DType = m[1]
	m = reFortran.FindStringSubmatch(header)
	if len(m) < 2 {
		return errors.Errorf("could not find 'fortran_order' in .npy header %q", header)
	}
	h.FortranOrder = m[1] == "True"
	m = reShape.FindStringSubmatch(header)
	if len(m) < 2 {
		return errors.Errorf("could not find 'shape' in .npy header %q", header)
	}
	h.Shape = []int{}
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			// Trailing comma, as in "(10,)".
			continue
		}
		dim, err := strconv.Atoi(part)
		if err != nil {
			return errors.Wrapf(err, "invalid shape value %q in .npy header", part)
		}
		h.Shape = append(h.Shape, dim)
	}
	return nil
}

// File is an open .npy file.
type File struct {
	Header
	path     string
	f        *os.File
	itemSize int
	rowSize  int64
}

// Open parses the header of the .npy file in path and returns a File that can read it lazily.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open .npy file %q", path)
	}
	h, err := ReadHeader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.WithMessagef(err, "in file %q", path)
	}
	itemSize, err := h.ItemSize()
	if err != nil {
		_ = f.Close()
		return nil, errors.WithMessagef(err, "in file %q", path)
	}
	npf := &File{Header: h, path: path, f: f, itemSize: itemSize}
	npf.rowSize = int64(itemSize)
	for _, dim := range h.Shape[min(1, len(h.Shape)):] {
		npf.rowSize *= int64(dim)
	}
	return npf, nil
}

// Close the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

// Len returns the dimension of the first axis, or 1 for scalars.
func (f *File) Len() int {
	if len(f.Shape) == 0 {
		return 1
	}
	return f.Shape[0]
}

// RowSize returns the number of bytes of one row, that is one slice along the first axis.
func (f *File) RowSize() int {
	return int(f.rowSize)
}

// ReadRow reads the row i (a slice along the first axis) into buf, which must hold RowSize() bytes.
// It is safe for concurrent use.
func (f *File) ReadRow(i int, buf []byte) error {
	if f.FortranOrder && len(f.Shape) > 1 {
		return errors.Errorf("ReadRow not supported for Fortran ordered array in %q, use ReadAll", f.path)
	}
	if i < 0 || i >= f.Len() {
		return errors.Errorf("row %d out of range [0, %d) in %q", i, f.Len(), f.path)
	}
	if len(buf) != int(f.rowSize) {
		return errors.Errorf("buffer of %d bytes given to read row of %d bytes", len(buf), f.rowSize)
	}
	if _, err := f.f.ReadAt(buf, f.DataOffset+int64(i)*f.rowSize); err != nil {
		return errors.Wrapf(err, "failed to read row %d of %q", i, f.path)
	}
	return nil
}

// ReadRows reads the rows [start, end) in one read, returning (end-start)*RowSize() bytes.
func (f *File) ReadRows(start, end int) ([]byte, error) {
	if f.FortranOrder && len(f.Shape) > 1 {
		return nil, errors.Errorf("ReadRows not supported for Fortran ordered array in %q, use ReadAll", f.path)
	}
	if start < 0 || end > f.Len() || start > end {
		return nil, errors.Errorf("rows [%d, %d) out of range [0, %d) in %q", start, end, f.Len(), f.path)
	}
	data := make([]byte, int64(end-start)*f.rowSize)
	if _, err := f.f.ReadAt(data, f.DataOffset+int64(start)*f.rowSize); err != nil {
		return nil, errors.Wrapf(err, "failed to read rows [%d, %d) of %q", start, end, f.path)
	}
	return data, nil
}

// ReadAll reads the whole array in row-major (C) order.
func (f *File) ReadAll() ([]byte, error) {
	data := make([]byte, f.Size()*f.itemSize)
	if _, err := f.f.ReadAt(data, f.DataOffset); err != nil {
		return nil, errors.Wrapf(err, "failed to read %d bytes of data from %q", len(data), f.path)
	}
	if !f.FortranOrder || len(f.Shape) <= 1 {
		return data, nil
	}
	cData := make([]byte, len(data))
	if err := FortranToCLayout(f.itemSize, f.Shape, data, cData); err != nil {
		return nil, err
	}
	return cData, nil
}

// ReadAllInts reads the whole array of integers converted to int.
func (f *File) ReadAllInts() ([]int, error) {
	data, err := f.ReadAll()
	if err != nil {
		return nil, err
	}
	kind := strings.TrimLeft(f.DType, "<>|=")[0]
	if kind != 'i' && kind != 'u' {
		return nil, errors.Errorf("array in %q has dtype %q, not an integer type", f.path, f.DType)
	}
	values := make([]int, f.Size())
	for ii := range values {
		b := data[ii*f.itemSize : (ii+1)*f.itemSize]
		switch f.itemSize {
		case 1:
			if kind == 'i' {
				values[ii] = int(int8(b[0]))
			} else {
				values[ii] = int(b[0])
			}
		case 2:
			if kind == 'i' {
				values[ii] = int(int16(binary.LittleEndian.Uint16(b)))
			} else {
				values[ii] = int(binary.LittleEndian.Uint16(b))
			}
		case 4:
			if kind == 'i' {
				values[ii] = int(int32(binary.LittleEndian.Uint32(b)))
			} else {
				values[ii] = int(binary.LittleEndian.Uint32(b))
			}
		case 8:
			values[ii] = int(binary.LittleEndian.Uint64(b))
		default:
			return nil, errors.Errorf("unsupported integer size %d in %q", f.itemSize, f.path)
		}
	}
	return values, nil
}

// FortranToCLayout converts data stored in column-major order to row-major order.
func FortranToCLayout(itemSize int, dims []int, fortranData, cData []byte) error {
	total := 1
	for _, dim := range dims {
		total *= dim
	}
	if len(fortranData) != total*itemSize || len(cData) != total*itemSize {
		return errors.Errorf("FortranToCLayout: buffers have %d and %d bytes, expected %d",
			len(fortranData), len(cData), total*itemSize)
	}
	coordinates := make([]int, len(dims))
	for cIndex := range total {
		tmp := cIndex
		for axis := len(dims) - 1; axis >= 0; axis-- {
			coordinates[axis] = tmp % dims[axis]
			tmp /= dims[axis]
		}
		fortranIndex, multiplier := 0, 1
		for axis, dim := range dims {
			fortranIndex += coordinates[axis] * multiplier
			multiplier *= dim
		}
		copy(cData[cIndex*itemSize:(cIndex+1)*itemSize], fortranData[fortranIndex*itemSize:(fortranIndex+1)*itemSize])
	}
	return nil
}

// Write serializes a row-major array in .npy (version 1.0) format.
func Write(w io.Writer, dtype string, shape []int, data []byte) error {
	h := Header{DType: dtype, Shape: shape}
	itemSize, err := h.ItemSize()
	if err != nil {
		return err
	}
	if len(data) != h.Size()*itemSize {
		return errors.Errorf("npy.Write: data has %d bytes, but shape %v of %q requires %d",
			len(data), shape, dtype, h.Size()*itemSize)
	}
	dims := make([]string, len(shape))
	for ii, dim := range shape {
		dims[ii] = strconv.Itoa(dim)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", dtype, shapeStr)
	// Total header (magic + version + length + dict + newline) is padded to a multiple of 64 bytes.
	preambleLen := len(magic) + 2 + 2
	padding := 64 - (preambleLen+len(header)+1)%64
	if padding == 64 {
		padding = 0
	}
	header += strings.Repeat(" ", padding) + "\n"

	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	if _, err = w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write .npy header")
	}
	if _, err = w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write .npy data")
	}
	return nil
}
