// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/daniellowtw/matlab"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// table is a CSV file loaded as strings, with its path for error messages.
type table struct {
	path string
	df   dataframe.DataFrame
}

// readTable loads a CSV file with a header row. All columns are read as strings.
func readTable(path string, delimiter rune) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open table %q", path)
	}
	defer func() { _ = f.Close() }()
	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.WithDelimiter(delimiter),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to parse table %q", path)
	}
	return &table{path: path, df: df}, nil
}

// Len returns the number of rows.
func (t *table) Len() int {
	return t.df.Nrow()
}

// Column returns the values of the named column.
func (t *table) Column(name string) ([]string, error) {
	col := t.df.Col(name)
	if col.Err != nil {
		return nil, errors.Wrapf(col.Err, "table %q has no column %q (columns: %v)", t.path, name, t.df.Names())
	}
	return col.Records(), nil
}

// Columns returns the values of each of the named columns.
func (t *table) Columns(names ...string) ([][]string, error) {
	cols := make([][]string, len(names))
	for ii, name := range names {
		var err error
		if cols[ii], err = t.Column(name); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// IntColumn returns the values of the named column parsed as integers.
func (t *table) IntColumn(name string) ([]int, error) {
	records, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	values := make([]int, len(records))
	for ii, record := range records {
		// Some tables store integers as floats, e.g. "3.0".
		value, err := strconv.ParseFloat(strings.TrimSpace(record), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "table %q, column %q, row %d: not a number", t.path, name, ii)
		}
		values[ii] = int(value)
	}
	return values, nil
}

// readIDNameTable parses lines of "<id>\t<name>", e.g. Tiny ImageNet's words.txt.
// Extra tab-separated fields are ignored.
func readIDNameTable(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open id table %q", path)
	}
	defer func() { _ = f.Close() }()
	names := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			return nil, errors.Errorf("id table %q, line %d: expected \"<id>\\t<name>\", got %q", path, lineNum, line)
		}
		names[parts[0]] = parts[1]
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read id table %q", path)
	}
	return names, nil
}

// readMatlabVars parses the Matlab (.mat) file once and returns the flat values of each of the
// variables varNames. Matlab stores matrices in column-major order.
func readMatlabVars(path string, varNames ...string) (map[string][]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open Matlab file %q", path)
	}
	defer func() { _ = f.Close() }()
	matlabFile, err := matlab.NewFileFromReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse Matlab file %q", path)
	}
	vars := make(map[string][]interface{}, len(varNames))
	for _, varName := range varNames {
		matVar, found := matlabFile.GetVar(varName)
		if !found {
			return nil, errors.Errorf("variable %q not found in Matlab file %q", varName, path)
		}
		vars[varName] = matVar.Value()
	}
	return vars, nil
}

// readMatlabInts reads the numeric variables varNames from a Matlab (.mat) file, parsing it once.
func readMatlabInts(path string, varNames ...string) (map[string][]int, error) {
	vars, err := readMatlabVars(path, varNames...)
	if err != nil {
		return nil, err
	}
	ints := make(map[string][]int, len(vars))
	for varName, values := range vars {
		if ints[varName], err = toInts(values); err != nil {
			return nil, errors.WithMessagef(err, "variable %q in Matlab file %q", varName, path)
		}
	}
	return ints, nil
}

func toInts(values []interface{}) ([]int, error) {
	ints := make([]int, len(values))
	for ii, value := range values {
		var err error
		if ints[ii], err = toInt(value); err != nil {
			return nil, errors.WithMessagef(err, "element %d", ii)
		}
	}
	return ints, nil
}

func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case uint8:
		return int(v), nil
	case int8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case int16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case int32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case int64:
		return int(v), nil
	case float32:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.Errorf("unsupported numeric type %T", value)
	}
}
