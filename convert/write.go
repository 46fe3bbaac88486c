// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstreams/tdmsx/mat5"
	"github.com/labstreams/tdmsx/npy"
	"github.com/labstreams/tdmsx/wav"
)

// timestampLayout is the recording-time segment of composed filenames.
const timestampLayout = "20060102-150405"

// writers maps each format to its serializer. Adding a format is one table
// entry plus its writer function.
var writers = map[Format]func(stem string, table *Table, cfg Config) ([]string, error){
	FormatNPY: writeNPY,
	FormatMAT: writeMAT,
	FormatWAV: writeWAV,
	FormatCSV: writeCSV,
}

// Write serializes an assembled table to the configured format and returns
// the paths written. Filenames are composed from the source base name, the
// recording timestamp when the source declares one, and the channel label
// in split mode. Distinct sources composing identical filenames overwrite
// each other; the last write wins.
func Write(src *Source, table *Table, cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating output directory: %w", err)
		}
	}

	return writers[cfg.Format](outputStem(src, cfg), table, cfg)
}

// outputStem composes "<dir>/<base>[_<timestamp>]", without extension.
func outputStem(src *Source, cfg Config) string {
	dir := cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(src.Path)
	}
	stem := src.BaseName()
	if ts, ok := src.StartTime(); ok {
		stem += "_" + ts.Format(timestampLayout)
	}
	return filepath.Join(dir, stem)
}

// pathLabel makes a channel label safe for use as a filename segment.
func pathLabel(label string) string {
	label = strings.ReplaceAll(label, "/", "-")
	if filepath.Separator != '/' {
		label = strings.ReplaceAll(label, string(filepath.Separator), "-")
	}
	return label
}

// writeFile creates path and hands it to fn, reporting close errors.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

// writeNPY writes plain .npy arrays, or .npz archives when compression is
// requested. Labels have no annotation slot in plain npy; they only appear
// in filenames and as npz entry names.
func writeNPY(stem string, table *Table, cfg Config) ([]string, error) {
	var paths []string

	switch {
	case cfg.Compress && cfg.Split:
		for i, col := range table.Columns {
			path := stem + "_" + pathLabel(table.Labels[i]) + ".npz"
			entries := []npy.Entry{{Name: table.Labels[i], Values: col}}
			if err := writeFile(path, func(w io.Writer) error {
				return npy.WriteArchive(w, entries, true)
			}); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
	case cfg.Compress:
		path := stem + ".npz"
		entries := make([]npy.Entry, len(table.Columns))
		for i, col := range table.Columns {
			entries[i] = npy.Entry{Name: table.Labels[i], Values: col}
		}
		if err := writeFile(path, func(w io.Writer) error {
			return npy.WriteArchive(w, entries, true)
		}); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	case cfg.Split:
		for i, col := range table.Columns {
			col := col
			path := stem + "_" + pathLabel(table.Labels[i]) + ".npy"
			if err := writeFile(path, func(w io.Writer) error {
				return npy.Write(w, [][]float64{col})
			}); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
	default:
		path := stem + ".npy"
		if err := writeFile(path, func(w io.Writer) error {
			return npy.Write(w, table.Columns)
		}); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// writeMAT writes one variable per channel, either as separate files or as
// named fields of one combined file.
func writeMAT(stem string, table *Table, cfg Config) ([]string, error) {
	if cfg.Split {
		var paths []string
		for i, col := range table.Columns {
			v := mat5.Var{Name: table.Labels[i], Values: col}
			path := stem + "_" + pathLabel(table.Labels[i]) + ".mat"
			if err := writeFile(path, func(w io.Writer) error {
				return mat5.Write(w, []mat5.Var{v}, cfg.Compress)
			}); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	}

	vars := make([]mat5.Var, len(table.Columns))
	for i, col := range table.Columns {
		vars[i] = mat5.Var{Name: table.Labels[i], Values: col}
	}
	path := stem + ".mat"
	if err := writeFile(path, func(w io.Writer) error {
		return mat5.Write(w, vars, cfg.Compress)
	}); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// writeWAV always splits, since a WAVE stream cannot hold independently
// labeled channels. Each channel is normalized and encoded on its own.
func writeWAV(stem string, table *Table, cfg Config) ([]string, error) {
	var paths []string
	for i, col := range table.Columns {
		col := col
		path := stem + "_" + pathLabel(table.Labels[i]) + ".wav"
		if err := writeFile(path, func(w io.Writer) error {
			return wav.Write(w, col, cfg.SampleRate)
		}); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeCSV writes a header row of labels followed by sample rows. The
// compression flag is accepted but has no effect for this format.
func writeCSV(stem string, table *Table, cfg Config) ([]string, error) {
	if cfg.Split {
		var paths []string
		for i, col := range table.Columns {
			label, col := table.Labels[i], col
			path := stem + "_" + pathLabel(label) + ".csv"
			if err := writeFile(path, func(w io.Writer) error {
				return writeCSVColumns(w, []string{label}, [][]float64{col})
			}); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	}

	path := stem + ".csv"
	if err := writeFile(path, func(w io.Writer) error {
		return writeCSVColumns(w, table.Labels, table.Columns)
	}); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func writeCSVColumns(w io.Writer, labels []string, columns [][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(labels); err != nil {
		return err
	}

	rows := 0
	if len(columns) > 0 {
		rows = len(columns[0])
	}
	record := make([]string, len(columns))
	for r := 0; r < rows; r++ {
		for c, col := range columns {
			record[c] = strconv.FormatFloat(col[r], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
