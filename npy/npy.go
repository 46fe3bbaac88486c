// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package npy encodes float64 arrays as NumPy .npy files (format version
// 1.0) and bundles of them as .npz archives.
package npy

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var magic = []byte("\x93NUMPY\x01\x00")

// Write writes the given columns as one little-endian float64 array. A
// single column is written with a one-dimensional shape; multiple columns
// become a two-dimensional row-major array, so all columns must share the
// same length.
func Write(w io.Writer, columns [][]float64) error {
	if len(columns) == 0 {
		return fmt.Errorf("no columns to write")
	}
	rows := len(columns[0])
	for _, col := range columns[1:] {
		if len(col) != rows {
			return fmt.Errorf("columns have differing lengths (%d vs %d)", rows, len(col))
		}
	}

	var shape string
	if len(columns) == 1 {
		shape = fmt.Sprintf("(%d,)", rows)
	} else {
		shape = fmt.Sprintf("(%d, %d)", rows, len(columns))
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': %s, }", shape)

	// Pad so that the data starts on a 64-byte boundary, per the format.
	total := len(magic) + 2 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	writer := bufio.NewWriter(w)
	if _, err := writer.Write(magic); err != nil {
		return err
	}
	if err := binary.Write(writer, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := writer.WriteString(header); err != nil {
		return err
	}

	for row := 0; row < rows; row++ {
		for _, col := range columns {
			if err := binary.Write(writer, binary.LittleEndian, col[row]); err != nil {
				return err
			}
		}
	}
	return writer.Flush()
}

// Read parses a .npy file written by Write (little-endian float64, C
// order) and returns its columns.
func Read(r io.Reader) ([][]float64, error) {
	br := bufio.NewReader(r)

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, fmt.Errorf("error reading magic: %w", err)
	}
	if !bytes.Equal(head[:6], magic[:6]) {
		return nil, fmt.Errorf("not a npy file")
	}
	if head[6] != 1 {
		return nil, fmt.Errorf("unsupported npy version %d.%d", head[6], head[7])
	}

	var headerLen uint16
	if err := binary.Read(br, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("error reading header length: %w", err)
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	rows, cols, err := parseHeader(string(header))
	if err != nil {
		return nil, err
	}

	columns := make([][]float64, cols)
	for i := range columns {
		columns[i] = make([]float64, rows)
	}
	for row := 0; row < rows; row++ {
		for c := 0; c < cols; c++ {
			if err := binary.Read(br, binary.LittleEndian, &columns[c][row]); err != nil {
				return nil, fmt.Errorf("error reading data: %w", err)
			}
		}
	}
	return columns, nil
}

// parseHeader extracts the shape from a npy header dict, verifying the
// dtype and memory order.
func parseHeader(header string) (rows, cols int, err error) {
	if !strings.Contains(header, "'descr': '<f8'") {
		return 0, 0, fmt.Errorf("unsupported dtype in header %q", header)
	}
	if !strings.Contains(header, "'fortran_order': False") {
		return 0, 0, fmt.Errorf("fortran order arrays are not supported")
	}

	open := strings.Index(header, "(")
	end := strings.Index(header, ")")
	if open < 0 || end < open {
		return 0, 0, fmt.Errorf("missing shape in header %q", header)
	}
	dims := []int{}
	for _, part := range strings.Split(header[open+1:end], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid shape in header %q", header)
		}
		dims = append(dims, d)
	}
	switch len(dims) {
	case 1:
		return dims[0], 1, nil
	case 2:
		return dims[0], dims[1], nil
	default:
		return 0, 0, fmt.Errorf("unsupported array rank %d", len(dims))
	}
}

// Entry is one named array inside a .npz archive.
type Entry struct {
	Name   string
	Values []float64
}

// WriteArchive writes the entries as a .npz archive, one .npy member per
// entry. Entries are deflated when compress is set and stored verbatim
// otherwise.
func WriteArchive(w io.Writer, entries []Entry, compress bool) error {
	zw := zip.NewWriter(w)
	method := zip.Store
	if compress {
		method = zip.Deflate
	}

	for _, e := range entries {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:   e.Name + ".npy",
			Method: method,
		})
		if err != nil {
			return fmt.Errorf("error creating archive member %q: %w", e.Name, err)
		}
		if err := Write(f, [][]float64{e.Values}); err != nil {
			return fmt.Errorf("error writing archive member %q: %w", e.Name, err)
		}
	}
	return zw.Close()
}

// ReadArchive parses a .npz archive written by WriteArchive.
func ReadArchive(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("error opening archive: %w", err)
	}

	var entries []Entry
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening archive member %q: %w", f.Name, err)
		}
		columns, err := Read(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading archive member %q: %w", f.Name, err)
		}
		if len(columns) != 1 {
			return nil, fmt.Errorf("archive member %q is not one-dimensional", f.Name)
		}
		entries = append(entries, Entry{
			Name:   strings.TrimSuffix(f.Name, ".npy"),
			Values: columns[0],
		})
	}
	return entries, nil
}
