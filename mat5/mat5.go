// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package mat5 encodes named float64 vectors as MATLAB Level 5 MAT-files,
// optionally with zlib-compressed matrix elements.
package mat5

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// MAT-file data type and array class codes.
const (
	miINT8       = 1
	miINT32      = 5
	miUINT32     = 6
	miDOUBLE     = 9
	miMATRIX     = 14
	miCOMPRESSED = 15

	mxDoubleClass = 6
)

// The description text is fixed so that identical inputs produce
// byte-identical files.
const headerText = "MATLAB 5.0 MAT-file, written by tdmsx"

// Var is one named n-by-1 matrix.
type Var struct {
	Name   string
	Values []float64
}

// Write writes the variables as a MAT-file, in order. With compress set,
// each matrix element is wrapped in a zlib-compressed element.
func Write(w io.Writer, vars []Var, compress bool) error {
	writer := bufio.NewWriter(w)

	// 116 bytes of description, 8 reserved bytes, version, endian tag.
	desc := make([]byte, 116)
	for i := range desc {
		desc[i] = ' '
	}
	copy(desc, headerText)
	if _, err := writer.Write(desc); err != nil {
		return err
	}
	if _, err := writer.Write(make([]byte, 8)); err != nil {
		return err
	}
	if err := binary.Write(writer, binary.LittleEndian, uint16(0x0100)); err != nil {
		return err
	}
	if _, err := writer.WriteString("IM"); err != nil {
		return err
	}

	for _, v := range vars {
		element, err := matrixElement(v)
		if err != nil {
			return fmt.Errorf("error encoding variable %q: %w", v.Name, err)
		}
		if compress {
			var packed bytes.Buffer
			zw := zlib.NewWriter(&packed)
			if _, err := zw.Write(element); err != nil {
				return err
			}
			if err := zw.Close(); err != nil {
				return err
			}
			if err := writeTag(writer, miCOMPRESSED, packed.Len()); err != nil {
				return err
			}
			if _, err := writer.Write(packed.Bytes()); err != nil {
				return err
			}
		} else {
			if _, err := writer.Write(element); err != nil {
				return err
			}
		}
	}

	return writer.Flush()
}

// matrixElement encodes one variable as a complete miMATRIX element,
// including its tag.
func matrixElement(v Var) ([]byte, error) {
	if v.Name == "" {
		return nil, fmt.Errorf("variable has no name")
	}

	var body bytes.Buffer

	// Array flags.
	if err := writeTag(&body, miUINT32, 8); err != nil {
		return nil, err
	}
	if err := binary.Write(&body, binary.LittleEndian, uint32(mxDoubleClass)); err != nil {
		return nil, err
	}
	if err := binary.Write(&body, binary.LittleEndian, uint32(0)); err != nil {
		return nil, err
	}

	// Dimensions: n rows, one column.
	if err := writeTag(&body, miINT32, 8); err != nil {
		return nil, err
	}
	if err := binary.Write(&body, binary.LittleEndian, int32(len(v.Values))); err != nil {
		return nil, err
	}
	if err := binary.Write(&body, binary.LittleEndian, int32(1)); err != nil {
		return nil, err
	}

	// Array name, padded to the 8-byte boundary.
	if err := writeTag(&body, miINT8, len(v.Name)); err != nil {
		return nil, err
	}
	body.WriteString(v.Name)
	if pad := len(v.Name) % 8; pad != 0 {
		body.Write(make([]byte, 8-pad))
	}

	// Real part.
	if err := writeTag(&body, miDOUBLE, 8*len(v.Values)); err != nil {
		return nil, err
	}
	for _, value := range v.Values {
		if err := binary.Write(&body, binary.LittleEndian, value); err != nil {
			return nil, err
		}
	}

	var element bytes.Buffer
	if err := writeTag(&element, miMATRIX, body.Len()); err != nil {
		return nil, err
	}
	element.Write(body.Bytes())
	return element.Bytes(), nil
}

func writeTag(w io.Writer, dataType, size int) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(dataType)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint32(size))
}

// Read parses a MAT-file written by Write.
func Read(r io.Reader) ([]Var, error) {
	header := make([]byte, 128)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	if binary.LittleEndian.Uint16(header[124:126]) != 0x0100 {
		return nil, fmt.Errorf("unsupported MAT-file version")
	}
	if string(header[126:128]) != "IM" {
		return nil, fmt.Errorf("unsupported byte order")
	}

	var vars []Var
	for {
		dataType, size, err := readTag(r)
		if err == io.EOF {
			return vars, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error reading element tag: %w", err)
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("error reading element: %w", err)
		}

		if dataType == miCOMPRESSED {
			zr, err := zlib.NewReader(bytes.NewReader(payload))
			if err != nil {
				return nil, fmt.Errorf("error opening compressed element: %w", err)
			}
			unpacked, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return nil, fmt.Errorf("error reading compressed element: %w", err)
			}
			inner := bytes.NewReader(unpacked)
			dataType, size, err = readTag(inner)
			if err != nil {
				return nil, fmt.Errorf("error reading compressed element tag: %w", err)
			}
			payload = make([]byte, size)
			if _, err := io.ReadFull(inner, payload); err != nil {
				return nil, fmt.Errorf("error reading compressed element: %w", err)
			}
		}

		if dataType != miMATRIX {
			return nil, fmt.Errorf("unsupported element type %d", dataType)
		}
		v, err := parseMatrix(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
}

func parseMatrix(r *bytes.Reader) (Var, error) {
	// Array flags.
	dataType, size, err := readTag(r)
	if err != nil || dataType != miUINT32 || size != 8 {
		return Var{}, fmt.Errorf("malformed array flags")
	}
	var class, reserved uint32
	if err := binary.Read(r, binary.LittleEndian, &class); err != nil {
		return Var{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &reserved); err != nil {
		return Var{}, err
	}
	if class&0xFF != mxDoubleClass {
		return Var{}, fmt.Errorf("unsupported array class %d", class&0xFF)
	}

	// Dimensions.
	dataType, size, err = readTag(r)
	if err != nil || dataType != miINT32 || size != 8 {
		return Var{}, fmt.Errorf("malformed dimensions")
	}
	var rows, cols int32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return Var{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &cols); err != nil {
		return Var{}, err
	}
	if cols != 1 {
		return Var{}, fmt.Errorf("unsupported matrix shape %dx%d", rows, cols)
	}

	// Name.
	dataType, size, err = readTag(r)
	if err != nil || dataType != miINT8 {
		return Var{}, fmt.Errorf("malformed array name")
	}
	name := make([]byte, size)
	if _, err := io.ReadFull(r, name); err != nil {
		return Var{}, err
	}
	if pad := size % 8; pad != 0 {
		if _, err := r.Seek(int64(8-pad), io.SeekCurrent); err != nil {
			return Var{}, err
		}
	}

	// Real part.
	dataType, size, err = readTag(r)
	if err != nil || dataType != miDOUBLE || size != 8*int(rows) {
		return Var{}, fmt.Errorf("malformed matrix data")
	}
	values := make([]float64, rows)
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return Var{}, err
	}

	return Var{Name: string(name), Values: values}, nil
}

func readTag(r io.Reader) (dataType, size int, err error) {
	var t, s uint32
	if err := binary.Read(r, binary.LittleEndian, &t); err != nil {
		return 0, 0, err
	}
	if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
		return 0, 0, err
	}
	return int(t), int(s), nil
}
