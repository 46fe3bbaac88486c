// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package tdms

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// ChannelSpec describes one channel to be written.
type ChannelSpec struct {
	Name       string
	Properties map[string]any
	Data       []float64
}

// GroupSpec describes one group to be written.
type GroupSpec struct {
	Name       string
	Properties map[string]any
	Channels   []ChannelSpec
}

// Write writes a complete single-segment TDMS file: file-level properties,
// the given groups and channels, and their raw data as little-endian
// float64 values. Properties are written in sorted key order, so identical
// inputs produce identical bytes.
//
// Calling Write again on the same underlying writer appends a further valid
// segment, which readers treat as additional data for the same channels.
func Write(w io.Writer, fileProps map[string]any, groups []GroupSpec) error {
	var meta bytes.Buffer

	numObjects := uint32(1)
	for _, g := range groups {
		numObjects += 1 + uint32(len(g.Channels))
	}
	if err := binary.Write(&meta, binary.LittleEndian, numObjects); err != nil {
		return err
	}

	// Root object.
	if err := writeObjectHeader(&meta, "/", nil); err != nil {
		return err
	}
	if err := writeProperties(&meta, fileProps); err != nil {
		return fmt.Errorf("error writing file properties: %w", err)
	}

	var raw bytes.Buffer
	for _, g := range groups {
		if err := writeObjectHeader(&meta, objectPath(g.Name), nil); err != nil {
			return err
		}
		if err := writeProperties(&meta, g.Properties); err != nil {
			return fmt.Errorf("error writing properties of group %q: %w", g.Name, err)
		}

		for _, c := range g.Channels {
			if err := writeObjectHeader(&meta, objectPath(g.Name, c.Name), c.Data); err != nil {
				return err
			}
			if err := writeProperties(&meta, c.Properties); err != nil {
				return fmt.Errorf("error writing properties of channel %q: %w", c.Name, err)
			}
			for _, v := range c.Data {
				if err := binary.Write(&raw, binary.LittleEndian, v); err != nil {
					return err
				}
			}
		}
	}

	writer := bufio.NewWriter(w)

	// Segment lead-in.
	if _, err := writer.Write(segmentTag[:]); err != nil {
		return err
	}
	toc := uint32(tocMetaData | tocNewObjList)
	if raw.Len() > 0 {
		toc |= tocRawData
	}
	for _, v := range []any{
		toc,
		uint32(fileVersion),
		uint64(meta.Len() + raw.Len()), // offset to the next segment
		uint64(meta.Len()),             // offset to raw data
	} {
		if err := binary.Write(writer, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	if _, err := writer.Write(meta.Bytes()); err != nil {
		return err
	}
	if _, err := writer.Write(raw.Bytes()); err != nil {
		return err
	}

	return writer.Flush()
}

// objectPath quotes and joins group and channel names into an object path.
func objectPath(parts ...string) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString("/'")
		sb.WriteString(strings.ReplaceAll(p, "'", "''"))
		sb.WriteString("'")
	}
	return sb.String()
}

// writeObjectHeader writes an object path and its raw data index. A nil
// data slice marks an object without raw data.
func writeObjectHeader(w *bytes.Buffer, path string, data []float64) error {
	if err := writeString(w, path); err != nil {
		return err
	}
	if data == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0xFFFFFFFF))
	}
	for _, v := range []any{
		uint32(20), // length of the raw data index
		uint32(TypeFloat64),
		uint32(1), // array dimension
		uint64(len(data)),
	} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func writeProperties(w *bytes.Buffer, props map[string]any) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(props))); err != nil {
		return err
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeValue(w, props[k]); err != nil {
			return fmt.Errorf("property %q: %w", k, err)
		}
	}
	return nil
}

func writeString(w *bytes.Buffer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

// writeValue writes a property value tagged with its TDMS data type.
func writeValue(w *bytes.Buffer, value any) error {
	var dt DataType
	switch value.(type) {
	case int8:
		dt = TypeInt8
	case int16:
		dt = TypeInt16
	case int32, int:
		dt = TypeInt32
	case int64:
		dt = TypeInt64
	case uint8:
		dt = TypeUint8
	case uint16:
		dt = TypeUint16
	case uint32:
		dt = TypeUint32
	case uint64:
		dt = TypeUint64
	case float32:
		dt = TypeFloat32
	case float64:
		dt = TypeFloat64
	case string:
		dt = TypeString
	case bool:
		dt = TypeBoolean
	case time.Time:
		dt = TypeTimestamp
	default:
		return fmt.Errorf("unsupported property value type %T", value)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dt)); err != nil {
		return err
	}

	switch v := value.(type) {
	case string:
		return writeString(w, v)
	case bool:
		b := byte(0)
		if v {
			b = 1
		}
		return w.WriteByte(b)
	case int:
		return binary.Write(w, binary.LittleEndian, int32(v))
	case time.Time:
		return writeTimestamp(w, v)
	default:
		return binary.Write(w, binary.LittleEndian, v)
	}
}

// writeTimestamp encodes a timestamp as 2^-64 fractions of a second and
// whole seconds since the LabVIEW epoch.
func writeTimestamp(w *bytes.Buffer, t time.Time) error {
	d := t.Sub(epoch1904)
	seconds := int64(d / time.Second)
	rem := d - time.Duration(seconds)*time.Second
	fractions := uint64(float64(rem.Nanoseconds()) / 1e9 * float64(1<<32) * float64(1<<32))
	if err := binary.Write(w, binary.LittleEndian, fractions); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, seconds)
}
