// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package tdms

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// object tracks the per-path parsing state across segments.
type object struct {
	path     string
	ch       *Channel // nil for the root and group objects
	hasIndex bool
	dtype    DataType
	count    uint64
	byteSize uint64 // raw chunk bytes for string channels
}

// Open parses all segment headers of a TDMS file. Raw channel data is not
// read until requested through a Channel, so r must stay open for the
// lifetime of the returned File.
//
// Interleaved and DAQmx raw data are not supported.
func Open(r io.ReadSeeker) (*File, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("error determining file size: %w", err)
	}

	f := &File{Properties: make(map[string]any)}
	objects := make(map[string]*object)
	var rawOrder []*object

	pos := int64(0)
	for pos < size {
		if size-pos < leadInSize {
			return nil, fmt.Errorf("truncated segment lead-in at offset %d", pos)
		}
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil, fmt.Errorf("error seeking to segment: %w", err)
		}

		lead := make([]byte, leadInSize)
		if _, err := io.ReadFull(r, lead); err != nil {
			return nil, fmt.Errorf("error reading segment lead-in: %w", err)
		}
		if !bytes.Equal(lead[0:4], segmentTag[:]) {
			return nil, fmt.Errorf("invalid segment tag %q at offset %d", lead[0:4], pos)
		}

		// The table of contents is always little-endian; the remaining
		// lead-in fields follow the segment's byte order.
		toc := binary.LittleEndian.Uint32(lead[4:8])
		var order binary.ByteOrder = binary.LittleEndian
		if toc&tocBigEndian != 0 {
			order = binary.BigEndian
		}
		if toc&tocDAQmxRawData != 0 {
			return nil, fmt.Errorf("DAQmx raw data is not supported")
		}
		if toc&tocRawData != 0 && toc&tocInterleavedData != 0 {
			return nil, fmt.Errorf("interleaved raw data is not supported")
		}

		version := order.Uint32(lead[8:12])
		if version != fileVersion && version != fileVersion-1 {
			return nil, fmt.Errorf("unsupported file version %d", version)
		}
		nextOffset := order.Uint64(lead[12:20])
		rawOffset := order.Uint64(lead[20:28])

		dataStart := pos + leadInSize + int64(rawOffset)
		segEnd := size
		if nextOffset != math.MaxUint64 {
			segEnd = pos + leadInSize + int64(nextOffset)
			if segEnd > size {
				// Incomplete final segment, e.g. the writer crashed.
				segEnd = size
			}
		}

		if toc&tocNewObjList != 0 {
			rawOrder = rawOrder[:0]
		}

		if toc&tocMetaData != 0 {
			meta := make([]byte, int(rawOffset))
			if _, err := io.ReadFull(r, meta); err != nil {
				return nil, fmt.Errorf("error reading segment metadata: %w", err)
			}
			rawOrder, err = f.parseMetadata(bytes.NewReader(meta), order, objects, rawOrder)
			if err != nil {
				return nil, err
			}
		}

		if toc&tocRawData != 0 {
			var chunkSize int64
			for _, o := range rawOrder {
				chunkSize += o.chunkBytes()
			}
			if chunkSize > 0 {
				chunks := (segEnd - dataStart) / chunkSize
				off := dataStart
				for k := int64(0); k < chunks; k++ {
					for _, o := range rawOrder {
						if o.ch != nil && o.dtype.Size() > 0 {
							o.ch.chunks = append(o.ch.chunks, chunk{
								offset: off,
								count:  int64(o.count),
								order:  order,
							})
							o.ch.length += int(o.count)
						}
						off += o.chunkBytes()
					}
				}
				// An interrupted recording may leave a partial trailing
				// chunk; keep the whole values that made it to disk.
				rem := (segEnd - dataStart) % chunkSize
				for _, o := range rawOrder {
					if rem <= 0 {
						break
					}
					n := o.chunkBytes()
					if n > rem {
						n = rem
					}
					if o.ch != nil && o.dtype.Size() > 0 {
						if count := n / int64(o.dtype.Size()); count > 0 {
							o.ch.chunks = append(o.ch.chunks, chunk{
								offset: off,
								count:  count,
								order:  order,
							})
							o.ch.length += int(count)
						}
					}
					off += n
					rem -= n
				}
			}
		}

		if nextOffset == math.MaxUint64 {
			break
		}
		pos = segEnd
	}

	for _, g := range f.Groups {
		for _, c := range g.Channels {
			c.r = r
		}
	}

	return f, nil
}

// chunkBytes returns the byte length this object contributes to one raw
// data chunk.
func (o *object) chunkBytes() int64 {
	if o.dtype == TypeString {
		return int64(o.byteSize)
	}
	return int64(o.count) * int64(o.dtype.Size())
}

// parseMetadata reads one segment's object list and merges it into the file
// tree, returning the updated raw data ordering for the segment.
func (f *File) parseMetadata(r *bytes.Reader, order binary.ByteOrder, objects map[string]*object, rawOrder []*object) ([]*object, error) {
	var numObjects uint32
	if err := binary.Read(r, order, &numObjects); err != nil {
		return nil, fmt.Errorf("error reading object count: %w", err)
	}

	for i := uint32(0); i < numObjects; i++ {
		path, err := readString(r, order)
		if err != nil {
			return nil, fmt.Errorf("error reading object path: %w", err)
		}

		obj, props, err := f.lookup(path, objects)
		if err != nil {
			return nil, err
		}

		var indexLen uint32
		if err := binary.Read(r, order, &indexLen); err != nil {
			return nil, fmt.Errorf("error reading raw data index for %q: %w", path, err)
		}
		switch indexLen {
		case 0xFFFFFFFF:
			// No raw data for this object in this segment.
			rawOrder = removeObject(rawOrder, obj)
		case 0x00000000:
			// Raw data index matches the previous segment.
			if !obj.hasIndex {
				return nil, fmt.Errorf("object %q reuses a raw data index it never declared", path)
			}
			rawOrder = appendObject(rawOrder, obj)
		default:
			var dtype, dim uint32
			if err := binary.Read(r, order, &dtype); err != nil {
				return nil, fmt.Errorf("error reading data type for %q: %w", path, err)
			}
			if err := binary.Read(r, order, &dim); err != nil {
				return nil, fmt.Errorf("error reading array dimension for %q: %w", path, err)
			}
			if dim != 1 {
				return nil, fmt.Errorf("object %q: array dimension %d is not supported", path, dim)
			}
			var count uint64
			if err := binary.Read(r, order, &count); err != nil {
				return nil, fmt.Errorf("error reading value count for %q: %w", path, err)
			}
			obj.dtype = DataType(dtype)
			obj.count = count
			if obj.dtype == TypeString {
				if err := binary.Read(r, order, &obj.byteSize); err != nil {
					return nil, fmt.Errorf("error reading raw size for %q: %w", path, err)
				}
			}
			obj.hasIndex = true
			if obj.ch != nil {
				obj.ch.DataType = obj.dtype
			}
			rawOrder = appendObject(rawOrder, obj)
		}

		var numProps uint32
		if err := binary.Read(r, order, &numProps); err != nil {
			return nil, fmt.Errorf("error reading property count for %q: %w", path, err)
		}
		for j := uint32(0); j < numProps; j++ {
			name, err := readString(r, order)
			if err != nil {
				return nil, fmt.Errorf("error reading property name for %q: %w", path, err)
			}
			var dtype uint32
			if err := binary.Read(r, order, &dtype); err != nil {
				return nil, fmt.Errorf("error reading property type for %q: %w", path, err)
			}
			value, err := readValue(r, order, DataType(dtype))
			if err != nil {
				return nil, fmt.Errorf("error reading property %q of %q: %w", name, path, err)
			}
			props[name] = value
		}
	}

	return rawOrder, nil
}

// lookup resolves an object path to its parsing state and property map,
// creating file tree nodes on first sight.
func (f *File) lookup(path string, objects map[string]*object) (*object, map[string]any, error) {
	if obj, ok := objects[path]; ok {
		return obj, f.propsFor(path, obj), nil
	}

	parts, err := splitPath(path)
	if err != nil {
		return nil, nil, err
	}

	obj := &object{path: path}
	switch len(parts) {
	case 0: // root
	case 1:
		if f.Group(parts[0]) == nil {
			f.Groups = append(f.Groups, &Group{
				Name:       parts[0],
				Properties: make(map[string]any),
			})
		}
	case 2:
		g := f.Group(parts[0])
		if g == nil {
			g = &Group{Name: parts[0], Properties: make(map[string]any)}
			f.Groups = append(f.Groups, g)
		}
		ch := &Channel{
			Name:       parts[1],
			Properties: make(map[string]any),
		}
		g.Channels = append(g.Channels, ch)
		obj.ch = ch
	default:
		return nil, nil, fmt.Errorf("invalid object path %q", path)
	}

	objects[path] = obj
	return obj, f.propsFor(path, obj), nil
}

// propsFor returns the property map of the file tree node behind an object.
func (f *File) propsFor(path string, obj *object) map[string]any {
	if obj.ch != nil {
		return obj.ch.Properties
	}
	parts, _ := splitPath(path)
	if len(parts) == 1 {
		return f.Group(parts[0]).Properties
	}
	return f.Properties
}

func appendObject(rawOrder []*object, obj *object) []*object {
	for _, o := range rawOrder {
		if o == obj {
			return rawOrder
		}
	}
	return append(rawOrder, obj)
}

func removeObject(rawOrder []*object, obj *object) []*object {
	for i, o := range rawOrder {
		if o == obj {
			return append(rawOrder[:i], rawOrder[i+1:]...)
		}
	}
	return rawOrder
}

// splitPath decomposes an object path like /'group'/'channel' into its
// unquoted components. A doubled quote inside a name escapes a literal one.
func splitPath(path string) ([]string, error) {
	if path == "/" {
		return nil, nil
	}
	var parts []string
	i := 0
	for i < len(path) {
		if path[i] != '/' {
			return nil, fmt.Errorf("invalid object path %q", path)
		}
		i++
		if i >= len(path) || path[i] != '\'' {
			return nil, fmt.Errorf("invalid object path %q", path)
		}
		i++
		var sb strings.Builder
		closed := false
		for i < len(path) {
			if path[i] == '\'' {
				if i+1 < len(path) && path[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				i++
				closed = true
				break
			}
			sb.WriteByte(path[i])
			i++
		}
		if !closed {
			return nil, fmt.Errorf("invalid object path %q", path)
		}
		parts = append(parts, sb.String())
	}
	return parts, nil
}

func readString(r *bytes.Reader, order binary.ByteOrder) (string, error) {
	var n uint32
	if err := binary.Read(r, order, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// readValue decodes one property value.
func readValue(r *bytes.Reader, order binary.ByteOrder, dt DataType) (any, error) {
	switch dt {
	case TypeInt8:
		var v int8
		err := binary.Read(r, order, &v)
		return v, err
	case TypeInt16:
		var v int16
		err := binary.Read(r, order, &v)
		return v, err
	case TypeInt32:
		var v int32
		err := binary.Read(r, order, &v)
		return v, err
	case TypeInt64:
		var v int64
		err := binary.Read(r, order, &v)
		return v, err
	case TypeUint8:
		var v uint8
		err := binary.Read(r, order, &v)
		return v, err
	case TypeUint16:
		var v uint16
		err := binary.Read(r, order, &v)
		return v, err
	case TypeUint32:
		var v uint32
		err := binary.Read(r, order, &v)
		return v, err
	case TypeUint64:
		var v uint64
		err := binary.Read(r, order, &v)
		return v, err
	case TypeFloat32:
		var v float32
		err := binary.Read(r, order, &v)
		return v, err
	case TypeFloat64:
		var v float64
		err := binary.Read(r, order, &v)
		return v, err
	case TypeString:
		return readString(r, order)
	case TypeBoolean:
		var v uint8
		err := binary.Read(r, order, &v)
		return v != 0, err
	case TypeTimestamp:
		return readTimestamp(r, order)
	default:
		return nil, fmt.Errorf("unsupported property type %s", dt)
	}
}

// readTimestamp decodes a 16-byte TDMS timestamp: 2^-64 fractions of a
// second and whole seconds since the LabVIEW epoch. Little-endian files
// store the fractions first, big-endian files the seconds.
func readTimestamp(r *bytes.Reader, order binary.ByteOrder) (time.Time, error) {
	var fractions uint64
	var seconds int64
	if order == binary.ByteOrder(binary.LittleEndian) {
		if err := binary.Read(r, order, &fractions); err != nil {
			return time.Time{}, err
		}
		if err := binary.Read(r, order, &seconds); err != nil {
			return time.Time{}, err
		}
	} else {
		if err := binary.Read(r, order, &seconds); err != nil {
			return time.Time{}, err
		}
		if err := binary.Read(r, order, &fractions); err != nil {
			return time.Time{}, err
		}
	}
	nanos := int64(float64(fractions) / float64(1<<32) / float64(1<<32) * 1e9)
	return epoch1904.Add(time.Duration(seconds)*time.Second + time.Duration(nanos)), nil
}

// Float64s reads the channel's full sample sequence and converts it to
// float64.
func (c *Channel) Float64s() ([]float64, error) {
	sz := c.DataType.Size()
	if sz == 0 || c.DataType == TypeTimestamp {
		return nil, fmt.Errorf("channel %q: cannot convert %s data to float64", c.Name, c.DataType)
	}

	out := make([]float64, 0, c.length)
	for _, ck := range c.chunks {
		if _, err := c.r.Seek(ck.offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("error seeking to channel data: %w", err)
		}
		buf := make([]byte, int(ck.count)*sz)
		if _, err := io.ReadFull(c.r, buf); err != nil {
			return nil, fmt.Errorf("error reading channel data: %w", err)
		}
		for i := 0; i < int(ck.count); i++ {
			out = append(out, convertSample(buf[i*sz:(i+1)*sz], ck.order, c.DataType))
		}
	}
	return out, nil
}

func convertSample(b []byte, order binary.ByteOrder, dt DataType) float64 {
	switch dt {
	case TypeInt8:
		return float64(int8(b[0]))
	case TypeInt16:
		return float64(int16(order.Uint16(b)))
	case TypeInt32:
		return float64(int32(order.Uint32(b)))
	case TypeInt64:
		return float64(int64(order.Uint64(b)))
	case TypeUint8:
		return float64(b[0])
	case TypeUint16:
		return float64(order.Uint16(b))
	case TypeUint32:
		return float64(order.Uint32(b))
	case TypeUint64:
		return float64(order.Uint64(b))
	case TypeFloat32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case TypeFloat64:
		return math.Float64frombits(order.Uint64(b))
	case TypeBoolean:
		if b[0] != 0 {
			return 1
		}
		return 0
	default:
		return 0
	}
}
