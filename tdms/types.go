// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package tdms

import (
	"encoding/binary"
	"io"
	"time"
)

// DataType identifies the on-disk type of raw channel data and property
// values, using the type codes of the TDMS file format.
type DataType uint32

const (
	TypeVoid      DataType = 0x00
	TypeInt8      DataType = 0x01
	TypeInt16     DataType = 0x02
	TypeInt32     DataType = 0x03
	TypeInt64     DataType = 0x04
	TypeUint8     DataType = 0x05
	TypeUint16    DataType = 0x06
	TypeUint32    DataType = 0x07
	TypeUint64    DataType = 0x08
	TypeFloat32   DataType = 0x09
	TypeFloat64   DataType = 0x0A
	TypeString    DataType = 0x20
	TypeBoolean   DataType = 0x21
	TypeTimestamp DataType = 0x44
)

// Size returns the fixed byte width of one value, or 0 for variable-width
// and void types.
func (dt DataType) Size() int {
	switch dt {
	case TypeInt8, TypeUint8, TypeBoolean:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	case TypeTimestamp:
		return 16
	default:
		return 0
	}
}

func (dt DataType) String() string {
	switch dt {
	case TypeVoid:
		return "Void"
	case TypeInt8:
		return "Int8"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeUint8:
		return "Uint8"
	case TypeUint16:
		return "Uint16"
	case TypeUint32:
		return "Uint32"
	case TypeUint64:
		return "Uint64"
	case TypeFloat32:
		return "SingleFloat"
	case TypeFloat64:
		return "DoubleFloat"
	case TypeString:
		return "String"
	case TypeBoolean:
		return "Boolean"
	case TypeTimestamp:
		return "TimeStamp"
	default:
		return "Unknown"
	}
}

// Table of contents bits from the segment lead-in.
const (
	tocMetaData        = 1 << 1
	tocNewObjList      = 1 << 2
	tocRawData         = 1 << 3
	tocInterleavedData = 1 << 5
	tocBigEndian       = 1 << 6
	tocDAQmxRawData    = 1 << 7
)

const (
	leadInSize  = 28
	fileVersion = 4713 // TDMS 2.0
)

var segmentTag = [4]byte{'T', 'D', 'S', 'm'}

// TDMS timestamps count from the LabVIEW epoch.
var epoch1904 = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// File is the parsed metadata of a TDMS file. Raw channel samples stay on
// disk until read through a Channel.
type File struct {
	// Properties holds the file-level (root object) properties.
	Properties map[string]any
	// Groups in the order they first appear in the file.
	Groups []*Group
}

// Group is an organizational tier above channels.
type Group struct {
	Name       string
	Properties map[string]any
	Channels   []*Channel
}

// Channel is one recorded signal.
type Channel struct {
	Name       string
	DataType   DataType
	Properties map[string]any

	r      io.ReadSeeker
	chunks []chunk
	length int
}

// chunk locates one contiguous run of samples in the underlying file.
type chunk struct {
	offset int64
	count  int64
	order  binary.ByteOrder
}

// Group returns the named group, or nil.
func (f *File) Group(name string) *Group {
	for _, g := range f.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Channel returns the named channel, or nil.
func (g *Group) Channel(name string) *Channel {
	for _, c := range g.Channels {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Len returns the total number of samples recorded for the channel across
// all segments.
func (c *Channel) Len() int { return c.length }

// StartTime returns the channel's waveform start time property, if present.
func (c *Channel) StartTime() (time.Time, bool) {
	t, ok := c.Properties["wf_start_time"].(time.Time)
	return t, ok
}

// Increment returns the channel's waveform sampling interval in seconds, if
// present.
func (c *Channel) Increment() (float64, bool) {
	switch v := c.Properties["wf_increment"].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}
