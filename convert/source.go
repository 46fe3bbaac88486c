// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstreams/tdmsx/tdms"
)

// Source is one open TDMS recording. It holds the underlying file handle
// for the duration of a conversion and must be closed afterwards.
type Source struct {
	Path string
	File *tdms.File

	f *os.File
}

// Open opens and parses a source file.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening source: %w", err)
	}

	file, err := tdms.Open(f)
	if err != nil {
		f.Close()
		return nil, &DecodeError{Path: path, Err: err}
	}

	return &Source{Path: path, File: file, f: f}, nil
}

// Close releases the underlying file handle.
func (s *Source) Close() error { return s.f.Close() }

// BaseName returns the source filename without directory and extension.
func (s *Source) BaseName() string {
	name := filepath.Base(s.Path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Channels returns the channel list of the first group. Multi-group files
// are read from their first group only.
func (s *Source) Channels() ([]*tdms.Channel, error) {
	if len(s.File.Groups) == 0 {
		return nil, &DecodeError{Path: s.Path, Err: fmt.Errorf("file contains no channel groups")}
	}
	return s.File.Groups[0].Channels, nil
}

// StartTime returns the recording start timestamp from the first channel
// that declares one.
func (s *Source) StartTime() (time.Time, bool) {
	for _, g := range s.File.Groups {
		for _, ch := range g.Channels {
			if t, ok := ch.StartTime(); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
