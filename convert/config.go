// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package convert

import "fmt"

// Format is an output file format.
type Format int

const (
	FormatNPY Format = iota // NumPy array (.npy, .npz when compressed)
	FormatMAT               // MATLAB Level 5 MAT-file
	FormatWAV               // 16-bit PCM RIFF WAVE
	FormatCSV               // comma-separated text table
)

// ParseFormat maps a format name to its Format value.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "npy":
		return FormatNPY, nil
	case "mat":
		return FormatMAT, nil
	case "wav":
		return FormatWAV, nil
	case "csv":
		return FormatCSV, nil
	default:
		return 0, &ConfigError{Reason: fmt.Sprintf("unknown output format %q (want npy, mat, wav, or csv)", name)}
	}
}

func (f Format) String() string {
	switch f {
	case FormatNPY:
		return "npy"
	case FormatMAT:
		return "mat"
	case FormatWAV:
		return "wav"
	case FormatCSV:
		return "csv"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the filename extension for uncompressed output.
func (f Format) Extension() string { return "." + f.String() }

// Config is the immutable description of one conversion run.
type Config struct {
	// Format selects the output serializer.
	Format Format
	// Split emits one output file per channel instead of one combined
	// file. The wav format always splits.
	Split bool
	// Compress requests the compressed variant where the format has one
	// (npz archives, compressed MAT elements). It has no effect on csv.
	Compress bool
	// TimeTrack prepends a synthesized elapsed-time column derived from
	// the source's declared sampling interval.
	TimeTrack bool
	// SampleRate in Hz; required by the wav format.
	SampleRate int
	// OutputDir receives the output files. Empty means beside the source.
	OutputDir string
	// Channels holds zero-based channel indices to export. Empty selects
	// all channels in source order.
	Channels []int
	// Names holds output labels, order-aligned with the selection. With
	// TimeTrack set, the first name labels the time column.
	Names []string
	// SaveInfo also persists a metadata sidecar per source file.
	SaveInfo bool
}

// Validate checks the option combination before any file is touched.
func (c Config) Validate() error {
	if c.Format < FormatNPY || c.Format > FormatCSV {
		return &ConfigError{Reason: fmt.Sprintf("unknown output format %d", int(c.Format))}
	}
	if c.Format == FormatWAV && c.SampleRate <= 0 {
		return &MissingParameterError{Name: "rate_sampling"}
	}
	if len(c.Names) > 0 && len(c.Channels) > 0 {
		slots := len(c.Channels)
		if c.TimeTrack {
			slots++
		}
		if len(c.Names) < slots {
			return &ConfigError{
				Reason: fmt.Sprintf("%d channel names given for %d output columns", len(c.Names), slots),
			}
		}
	}
	return nil
}
