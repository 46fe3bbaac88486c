// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package convert

import (
	"fmt"

	"github.com/labstreams/tdmsx/tdms"
)

// Table is the assembled tabular form of a conversion: one labeled column
// per exported channel, plus the optional leading time track.
type Table struct {
	Labels  []string
	Columns [][]float64
}

// Rows returns the length of the first column.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0])
}

// Assemble reads the selected channels of a source into a Table. Labels
// come from the configured names, falling back to the channel's metadata
// name, then to a positional placeholder. With TimeTrack set, an elapsed
// time column derived from the first selected channel's sampling interval
// is prepended.
//
// When the configuration produces one combined rectangular file, channels
// of differing lengths are rejected with a ShapeMismatchError rather than
// truncated or padded. Split output assembles each channel independently.
func Assemble(src *Source, cfg Config) (*Table, error) {
	channels, err := src.Channels()
	if err != nil {
		return nil, err
	}

	sel, err := Select(len(channels), cfg.Channels)
	if err != nil {
		return nil, err
	}
	if len(sel) == 0 {
		return nil, &DecodeError{Path: src.Path, Err: fmt.Errorf("file contains no channels")}
	}

	slots := len(sel)
	if cfg.TimeTrack {
		slots++
	}
	if len(cfg.Names) > 0 && len(cfg.Names) < slots {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("%d channel names given for %d output columns", len(cfg.Names), slots),
		}
	}

	table := &Table{
		Labels:  make([]string, 0, slots),
		Columns: make([][]float64, 0, slots),
	}

	offset := 0
	if cfg.TimeTrack {
		first := channels[sel[0]]
		increment, ok := first.Increment()
		if !ok {
			return nil, &DecodeError{
				Path: src.Path,
				Err:  fmt.Errorf("time track requested but channel %q declares no sampling interval", first.Name),
			}
		}
		label := "time"
		if len(cfg.Names) > 0 && cfg.Names[0] != "" {
			label = cfg.Names[0]
		}
		table.Labels = append(table.Labels, label)
		table.Columns = append(table.Columns, timeTrack(first.Len(), startOffset(first), increment))
		offset = 1
	}

	for k, idx := range sel {
		ch := channels[idx]
		data, err := ch.Float64s()
		if err != nil {
			return nil, &DecodeError{Path: src.Path, Err: err}
		}

		label := ""
		if len(cfg.Names) > k+offset {
			label = cfg.Names[k+offset]
		}
		if label == "" {
			label = ch.Name
		}
		if label == "" {
			label = fmt.Sprintf("channel_%d", idx)
		}

		table.Labels = append(table.Labels, label)
		table.Columns = append(table.Columns, data)
	}

	if needsRectangle(cfg) {
		want := table.Rows()
		for i, col := range table.Columns {
			if len(col) != want {
				return nil, &ShapeMismatchError{Label: table.Labels[i], Want: want, Got: len(col)}
			}
		}
	}

	return table, nil
}

// needsRectangle reports whether the configuration produces one combined
// file and therefore requires equal channel lengths. The wav format always
// splits.
func needsRectangle(cfg Config) bool {
	return !cfg.Split && cfg.Format != FormatWAV
}

func timeTrack(n int, offset, increment float64) []float64 {
	track := make([]float64, n)
	for i := range track {
		track[i] = offset + float64(i)*increment
	}
	return track
}

// startOffset returns the channel's waveform start offset, defaulting to
// zero when absent.
func startOffset(ch *tdms.Channel) float64 {
	if v, ok := ch.Properties["wf_start_offset"].(float64); ok {
		return v
	}
	return 0
}
