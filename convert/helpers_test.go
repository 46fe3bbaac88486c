// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package convert_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstreams/tdmsx/tdms"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2020, time.July, 8, 12, 30, 45, 0, time.UTC)

// writeSource writes a TDMS fixture with the given channels into dir and
// returns its path. Each channel carries waveform timing properties.
func writeSource(t *testing.T, dir, name string, channels map[string][]float64, order []string) string {
	t.Helper()

	specs := make([]tdms.ChannelSpec, 0, len(order))
	for _, chName := range order {
		specs = append(specs, tdms.ChannelSpec{
			Name: chName,
			Properties: map[string]any{
				"wf_start_time": testStart,
				"wf_increment":  0.01,
				"unit_string":   "V",
			},
			Data: channels[chName],
		})
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tdms.Write(f, map[string]any{"name": "fixture"}, []tdms.GroupSpec{{
		Name:     "Measurement",
		Channels: specs,
	}}))
	require.NoError(t, f.Close())
	return path
}

// ramp returns n increasing samples starting at base.
func ramp(base float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = base + float64(i)
	}
	return s
}
