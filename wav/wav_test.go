// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wav_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/labstreams/tdmsx/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	in := make([]float64, 1000)
	for i := range in {
		in[i] = 0.5 * math.Sin(2*math.Pi*float64(i)/100)
	}

	var buf bytes.Buffer
	require.NoError(t, wav.Write(&buf, in, 44100))

	out, rate, err := wav.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	require.Len(t, out, len(in))

	// Samples are peak-normalized, so the 0.5 amplitude input comes back
	// at full scale.
	for i := range in {
		assert.InDelta(t, in[i]*2, out[i], 0.001)
	}
}

func TestWriteSilence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wav.Write(&buf, make([]float64, 10), 8000))

	out, _, err := wav.Read(&buf)
	require.NoError(t, err)
	for _, s := range out {
		assert.Zero(t, s)
	}
}

func TestWriteInvalidRate(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, wav.Write(&buf, []float64{1}, 0))
}

func TestReadRejectsGarbage(t *testing.T) {
	_, _, err := wav.Read(bytes.NewReader(make([]byte, 64)))
	require.Error(t, err)
}
