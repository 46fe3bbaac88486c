// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package npy_test

import (
	"bytes"
	"testing"

	"github.com/labstreams/tdmsx/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadOneDimensional(t *testing.T) {
	var buf bytes.Buffer
	in := []float64{1.5, -2.25, 0, 1e9}
	require.NoError(t, npy.Write(&buf, [][]float64{in}))

	// Data must start on a 64-byte boundary.
	require.Equal(t, 0, (buf.Len()-8*len(in))%64)

	columns, err := npy.Read(&buf)
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, in, columns[0])
}

func TestWriteReadTwoDimensional(t *testing.T) {
	var buf bytes.Buffer
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	require.NoError(t, npy.Write(&buf, [][]float64{a, b}))

	columns, err := npy.Read(&buf)
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, a, columns[0])
	assert.Equal(t, b, columns[1])
}

func TestWriteRaggedColumns(t *testing.T) {
	var buf bytes.Buffer
	err := npy.Write(&buf, [][]float64{{1, 2}, {3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "differing lengths")
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := npy.Read(bytes.NewReader([]byte("definitely not numpy data")))
	require.Error(t, err)
}

func TestArchiveRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		in := []npy.Entry{
			{Name: "x", Values: []float64{1, 2, 3}},
			{Name: "y", Values: []float64{-1, -2, -3}},
		}
		require.NoError(t, npy.WriteArchive(&buf, in, compress))

		out, err := npy.ReadArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestArchiveDeterministic(t *testing.T) {
	entries := []npy.Entry{{Name: "x", Values: []float64{1, 2, 3}}}

	var a, b bytes.Buffer
	require.NoError(t, npy.WriteArchive(&a, entries, true))
	require.NoError(t, npy.WriteArchive(&b, entries, true))
	assert.Equal(t, a.Bytes(), b.Bytes())
}
