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
	"strings"
	"testing"

	"github.com/labstreams/tdmsx/convert"
	"github.com/labstreams/tdmsx/mat5"
	"github.com/labstreams/tdmsx/npy"
	"github.com/labstreams/tdmsx/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assembleAndWrite runs the assemble and write steps for one source.
func assembleAndWrite(t *testing.T, src *convert.Source, cfg convert.Config) []string {
	t.Helper()
	table, err := convert.Assemble(src, cfg)
	require.NoError(t, err)
	paths, err := convert.Write(src, table, cfg)
	require.NoError(t, err)
	return paths
}

func TestWriteNPYCombinedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 20),
		"B": ramp(50, 20),
	}, []string{"A", "B"})
	src := openSource(t, path)

	cfg := convert.Config{Format: convert.FormatNPY}
	paths := assembleAndWrite(t, src, cfg)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "rec_20200708-123045.npy"), paths[0])

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	columns, err := npy.Read(f)
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, ramp(0, 20), columns[0])
	assert.Equal(t, ramp(50, 20), columns[1])
}

func TestWriteNPZCompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 20),
		"B": ramp(50, 20),
	}, []string{"A", "B"})
	src := openSource(t, path)

	cfg := convert.Config{Format: convert.FormatNPY, Compress: true}
	paths := assembleAndWrite(t, src, cfg)
	require.Len(t, paths, 1)
	assert.True(t, strings.HasSuffix(paths[0], ".npz"))

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)
	entries, err := npy.ReadArchive(f, info.Size())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Name)
	assert.Equal(t, ramp(0, 20), entries[0].Values)
	assert.Equal(t, "B", entries[1].Name)
}

func TestWriteIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 50),
	}, []string{"A"})

	var first []byte
	for i := 0; i < 2; i++ {
		src := openSource(t, path)
		paths := assembleAndWrite(t, src, convert.Config{Format: convert.FormatMAT, Compress: true})
		require.Len(t, paths, 1)
		b, err := os.ReadFile(paths[0])
		require.NoError(t, err)
		if first == nil {
			first = b
		} else {
			assert.Equal(t, first, b)
		}
	}
}

func TestWriteMATSplitScenario(t *testing.T) {
	// Five channels A..E; exporting 0, 2, 3 split to mat yields three
	// files labeled A, C, D.
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 5), "B": ramp(1, 5), "C": ramp(2, 5), "D": ramp(3, 5), "E": ramp(4, 5),
	}, []string{"A", "B", "C", "D", "E"})
	src := openSource(t, path)

	cfg := convert.Config{
		Format:   convert.FormatMAT,
		Split:    true,
		Channels: []int{0, 2, 3},
	}
	paths := assembleAndWrite(t, src, cfg)
	require.Len(t, paths, 3)
	for i, label := range []string{"A", "C", "D"} {
		assert.Equal(t, filepath.Join(dir, "rec_20200708-123045_"+label+".mat"), paths[i])

		f, err := os.Open(paths[i])
		require.NoError(t, err)
		vars, err := mat5.Read(f)
		f.Close()
		require.NoError(t, err)
		require.Len(t, vars, 1)
		assert.Equal(t, label, vars[0].Name)
	}
}

func TestWriteMATSplitUserNames(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 5), "B": ramp(1, 5), "C": ramp(2, 5), "D": ramp(3, 5), "E": ramp(4, 5),
	}, []string{"A", "B", "C", "D", "E"})
	src := openSource(t, path)

	cfg := convert.Config{
		Format:   convert.FormatMAT,
		Split:    true,
		Channels: []int{0, 2, 3},
		Names:    []string{"x", "y", "z"},
	}
	paths := assembleAndWrite(t, src, cfg)
	require.Len(t, paths, 3)
	for i, label := range []string{"x", "y", "z"} {
		assert.Contains(t, paths[i], "_"+label+".mat")
	}
}

func TestWriteCSVTimeTrackScenario(t *testing.T) {
	// Two 100-sample channels with a time track: 1 header row, 100 data
	// rows, 3 columns.
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 100),
		"B": ramp(200, 100),
	}, []string{"A", "B"})
	src := openSource(t, path)

	cfg := convert.Config{Format: convert.FormatCSV, TimeTrack: true}
	paths := assembleAndWrite(t, src, cfg)
	require.Len(t, paths, 1)

	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	require.Len(t, lines, 101)
	assert.Equal(t, "time,A,B", lines[0])
	assert.Len(t, strings.Split(lines[1], ","), 3)
	assert.Len(t, strings.Split(lines[100], ","), 3)
}

func TestWriteWAVForcesSplit(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 100),
		"B": ramp(0, 100),
	}, []string{"A", "B"})
	src := openSource(t, path)

	// Split flag deliberately unset; wav must split anyway.
	cfg := convert.Config{Format: convert.FormatWAV, SampleRate: 8000}
	paths := assembleAndWrite(t, src, cfg)
	require.Len(t, paths, 2)

	for _, p := range paths {
		f, err := os.Open(p)
		require.NoError(t, err)
		samples, rate, err := wav.Read(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 8000, rate)
		assert.Len(t, samples, 100)
	}
}

func TestWriteWAVWithoutRate(t *testing.T) {
	cfg := convert.Config{Format: convert.FormatWAV}
	err := cfg.Validate()
	require.Error(t, err)

	var missing *convert.MissingParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "rate_sampling", missing.Name)
}

func TestWriteOutputDir(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 5),
	}, []string{"A"})
	src := openSource(t, path)

	out := filepath.Join(dir, "converted", "nested")
	cfg := convert.Config{Format: convert.FormatCSV, OutputDir: out}
	paths := assembleAndWrite(t, src, cfg)
	require.Len(t, paths, 1)
	assert.Equal(t, out, filepath.Dir(paths[0]))
	_, err := os.Stat(paths[0])
	require.NoError(t, err)
}

func TestWriteMetadataSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 5),
	}, []string{"A"})
	src := openSource(t, path)

	sidecar, err := convert.WriteInfo(src, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rec.info"), sidecar)

	b, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	text := string(b)
	assert.Contains(t, text, "root name: fixture")
	assert.Contains(t, text, "Channel #1: A")
	assert.Contains(t, text, "data_type: DoubleFloat")
	assert.Contains(t, text, "length: 5")
	assert.Contains(t, text, "unit_string: V")

	// Overwriting an existing sidecar is the documented behavior.
	again, err := convert.WriteInfo(src, "")
	require.NoError(t, err)
	assert.Equal(t, sidecar, again)
}
