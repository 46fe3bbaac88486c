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

	"github.com/labstreams/tdmsx/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "rec.tdms", map[string][]float64{
		"A": ramp(0, 10),
	}, []string{"A"})

	summary, err := convert.Run(path, convert.Config{Format: convert.FormatCSV}, nil)
	require.NoError(t, err)
	assert.True(t, summary.OK())
	require.Len(t, summary.Converted, 1)
	assert.Equal(t, path, summary.Converted[0].Path)
	require.Len(t, summary.Converted[0].Outputs, 1)
}

func TestRunIsolatesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.tdms", map[string][]float64{"A": ramp(0, 5)}, []string{"A"})
	writeSource(t, dir, "b.tdms", map[string][]float64{"B": ramp(0, 5)}, []string{"B"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.tdms"), []byte("not a recording"), 0o644))

	summary, err := convert.Run(dir, convert.Config{Format: convert.FormatNPY}, nil)
	require.NoError(t, err)

	require.Len(t, summary.Failed, 1)
	assert.Equal(t, filepath.Join(dir, "broken.tdms"), summary.Failed[0].Path)
	var decodeErr *convert.DecodeError
	assert.ErrorAs(t, summary.Failed[0].Err, &decodeErr)

	require.Len(t, summary.Converted, 2)
	for _, c := range summary.Converted {
		for _, out := range c.Outputs {
			_, err := os.Stat(out)
			assert.NoError(t, err)
		}
	}
}

func TestRunNonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "top.tdms", map[string][]float64{"A": ramp(0, 5)}, []string{"A"})

	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeSource(t, nested, "deep.tdms", map[string][]float64{"A": ramp(0, 5)}, []string{"A"})

	files, err := convert.List(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "top.tdms"), files[0])
}

func TestRunEmptyDirectory(t *testing.T) {
	_, err := convert.Run(t.TempDir(), convert.Config{Format: convert.FormatNPY}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .tdms files")
}

func TestRunMissingPath(t *testing.T) {
	_, err := convert.Run(filepath.Join(t.TempDir(), "nope.tdms"), convert.Config{Format: convert.FormatNPY}, nil)
	require.Error(t, err)
}

func TestRunRejectsNonSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	_, err := convert.Run(path, convert.Config{Format: convert.FormatNPY}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a .tdms file")
}

func TestRunValidatesBeforeProcessing(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "rec.tdms", map[string][]float64{"A": ramp(0, 5)}, []string{"A"})

	// wav without a sampling rate fails before any file is touched.
	_, err := convert.Run(dir, convert.Config{Format: convert.FormatWAV}, nil)
	require.Error(t, err)
	var missing *convert.MissingParameterError
	require.ErrorAs(t, err, &missing)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1) // no outputs were produced
}

func TestRunProgressCallback(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.tdms", map[string][]float64{"A": ramp(0, 5)}, []string{"A"})
	writeSource(t, dir, "b.tdms", map[string][]float64{"B": ramp(0, 5)}, []string{"B"})

	var seen []string
	_, err := convert.Run(dir, convert.Config{Format: convert.FormatCSV}, func(i, total int, path string) {
		assert.Equal(t, 2, total)
		seen = append(seen, filepath.Base(path))
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tdms", "b.tdms"}, seen)
}

func TestRunSaveInfoSidecar(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "rec.tdms", map[string][]float64{"A": ramp(0, 5)}, []string{"A"})

	summary, err := convert.Run(dir, convert.Config{Format: convert.FormatNPY, SaveInfo: true}, nil)
	require.NoError(t, err)
	require.Len(t, summary.Converted, 1)
	require.Len(t, summary.Converted[0].Outputs, 2)
	assert.Equal(t, filepath.Join(dir, "rec.info"), summary.Converted[0].Outputs[0])
}
