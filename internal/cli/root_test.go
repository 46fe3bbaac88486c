// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstreams/tdmsx/internal/cli"
	"github.com/labstreams/tdmsx/internal/config"
	"github.com/labstreams/tdmsx/tdms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "rec.tdms")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tdms.Write(f, map[string]any{"name": "fixture"}, []tdms.GroupSpec{{
		Name: "Measurement",
		Channels: []tdms.ChannelSpec{
			{Name: "A", Data: []float64{1, 2, 3}},
		},
	}}))
	require.NoError(t, f.Close())
	return path
}

func newTestCmd(args []string) (*bytes.Buffer, func() error) {
	cmd := cli.NewRootCmd(&cli.Dependencies{Config: &config.Config{Format: "npy"}})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return &out, cmd.Execute
}

// Displaying metadata must not depend on options that only matter for
// conversion, such as the wav sampling rate.
func TestDisplayInfoIgnoresConversionOptions(t *testing.T) {
	path := writeFixture(t, t.TempDir())

	out, execute := newTestCmd([]string{"-d", "-o", "wav", path})
	require.NoError(t, execute())
	assert.Contains(t, out.String(), "Channel #1: A")
}

func TestConversionStillValidatesOptions(t *testing.T) {
	path := writeFixture(t, t.TempDir())

	_, execute := newTestCmd([]string{"-o", "wav", path})
	err := execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_sampling")
}
