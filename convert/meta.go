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
	"sort"
	"strings"
)

// infoSuffix is the extension of the metadata sidecar file.
const infoSuffix = ".info"

// Info renders the file-level and per-channel properties of a source in a
// stable, human-readable layout.
func Info(src *Source) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, ">>> TDMS file %q info:\n", src.Path)
	if name, ok := src.File.Properties["name"]; ok {
		fmt.Fprintf(&sb, "  - root name: %v\n", name)
	}

	for m, g := range src.File.Groups {
		fmt.Fprintf(&sb, "\tGroup #%d: %s\n", m+1, g.Name)
		for n, ch := range g.Channels {
			fmt.Fprintf(&sb, "\t  - Channel #%d: %s\n", n+1, ch.Name)
			fmt.Fprintf(&sb, "\t\tdata_type: %s\n", ch.DataType)
			fmt.Fprintf(&sb, "\t\tlength: %d\n", ch.Len())
			for _, kv := range sortedProps(ch.Properties) {
				fmt.Fprintf(&sb, "\t\t%s: %v\n", kv.key, kv.value)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// WriteInfo persists the metadata rendering to a sidecar file named after
// the source's base name, beside the source or in the output directory. An
// existing sidecar is overwritten.
func WriteInfo(src *Source, outputDir string) (string, error) {
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(src.Path)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}

	path := filepath.Join(dir, src.BaseName()+infoSuffix)
	if err := os.WriteFile(path, []byte(Info(src)), 0o644); err != nil {
		return "", fmt.Errorf("error writing metadata sidecar: %w", err)
	}
	return path, nil
}

type propEntry struct {
	key   string
	value any
}

func sortedProps(props map[string]any) []propEntry {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]propEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, propEntry{key: k, value: props[k]})
	}
	return entries
}
