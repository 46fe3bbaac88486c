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
)

// sourceExt is the extension of source files picked up by batch runs.
const sourceExt = ".tdms"

// Converted records one successfully processed source file.
type Converted struct {
	Path    string
	Outputs []string
}

// Failure records one source file that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Summary is the outcome of a batch run.
type Summary struct {
	Converted []Converted
	Failed    []Failure
}

// OK reports whether every source file was processed successfully.
func (s *Summary) OK() bool { return len(s.Failed) == 0 }

// Progress is called before each source file is processed.
type Progress func(index, total int, path string)

// List resolves a path to the batch's source files: the file itself, or
// the .tdms entries directly inside a directory, in listing order.
func List(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error reading path: %w", err)
	}

	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(path), sourceExt) {
			return nil, fmt.Errorf("%s is not a %s file", path, sourceExt)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("error listing directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), sourceExt) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", sourceExt, path)
	}
	return files, nil
}

// Run converts every source file under path. A failure in one file is
// recorded and does not abort the batch; configuration and enumeration
// errors abort before any file is processed.
func Run(path string, cfg Config, progress Progress) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	files, err := List(path)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for i, file := range files {
		if progress != nil {
			progress(i, len(files), file)
		}
		outputs, err := convertOne(file, cfg)
		if err != nil {
			summary.Failed = append(summary.Failed, Failure{Path: file, Err: err})
			continue
		}
		summary.Converted = append(summary.Converted, Converted{Path: file, Outputs: outputs})
	}
	return summary, nil
}

// convertOne runs the pipeline for a single source. The file handle is
// released before returning, also on failure.
func convertOne(path string, cfg Config) (outputs []string, err error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); err == nil {
			err = cerr
		}
	}()

	if cfg.SaveInfo {
		sidecar, err := WriteInfo(src, cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, sidecar)
	}

	table, err := Assemble(src, cfg)
	if err != nil {
		return nil, err
	}

	paths, err := Write(src, table, cfg)
	if err != nil {
		return nil, err
	}
	return append(outputs, paths...), nil
}
