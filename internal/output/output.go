// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package output renders console messages for the command front end.
// Library code never prints; everything user-visible goes through here.
package output

import (
	"fmt"
	"io"

	"github.com/labstreams/tdmsx/convert"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Processing(index, total int, path string) {
	fmt.Fprintf(f.w, " -- #%d/%d %s\n", index+1, total, path)
}

func (f *Formatter) Written(paths []string) {
	for _, p := range paths {
		fmt.Fprintf(f.w, "    wrote %s\n", p)
	}
}

func (f *Formatter) Notice(msg string) {
	fmt.Fprintf(f.w, "note: %s\n", msg)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "error: %s\n", msg)
}

// Summary prints the batch outcome, listing each failed source with its
// error detail.
func (f *Formatter) Summary(s *convert.Summary) {
	fmt.Fprintf(f.w, "converted %d file(s), %d failed\n", len(s.Converted), len(s.Failed))
	for _, fail := range s.Failed {
		fmt.Fprintf(f.w, "  failed %s: %v\n", fail.Path, fail.Err)
	}
}
