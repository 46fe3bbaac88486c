// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package convert

import "fmt"

// ConfigError reports an invalid option combination. It is raised before
// any source file is processed.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

// MissingParameterError reports an option that is required by the chosen
// output format but was not given.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required option %q", e.Name)
}

// OutOfRangeError reports a channel index outside the source file's
// channel list.
type OutOfRangeError struct {
	Index int
	Count int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("channel index %d out of range [0, %d)", e.Index, e.Count)
}

// ShapeMismatchError reports selected channels of differing lengths where
// the output format requires a single rectangular array.
type ShapeMismatchError struct {
	Label string
	Want  int
	Got   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("channel %q has %d samples, expected %d", e.Label, e.Got, e.Want)
}

// DecodeError wraps a failure to parse one source file.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
