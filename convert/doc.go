// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package convert turns TDMS recordings into common scientific data
// container formats: NumPy arrays (.npy/.npz), MATLAB MAT-files, PCM WAVE
// audio, and CSV tables.
//
// The pipeline is a chain of plain functions over explicit values: Open a
// Source, Select channel indices, Assemble a labeled Table, Write it in
// the configured format. Run drives the chain over a file or a directory
// of files, isolating per-file failures. Nothing is written except by
// Write, WriteInfo, and Run.
package convert
