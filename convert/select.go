// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package convert

// Select narrows the working set of channel indices. An empty request
// selects all channels in source order. Requested indices are returned in
// the order given; duplicates are preserved, since selecting the same
// channel twice under different labels is a valid use.
func Select(total int, requested []int) ([]int, error) {
	if len(requested) == 0 {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	out := make([]int, 0, len(requested))
	for _, idx := range requested {
		if idx < 0 || idx >= total {
			return nil, &OutOfRangeError{Index: idx, Count: total}
		}
		out = append(out, idx)
	}
	return out, nil
}
