// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Get - the node at an ascending position, nil if out of range
func (tree *Tree) Get(index int) *Node {
	if index < 0 || index >= tree.Count() {
		return nil
	}
	p := tree.root
	for nil != p {
		nl := p.left.count()
		switch {
		case index < nl:
			p = p.left
		case index > nl:
			index -= nl + 1
			p = p.right
		default:
			return p
		}
	}
	return nil
}
