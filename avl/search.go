// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Search - find a specific item
//
// returns the node and its index or nil, -1 if not found
func (tree *Tree) Search(key Item) (*Node, int) {
	return search(key, tree.Root(), 0)
}

func search(key Item, tree *Node, index int) (*Node, int) {
	if nil == tree {
		return nil, -1
	}

	switch tree.key.Compare(key) {
	case +1: // tree.key > key
		return search(key, tree.left, index)
	case -1: // tree.key < key
		return search(key, tree.right, index+tree.left.count()+1)
	default:
		return tree, index + tree.left.count()
	}
}

// Ceiling - the node with the lowest key >= key, nil if none
func (tree *Tree) Ceiling(key Item) *Node {
	var result *Node
	p := tree.Root()
	for nil != p {
		switch p.key.Compare(key) {
		case -1: // p.key < key
			p = p.right
		case 0:
			return p
		default:
			result = p
			p = p.left
		}
	}
	return result
}

// Floor - the node with the highest key <= key, nil if none
func (tree *Tree) Floor(key Item) *Node {
	var result *Node
	p := tree.Root()
	for nil != p {
		switch p.key.Compare(key) {
		case +1: // p.key > key
			p = p.left
		case 0:
			return p
		default:
			result = p
			p = p.right
		}
	}
	return result
}
