// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Insert - return a new tree with the key added
//
// an existing key has its value replaced; the second result is true
// only if a new node was added
func (tree *Tree) Insert(key Item, value interface{}) (*Tree, bool) {
	root, added := insert(key, value, tree.Root())
	return &Tree{root: root}, added
}

// internal routine for insert
func insert(key Item, value interface{}, p *Node) (*Node, bool) {
	if nil == p { // insert new node
		return newNode(key, value, nil, nil), true
	}

	switch p.key.Compare(key) {
	case +1: // p.key > key
		left, added := insert(key, value, p.left)
		return balance(p.key, p.value, left, p.right), added
	case -1: // p.key < key
		right, added := insert(key, value, p.right)
		return balance(p.key, p.value, p.left, right), added
	default:
		return newNode(key, value, p.left, p.right), false
	}
}
