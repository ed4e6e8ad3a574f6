// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Delete - return a new tree without the key
//
// also returns the value of the deleted node, or nil if the key was
// not present, in which case the original tree is returned
func (tree *Tree) Delete(key Item) (*Tree, interface{}) {
	root, deleted := remove(key, tree.Root())
	if nil == deleted {
		return tree, nil
	}
	return &Tree{root: root}, deleted.value
}

// internal routine for delete
func remove(key Item, p *Node) (*Node, *Node) {
	if nil == p {
		return nil, nil
	}

	switch p.key.Compare(key) {
	case +1: // p.key > key
		left, deleted := remove(key, p.left)
		if nil == deleted {
			return p, nil
		}
		return balance(p.key, p.value, left, p.right), deleted
	case -1: // p.key < key
		right, deleted := remove(key, p.right)
		if nil == deleted {
			return p, nil
		}
		return balance(p.key, p.value, p.left, right), deleted
	}

	// found the node
	if nil == p.left {
		return p.right, p
	}
	if nil == p.right {
		return p.left, p
	}

	// replace with the lowest node of the right sub-tree
	successor := p.right.first()
	right := removeFirst(p.right)
	return balance(successor.key, successor.value, p.left, right), p
}

// remove the lowest node of a non-empty sub-tree
func removeFirst(p *Node) *Node {
	if nil == p.left {
		return p.right
	}
	return balance(p.key, p.value, removeFirst(p.left), p.right)
}
