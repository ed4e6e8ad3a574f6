// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// Item - a key item must implement the Compare function
//
// Compare returns -1, 0, +1 for key <, ==, > the argument
type Item interface {
	Compare(interface{}) int
}

// Node - a node in the tree, read only
type Node struct {
	left   *Node       // left sub-tree
	right  *Node       // right sub-tree
	key    Item        // key part for ordering
	value  interface{} // value part for data storage
	height int         // height of this sub-tree, leaf is 1
	size   int         // number of nodes in this sub-tree
}

// Tree - type to hold the root node of a tree
//
// the zero value and nil are both valid empty trees
type Tree struct {
	root *Node
}

// New - create an initially empty tree
func New() *Tree {
	return &Tree{}
}

// IsEmpty - true if tree contains no data
func (tree *Tree) IsEmpty() bool {
	return nil == tree || nil == tree.root
}

// Count - number of nodes currently in the tree
func (tree *Tree) Count() int {
	if nil == tree {
		return 0
	}
	return tree.root.count()
}

// Root - return the root node of the tree
func (tree *Tree) Root() *Node {
	if nil == tree {
		return nil
	}
	return tree.root
}

// Key - read the key from a node item
func (p *Node) Key() Item {
	return p.key
}

// Value - read the value from a node item
func (p *Node) Value() interface{} {
	return p.value
}

// Height - height of the sub-tree rooted at this node
func (p *Node) Height() int {
	if nil == p {
		return 0
	}
	return p.height
}

func (p *Node) count() int {
	if nil == p {
		return 0
	}
	return p.size
}

// the only node constructor, computes the derived fields
func newNode(key Item, value interface{}, left *Node, right *Node) *Node {
	h := left.Height()
	if right.Height() > h {
		h = right.Height()
	}
	return &Node{
		left:   left,
		right:  right,
		key:    key,
		value:  value,
		height: h + 1,
		size:   1 + left.count() + right.count(),
	}
}

// join a key and two sub-trees whose heights differ by at most two
// into a balanced node
func balance(key Item, value interface{}, left *Node, right *Node) *Node {
	hl := left.Height()
	hr := right.Height()

	switch {
	case hl > hr+1: // left branch has grown
		if left.left.Height() >= left.right.Height() {
			// single LL rotation
			return newNode(left.key, left.value,
				left.left,
				newNode(key, value, left.right, right))
		}
		// double LR rotation
		p2 := left.right
		return newNode(p2.key, p2.value,
			newNode(left.key, left.value, left.left, p2.left),
			newNode(key, value, p2.right, right))

	case hr > hl+1: // right branch has grown
		if right.right.Height() >= right.left.Height() {
			// single RR rotation
			return newNode(right.key, right.value,
				newNode(key, value, left, right.left),
				right.right)
		}
		// double RL rotation
		p2 := right.left
		return newNode(p2.key, p2.value,
			newNode(key, value, left, p2.left),
			newNode(right.key, right.value, p2.right, right.right))

	default:
		return newNode(key, value, left, right)
	}
}
