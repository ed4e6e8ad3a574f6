// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

// domain separation tags
const (
	leafTag byte = 0x00
	nodeTag byte = 0x01
)

// Tree - a fully built merkle tree over an ordered set of items
//
// structure is:
//   levels[0]     N * leaf digests  H(0x00 || item)
//   levels[1..m]  internal digests  H(0x01 || left || right)
//   levels[m]     single root digest
//
// an odd node at the end of a level is promoted unchanged to the
// next level, it is never paired with itself
//
// a tree is immutable once built and safe for concurrent readers
type Tree struct {
	hasher Hasher
	levels [][]Digest
	root   Digest
	leaves map[string]int // leaf digest → first index
}

// NewTree - hash each item as a leaf and fold up to the root
//
// the empty set has root H(0x00) i.e. the leaf hash of an empty item,
// and proves nothing
func NewTree(hasher Hasher, items [][]byte) *Tree {
	tree := &Tree{
		hasher: hasher,
		leaves: make(map[string]int, len(items)),
	}

	if 0 == len(items) {
		tree.root = LeafHash(hasher, nil)
		return tree
	}

	level := make([]Digest, len(items))
	for i, item := range items {
		leaf := LeafHash(hasher, item)
		level[i] = leaf
		if _, ok := tree.leaves[string(leaf)]; !ok {
			tree.leaves[string(leaf)] = i
		}
	}
	tree.levels = append(tree.levels, level)

	for len(level) > 1 {
		next := make([]Digest, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i]) // promote odd node
				break
			}
			next = append(next, NodeHash(hasher, level[i], level[i+1]))
		}
		tree.levels = append(tree.levels, next)
		level = next
	}
	tree.root = level[0]
	return tree
}

// LeafHash - domain separated hash of an item
func LeafHash(hasher Hasher, item []byte) Digest {
	return hasher.Hashv([]byte{leafTag}, item)
}

// NodeHash - domain separated hash of two children
func NodeHash(hasher Hasher, left Digest, right Digest) Digest {
	return hasher.Hashv([]byte{nodeTag}, left, right)
}

// Root - the root digest
func (tree *Tree) Root() Digest {
	return tree.root
}

// Hasher - the hasher the tree was built with
func (tree *Tree) Hasher() Hasher {
	return tree.hasher
}

// Count - number of leaves
func (tree *Tree) Count() int {
	if 0 == len(tree.levels) {
		return 0
	}
	return len(tree.levels[0])
}

// Prove - inclusion proof for an item
//
// returns false if the item was not part of the built set
func (tree *Tree) Prove(item []byte) (*Proof, bool) {
	i, ok := tree.leaves[string(LeafHash(tree.hasher, item))]
	if !ok {
		return nil, false
	}
	return tree.ProveIndex(i)
}

// ProveIndex - inclusion proof for the leaf at a given position
func (tree *Tree) ProveIndex(index int) (*Proof, bool) {
	if index < 0 || index >= tree.Count() {
		return nil, false
	}

	proof := &Proof{}
	i := index
	for _, level := range tree.levels[:len(tree.levels)-1] {
		sibling := i ^ 1
		if sibling < len(level) {
			side := Right
			if sibling < i {
				side = Left
			}
			proof.Path = append(proof.Path, ProofNode{
				Hash: level[sibling],
				Side: side,
			})
		}
		i /= 2
	}
	return proof, true
}
