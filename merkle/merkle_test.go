// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/merkle"
)

func makeItems(n int) [][]byte {
	items := make([][]byte, n)
	for i := 0; i < n; i += 1 {
		items[i] = []byte(fmt.Sprintf("item-%04d", i))
	}
	return items
}

func TestEmptyTree(t *testing.T) {
	tree := merkle.NewTree(merkle.Keccak256, nil)

	// keccak256(0x00)
	expected := "bc36789e7a1e281436464229828f817d6612f7b477d66591ff96a9e064bcc98a"
	assert.Equal(t, expected, tree.Root().String(), "wrong empty root")
	assert.Equal(t, 0, tree.Count(), "wrong count")

	_, ok := tree.Prove([]byte("anything"))
	assert.False(t, ok, "empty tree proved an item")

	_, ok = tree.ProveIndex(0)
	assert.False(t, ok, "empty tree proved an index")

	assert.False(t, merkle.Verify(merkle.Keccak256, tree.Root(), []byte("real item"), &merkle.Proof{}), "real item verified against empty root")
}

func TestSingleItem(t *testing.T) {
	item := []byte("only")
	tree := merkle.NewTree(merkle.Keccak256, [][]byte{item})

	assert.Equal(t, merkle.LeafHash(merkle.Keccak256, item), tree.Root(), "root is not the leaf")

	proof, ok := tree.Prove(item)
	assert.True(t, ok, "not proved")
	assert.Equal(t, 0, len(proof.Path), "single leaf has siblings")
	assert.True(t, proof.Verify(merkle.Keccak256, tree.Root(), item), "not verified")
}

// odd nodes are promoted, never duplicated
func TestOddPromotion(t *testing.T) {
	h := merkle.Keccak256
	items := makeItems(3)
	tree := merkle.NewTree(h, items)

	l0 := merkle.LeafHash(h, items[0])
	l1 := merkle.LeafHash(h, items[1])
	l2 := merkle.LeafHash(h, items[2])
	expected := merkle.NodeHash(h, merkle.NodeHash(h, l0, l1), l2)
	assert.Equal(t, expected, tree.Root(), "wrong root")

	duplicated := merkle.NodeHash(h, merkle.NodeHash(h, l0, l1), merkle.NodeHash(h, l2, l2))
	assert.NotEqual(t, duplicated, tree.Root(), "odd node was duplicated")

	proof, ok := tree.Prove(items[2])
	assert.True(t, ok, "not proved")
	assert.Equal(t, 1, len(proof.Path), "promoted node path length")
	assert.Equal(t, merkle.Left, proof.Path[0].Side, "wrong side")
}

// a leaf must not be reinterpretable as an internal node
func TestDomainSeparation(t *testing.T) {
	h := merkle.Keccak256
	items := makeItems(2)
	tree := merkle.NewTree(h, items)

	l0 := merkle.LeafHash(h, items[0])
	l1 := merkle.LeafHash(h, items[1])
	forged := append(append([]byte{}, l0...), l1...)

	assert.False(t, merkle.Verify(h, tree.Root(), forged, &merkle.Proof{}), "internal node accepted as leaf")
}

func TestProveVerifyAll(t *testing.T) {
	for _, h := range []merkle.Hasher{merkle.Keccak256, merkle.Keccak160} {
		for n := 1; n <= 33; n += 1 {
			items := makeItems(n)
			tree := merkle.NewTree(h, items)
			root := tree.Root()
			assert.Equal(t, h.Size(), len(root), "root width")
			assert.Equal(t, n, tree.Count(), "count")

			for i, item := range items {
				proof, ok := tree.Prove(item)
				if !assert.True(t, ok, "%s n=%d item %d not proved", h.Name(), n, i) {
					continue
				}
				assert.True(t, merkle.Verify(h, root, item, proof), "%s n=%d item %d not verified", h.Name(), n, i)

				// a proof belongs to one item only
				other := items[(i+1)%n]
				if n > 1 {
					assert.False(t, merkle.Verify(h, root, other, proof), "%s n=%d item %d verified a different item", h.Name(), n, i)
				}
			}

			_, ok := tree.Prove([]byte("absent"))
			assert.False(t, ok, "%s n=%d proved an absent item", h.Name(), n)
		}
	}
}

func TestTamperedProof(t *testing.T) {
	h := merkle.Keccak256
	items := makeItems(8)
	tree := merkle.NewTree(h, items)

	proof, ok := tree.Prove(items[5])
	assert.True(t, ok, "not proved")

	// flip a bit in a sibling
	bad := &merkle.Proof{Path: append([]merkle.ProofNode{}, proof.Path...)}
	hash := append(merkle.Digest{}, bad.Path[1].Hash...)
	hash[0] ^= 0x01
	bad.Path[1].Hash = hash
	assert.False(t, bad.Verify(h, tree.Root(), items[5]), "tampered hash verified")

	// swap a side
	bad = &merkle.Proof{Path: append([]merkle.ProofNode{}, proof.Path...)}
	bad.Path[0].Side = 1 - bad.Path[0].Side
	assert.False(t, bad.Verify(h, tree.Root(), items[5]), "tampered side verified")

	// truncated
	bad = &merkle.Proof{Path: proof.Path[:len(proof.Path)-1]}
	assert.False(t, bad.Verify(h, tree.Root(), items[5]), "truncated proof verified")

	assert.False(t, merkle.Verify(h, tree.Root(), items[5], nil), "nil proof verified")
}

// digests of different widths never mix
func TestHasherMismatch(t *testing.T) {
	items := makeItems(5)
	wide := merkle.NewTree(merkle.Keccak256, items)
	narrow := merkle.NewTree(merkle.Keccak160, items)

	proof, _ := narrow.Prove(items[1])
	assert.False(t, merkle.Verify(merkle.Keccak256, narrow.Root(), items[1], proof), "narrow root with wide hasher")
	assert.False(t, merkle.Verify(merkle.Keccak160, wide.Root(), items[1], proof), "wide root with narrow hasher")
	assert.True(t, merkle.Verify(merkle.Keccak160, narrow.Root(), items[1], proof), "correct pairing failed")
}

func TestDuplicateItems(t *testing.T) {
	items := [][]byte{[]byte("a"), []byte("b"), []byte("a")}
	tree := merkle.NewTree(merkle.Keccak256, items)

	proof, ok := tree.Prove([]byte("a"))
	assert.True(t, ok, "not proved")
	first, _ := tree.ProveIndex(0)
	assert.Equal(t, first, proof, "duplicate must prove first occurrence")
	assert.True(t, proof.Verify(merkle.Keccak256, tree.Root(), []byte("a")), "not verified")
}
