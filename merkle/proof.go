// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"github.com/bitmark-inc/pricecache/fault"
)

// Side - position of a sibling relative to the running hash
type Side byte

// sibling positions
const (
	Left  Side = 0 // sibling is hashed first: H(0x01 || sibling || running)
	Right Side = 1 // sibling is hashed last:  H(0x01 || running || sibling)
)

// maximum path length that can be packed
const maximumProofLength = 255

// String - for %s
func (side Side) String() string {
	switch side {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "*invalid*"
	}
}

// MarshalText - side as text for JSON
func (side Side) MarshalText() ([]byte, error) {
	return []byte(side.String()), nil
}

// UnmarshalText - side from JSON text
func (side *Side) UnmarshalText(s []byte) error {
	switch string(s) {
	case "left":
		*side = Left
	case "right":
		*side = Right
	default:
		return fault.ErrInvalidProof
	}
	return nil
}

// ProofNode - one sibling on the path from a leaf to the root
type ProofNode struct {
	Hash Digest `json:"hash"`
	Side Side   `json:"side"`
}

// Proof - ordered sibling path, leaf level first
//
// a proof is only meaningful together with the root it was issued
// against
type Proof struct {
	Path []ProofNode `json:"path"`
}

// Verify - recompute the root from an item and its proof
func (proof *Proof) Verify(hasher Hasher, root Digest, item []byte) bool {
	return Verify(hasher, root, item, proof)
}

// Verify - true only if item folded through proof gives exactly root
func Verify(hasher Hasher, root Digest, item []byte, proof *Proof) bool {
	if nil == proof || hasher.Size() != len(root) {
		return false
	}

	h := LeafHash(hasher, item)
	for _, node := range proof.Path {
		if hasher.Size() != len(node.Hash) {
			return false
		}
		switch node.Side {
		case Left:
			h = NodeHash(hasher, node.Hash, h)
		case Right:
			h = NodeHash(hasher, h, node.Hash)
		default:
			return false
		}
	}
	return h.Equal(root)
}

// Pack - binary form of a proof
//
// structure is:
//   1 byte       path length
//   N * (1 byte side + hasher.Size() bytes hash)
func (proof *Proof) Pack() ([]byte, error) {
	if len(proof.Path) > maximumProofLength {
		return nil, fault.ErrInvalidProof
	}
	width := 0
	if len(proof.Path) > 0 {
		width = len(proof.Path[0].Hash)
	}
	buffer := make([]byte, 1, 1+len(proof.Path)*(1+width))
	buffer[0] = byte(len(proof.Path))
	for _, node := range proof.Path {
		if len(node.Hash) != width {
			return nil, fault.ErrInvalidProof
		}
		buffer = append(buffer, byte(node.Side))
		buffer = append(buffer, node.Hash...)
	}
	return buffer, nil
}

// UnpackProof - decode a packed proof whose hashes have the hasher's width
func UnpackProof(hasher Hasher, buffer []byte) (*Proof, error) {
	if 0 == len(buffer) {
		return nil, fault.ErrInvalidProof
	}
	count := int(buffer[0])
	width := hasher.Size()
	if len(buffer) != 1+count*(1+width) {
		return nil, fault.ErrInvalidProof
	}

	proof := &Proof{
		Path: make([]ProofNode, count),
	}
	n := 1
	for i := 0; i < count; i += 1 {
		side := Side(buffer[n])
		if Left != side && Right != side {
			return nil, fault.ErrInvalidProof
		}
		hash := make(Digest, width)
		copy(hash, buffer[n+1:n+1+width])
		proof.Path[i] = ProofNode{
			Hash: hash,
			Side: side,
		}
		n += 1 + width
	}
	return proof, nil
}
