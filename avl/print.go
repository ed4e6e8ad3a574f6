// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

import (
	"fmt"
	"io"
	"strings"
)

// Fprint - write the tree sideways, right branches above left,
// one node per line indented by depth
//
// returns the depth of the tree
func (tree *Tree) Fprint(w io.Writer, withValues bool) int {
	return fprint(w, tree.Root(), 0, withValues)
}

func fprint(w io.Writer, p *Node, level int, withValues bool) int {
	if nil == p {
		return 0
	}
	rd := fprint(w, p.right, level+1, withValues)

	indent := strings.Repeat("    ", level)
	if withValues {
		fmt.Fprintf(w, "%s%v: %v  h:%d n:%d\n", indent, p.key, p.value, p.height, p.size)
	} else {
		fmt.Fprintf(w, "%s%v\n", indent, p.key)
	}

	ld := fprint(w, p.left, level+1, withValues)
	if rd > ld {
		return 1 + rd
	}
	return 1 + ld
}
