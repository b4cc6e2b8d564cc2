// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// trieNode is one level of the 16-way nibble trie. Each of its 16 slots is
// either empty, a Subscriber leaf, or a child trieNode. Presence is tracked
// with a pair of popcount-compressible bitsets (the same mechanism
// gaissmai/bart uses for its 256-way prefix/child arrays, at 1/16th the
// arity) so that sparsely populated nodes near the trie root don't pay for
// 16 unused pointer slots.
type trieNode struct {
	leafSlots  *bitset.BitSet // which of the 16 slots hold a Subscriber leaf
	childSlots *bitset.BitSet // which of the 16 slots hold a child trieNode

	leaves   []*Subscriber // rank-compressed, addressed via leafSlots.Rank
	children []*trieNode   // rank-compressed, addressed via childSlots.Rank
}

func newTrieNode() *trieNode {
	return &trieNode{
		leafSlots:  bitset.New(16),
		childSlots: bitset.New(16),
	}
}

// rank returns the compacted-slice index of a set bit at position i, i.e.
// the number of bits set at or before i, minus one.
func rank(b *bitset.BitSet, i uint) int {
	return int(b.Rank(i)) - 1
}

func (n *trieNode) hasLeaf(slot byte) bool  { return n.leafSlots.Test(uint(slot)) }
func (n *trieNode) hasChild(slot byte) bool { return n.childSlots.Test(uint(slot)) }

func (n *trieNode) leafAt(slot byte) *Subscriber {
	if !n.hasLeaf(slot) {
		return nil
	}
	return n.leaves[rank(n.leafSlots, uint(slot))]
}

func (n *trieNode) childAt(slot byte) *trieNode {
	if !n.hasChild(slot) {
		return nil
	}
	return n.children[rank(n.childSlots, uint(slot))]
}

// setLeaf inserts a new leaf at slot, which must currently be empty. The
// bitset is set before rank is computed, so rank() yields the 0-based
// insertion position directly, mirroring gaissmai/bart's insertIdx.
func (n *trieNode) setLeaf(slot byte, s *Subscriber) {
	n.leafSlots.Set(uint(slot))
	idx := rank(n.leafSlots, uint(slot))
	n.leaves = slices.Insert(n.leaves, idx, s)
}

// replaceLeafWithChild removes the leaf at slot and installs a child node
// in its place, returning the removed leaf.
func (n *trieNode) replaceLeafWithChild(slot byte, c *trieNode) *Subscriber {
	idx := rank(n.leafSlots, uint(slot))
	old := n.leaves[idx]
	n.leaves = slices.Delete(n.leaves, idx, idx+1)
	n.leafSlots.Clear(uint(slot))

	n.childSlots.Set(uint(slot))
	cidx := rank(n.childSlots, uint(slot))
	n.children = slices.Insert(n.children, cidx, c)

	return old
}
