// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

// Directory is a 16-way radix trie over the 64 nibbles of a NodeId. It
// holds exactly one Subscriber record per known node and supports both
// exact and abbreviated lookups. Subscribers are inserted but never
// removed: the directory is monotonic for the life of the process.
//
// A Directory is not safe for concurrent use; see the package doc.
type Directory struct {
	root *trieNode
	size int

	// mySubscriber is the local node's own Subscriber record, always
	// present with Reachable == ReachableSelf.
	mySubscriber *Subscriber

	// directoryService, when non-nil, identifies the subscriber that acts
	// as the mesh's directory-registration rendezvous; SetReachable
	// triggers registration against it via the DirectoryService
	// collaborator (see collaborators.go).
	directoryService *Subscriber

	log Log
}

// NewDirectory builds a Directory whose local node identifier is self. log
// may be nil, in which case a no-op Log is used.
func NewDirectory(self NodeId, log Log) *Directory {
	if log == nil {
		log = Nil{}
	}
	d := &Directory{root: newTrieNode(), log: log}
	me := &Subscriber{Sid: self, AbbreviateLen: 0, Reachable: ReachableSelf}
	d.insertLeafAtRoot(me)
	d.mySubscriber = me
	return d
}

// Self returns the local node's own Subscriber record.
func (d *Directory) Self() *Subscriber { return d.mySubscriber }

// Size returns the number of subscribers currently known.
func (d *Directory) Size() int { return d.size }

// SetDirectoryService records which subscriber is the directory-
// registration rendezvous node, consulted by SetReachable.
func (d *Directory) SetDirectoryService(s *Subscriber) { d.directoryService = s }

// insertLeafAtRoot places s at the root node's slot for its first nibble.
// Used only for the local node during NewDirectory, where the trie is
// known to be empty.
func (d *Directory) insertLeafAtRoot(s *Subscriber) {
	slot := s.Sid.nibbleAt(0)
	d.root.setLeaf(slot, s)
	d.size++
}

// FindOrInsert looks up prefix (a byte slice no longer than NodeIdLen) in
// the trie. When create is true and prefix is exactly NodeIdLen bytes,
// an unknown identifier is inserted as a new Subscriber, splitting an
// existing leaf if necessary. Shorter prefixes are always treated as
// lookups regardless of create, since inserting from a partial
// identifier would corrupt the directory's abbreviation invariants.
//
// It returns the matching Subscriber, or (nil, true) if prefix is
// ambiguous — it matches no subscriber uniquely, either because the
// subscriber found at prefix's trie position differs from prefix within
// its length, or because two or more subscribers share prefix and more
// bytes would be needed to tell them apart. It returns (nil, false) when
// no subscriber lies on prefix's path, and when asked to insert
// BroadcastNodeId.
func (d *Directory) FindOrInsert(prefix []byte, create bool) (sub *Subscriber, ambiguous bool) {
	if create && len(prefix) == NodeIdLen {
		var id NodeId
		copy(id[:], prefix)
		if id.IsBroadcast() {
			return nil, false
		}
		return d.findOrInsertFull(d.root, id, 0), false
	}
	return d.lookup(prefix)
}

func (d *Directory) findOrInsertFull(n *trieNode, id NodeId, depth int) *Subscriber {
	slot := id.nibbleAt(depth)

	switch {
	case n.hasChild(slot):
		return d.findOrInsertFull(n.childAt(slot), id, depth+1)

	case n.hasLeaf(slot):
		existing := n.leafAt(slot)
		if existing.Sid == id {
			return existing
		}

		child := newTrieNode()
		displaced := n.replaceLeafWithChild(slot, child)
		d.reinsertLeaf(child, displaced, depth+1)
		return d.findOrInsertFull(child, id, depth+1)

	default:
		leaf := &Subscriber{Sid: id, AbbreviateLen: depth}
		n.setLeaf(slot, leaf)
		d.size++
		return leaf
	}
}

// reinsertLeaf places an already-allocated Subscriber into n (which was
// just created by a split and is therefore guaranteed empty) and updates
// its AbbreviateLen to the new depth, per spec.md §3's invariant that a
// subscriber's abbreviation length tracks the depth at which it was last
// placed.
func (d *Directory) reinsertLeaf(n *trieNode, s *Subscriber, depth int) {
	slot := s.Sid.nibbleAt(depth)
	s.AbbreviateLen = depth
	n.setLeaf(slot, s)
}

// lookup walks the trie using only the nibbles available in prefix,
// without ever mutating it.
func (d *Directory) lookup(prefix []byte) (*Subscriber, bool) {
	n := d.root
	maxDepth := len(prefix) * 2

	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			// Ran out of prefix while still inside a child subtree: the
			// directory invariant guarantees an internal node holds at
			// least two subscribers, so the prefix can't disambiguate them.
			return nil, true
		}

		slot := nibbleAtBytes(prefix, depth)

		switch {
		case n.hasChild(slot):
			n = n.childAt(slot)
			continue

		case n.hasLeaf(slot):
			e := n.leafAt(slot)
			if e.Sid.prefixEqual(prefix, len(prefix)) {
				return e, false
			}
			return nil, true

		default:
			return nil, false
		}
	}
}

// nibbleAtBytes returns the nibble at position p (0 = high nibble of b[0])
// of an arbitrary byte slice, mirroring NodeId.nibbleAt for prefixes
// shorter than a full identifier.
func nibbleAtBytes(b []byte, p int) byte {
	v := b[p/2]
	if p%2 == 0 {
		return v >> 4
	}
	return v & 0x0f
}

// Enumerate performs an in-order depth-first walk of the subscriber
// leaves, optionally bounded below by start and above by end (both
// node-ID prefixes; nil means unbounded on that side). cb is called for
// every visited subscriber; returning true aborts the walk early.
//
// cb must not mutate the directory: enumeration and mutation are not
// re-entrant (see the package doc).
func (d *Directory) Enumerate(start, end []byte, cb func(*Subscriber) bool) {
	var walk func(n *trieNode, depth int, start, end []byte) bool
	walk = func(n *trieNode, depth int, start, end []byte) bool {
		lo := byte(0)
		if start != nil && depth < len(start)*2 {
			lo = nibbleAtBytes(start, depth)
		}
		hi := byte(15)
		if end != nil && depth < len(end)*2 {
			hi = nibbleAtBytes(end, depth)
		}

		for slot := lo; ; slot++ {
			childStart := start
			if slot != lo {
				childStart = nil
			}
			childEnd := end
			if slot != hi {
				childEnd = nil
			}

			switch {
			case n.hasLeaf(slot):
				if cb(n.leafAt(slot)) {
					return true
				}
			case n.hasChild(slot):
				if walk(n.childAt(slot), depth+1, childStart, childEnd) {
					return true
				}
			}

			if slot == hi {
				break
			}
		}
		return false
	}

	walk(d.root, 0, start, end)
}

// DirectoryStats summarizes the population of a Directory for operator
// diagnostics; see SPEC_FULL.md's "Directory statistics" addition.
type DirectoryStats struct {
	Subscribers int
	// DepthHistogram[n] counts subscribers whose AbbreviateLen == n.
	DepthHistogram map[int]int
}

// Stats computes a DirectoryStats snapshot by a full enumeration. It does
// not mutate the directory.
func (d *Directory) Stats() DirectoryStats {
	stats := DirectoryStats{DepthHistogram: map[int]int{}}
	d.Enumerate(nil, nil, func(s *Subscriber) bool {
		stats.Subscribers++
		stats.DepthHistogram[s.AbbreviateLen]++
		return false
	})
	return stats
}
