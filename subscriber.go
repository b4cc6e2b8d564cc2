// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

import "net/netip"

// Reachable is a bitmask of the ways a Subscriber may currently be
// reached. UNICAST and BROADCAST both imply DIRECT; the constants are
// separate bits, so DIRECT is set alongside them (e.g. DIRECT|UNICAST),
// and Resolve's interface check keys on the DIRECT bit. ASSUMED may be OR'd
// onto UNICAST or BROADCAST to mark a probed-but-unconfirmed link.
type Reachable uint8

const (
	ReachableNone      Reachable = 0
	ReachableSelf      Reachable = 1 << 0
	ReachableDirect    Reachable = 1 << 1
	ReachableIndirect  Reachable = 1 << 2
	ReachableUnicast   Reachable = 1 << 3
	ReachableBroadcast Reachable = 1 << 4
	ReachableAssumed   Reachable = 1 << 5
)

// Has reports whether all bits of want are set in r.
func (r Reachable) Has(want Reachable) bool {
	return r&want == want
}

// Any reports whether any bit of want is set in r.
func (r Reachable) Any(want Reachable) bool {
	return r&want != 0
}

func (r Reachable) String() string {
	if r == ReachableNone {
		return "NONE"
	}
	var s string
	add := func(bit Reachable, name string) {
		if r.Any(bit) {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(ReachableSelf, "SELF")
	add(ReachableDirect, "DIRECT")
	add(ReachableIndirect, "INDIRECT")
	add(ReachableUnicast, "UNICAST")
	add(ReachableBroadcast, "BROADCAST")
	add(ReachableAssumed, "ASSUMED")
	return s
}

// InterfaceId is an opaque handle into the collaborating InterfaceTable.
type InterfaceId int

// Subscriber is the per-node state held by one Directory slot. It is
// owned uniquely by the trie leaf that holds it; the directory never
// frees a Subscriber once inserted.
type Subscriber struct {
	// Sid is the subscriber's full node identifier.
	Sid NodeId

	// AbbreviateLen is the depth, in nibbles, of the trie slot that holds
	// this subscriber within the current directory population; a prefix
	// of AbbreviateLen+1 nibbles identifies it uniquely.
	AbbreviateLen int

	// Reachable records how this subscriber is currently known to be
	// reached. Resolve validates it rather than trusting it blindly.
	Reachable Reachable

	// NextHop is valid only when Reachable includes ReachableIndirect.
	NextHop *Subscriber

	// Interface is valid when Reachable includes ReachableDirect.
	Interface InterfaceId
	hasIface  bool

	// Address is the subscriber's unicast socket address, valid when
	// Reachable includes ReachableUnicast.
	Address netip.AddrPort

	// SendFull is a one-shot flag: the next outbound encoding of this
	// subscriber must carry the full 32-byte identifier.
	SendFull bool

	// SasValid records whether the signing-key lookup for this
	// subscriber has completed.
	SasValid bool
}

// HasInterface reports whether Interface holds a valid binding.
func (s *Subscriber) HasInterface() bool { return s != nil && s.hasIface }

// setInterface binds s to an interface, or clears the binding when ok is
// false.
func (s *Subscriber) setInterface(id InterfaceId, ok bool) {
	s.Interface = id
	s.hasIface = ok
}

// routed reports whether s already has a routing-layer presence
// (currently: any interface binding), used by ReachableUnicast's guard.
func (s *Subscriber) routed() bool {
	return s.hasIface
}
