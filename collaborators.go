// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

import "net/netip"

// Buffer is the frame read/write primitive the codec encodes into and
// decodes out of. It is supplied by the caller (typically backed by the
// outbound/inbound packet's byte slice) so that this package never owns
// frame memory itself.
type Buffer interface {
	AppendByte(b byte)
	AppendBytes(b []byte)
	ReadByte() (byte, bool)
	ReadBytes(n int) ([]byte, bool)
	Remaining() int

	// LimitSize truncates the readable portion of the buffer to at most n
	// bytes from the current cursor, so a decoder can be handed a frame
	// that is embedded inside a larger packet without reading past its end.
	LimitSize(n int)
}

// InterfaceState is the up/down status of a mesh network interface.
type InterfaceState int

const (
	InterfaceDown InterfaceState = iota
	InterfaceUp
)

// Interface is a handle to a single entry of the link-layer interface
// table.
type Interface interface {
	Name() string
	State() InterfaceState
}

// InterfaceTable is the link-layer interface directory. It is owned and
// updated entirely outside this package.
type InterfaceTable interface {
	FindByName(name string) (Interface, bool)
	ByID(id InterfaceId) (Interface, bool)
}

// Keyring requests that a signing-key exchange be initiated for a
// subscriber whose signing key has not yet been confirmed.
type Keyring interface {
	RequestSigningKey(s *Subscriber)
}

// DirectoryService is the mesh's directory-registration rendezvous
// collaborator (distinct from this package's own Directory trie, despite
// the overlapping name in the source design — see spec.md §6).
type DirectoryService interface {
	RegisterSelf()
}

// Frame is the concrete value this package hands to PacketQueue for a
// please-explain reply (see SPEC_FULL.md's "Broadcast transport glue").
type Frame struct {
	Type        uint8
	Queue       uint8
	TTL         uint8
	Unicast     bool
	Destination *Subscriber
	BPI         BroadcastId
	Payload     []byte
}

// Frame type and queue-class constants surfaced by the codec (spec.md §6).
const (
	OfTypePleaseExplain  uint8 = 0x01
	OqMeshManagement     uint8 = 0x01
	PleaseExplainTTLUni  uint8 = 64
	PleaseExplainTTLBcst uint8 = 1
)

// PacketQueue is the outbound packet queue; Enqueue takes ownership of
// frame on success.
type PacketQueue interface {
	Enqueue(frame Frame) bool
}

// Transport sends a probe frame to addr over the named interface, used by
// LoadSubscriberAddress to kick off unicast reachability discovery.
type Transport interface {
	SendProbe(s *Subscriber, addr netip.AddrPort, iface Interface)
}

// HostConfig is one hosts-file record.
type HostConfig struct {
	InterfaceName string
	IPv4          netip.Addr
	Port          uint16

	// Label is a free-text operator comment carried over from the
	// original hostfile format; it never affects probing or reachability.
	Label string
}

// Hosts is the configured-host lookup collaborator.
type Hosts interface {
	Lookup(sid NodeId) (HostConfig, bool)
}

// ReachabilityObserver is notified after a subscriber's reachability
// change is logged, but before the keyring/directory-service side effects
// of that change are triggered. It generalizes the change-notification
// channel pattern from davidcoles/cue's Director to a per-subscriber
// callback; see SPEC_FULL.md's "Reachability change feed".
type ReachabilityObserver interface {
	ReachabilityChanged(s *Subscriber, oldState, newState Reachable)
}
