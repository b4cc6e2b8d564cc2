// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

import "net/netip"

// maxResolveDepth bounds the recursion Resolve performs while chasing a
// chain of INDIRECT next-hop links. spec.md §9 notes that a safe-language
// rewrite should enforce a fixed recursion cap now that next_hop is a
// plain pointer rather than an arena index; this is that cap.
const maxResolveDepth = 32

// Resolver computes a Subscriber's effective reachability by validating
// rather than merely reading its stored state, and drives the
// collaborators spec.md §4.3 names on every state transition.
type Resolver struct {
	dir        *Directory
	interfaces InterfaceTable
	keys       Keyring
	dirService DirectoryService
	observer   ReachabilityObserver
}

// NewResolver builds a Resolver bound to dir. dirService and observer may
// both be nil.
func NewResolver(dir *Directory, interfaces InterfaceTable, keys Keyring, dirService DirectoryService) *Resolver {
	return &Resolver{dir: dir, interfaces: interfaces, keys: keys, dirService: dirService}
}

// SetObserver installs (or clears, with nil) the ReachabilityObserver
// notified after every reachability transition.
func (r *Resolver) SetObserver(o ReachabilityObserver) { r.observer = o }

// Resolve returns s's effective reachability, recursively validating any
// INDIRECT next-hop chain and any DIRECT interface binding rather than
// trusting the stored value. It returns ReachableNone if s is nil.
func (r *Resolver) Resolve(s *Subscriber) Reachable {
	return r.resolve(s, 0)
}

func (r *Resolver) resolve(s *Subscriber, depth int) Reachable {
	if s == nil || depth >= maxResolveDepth {
		return ReachableNone
	}

	if s.Reachable.Any(ReachableIndirect) {
		hop := s.NextHop
		if hop == nil || !hop.Reachable.Has(ReachableDirect) {
			return ReachableNone
		}
		hopResolved := r.resolve(hop, depth+1)
		if !hopResolved.Has(ReachableDirect) || hopResolved.Any(ReachableAssumed) {
			return ReachableNone
		}
		return s.Reachable
	}

	if s.Reachable.Any(ReachableDirect) {
		if !s.HasInterface() || r.interfaces == nil {
			return ReachableNone
		}
		iface, ok := r.interfaces.ByID(s.Interface)
		if !ok || iface.State() != InterfaceUp {
			return ReachableNone
		}
		return s.Reachable
	}

	return s.Reachable
}

// SetReachable transitions s to newState. If the state actually changes,
// the transition is logged, any installed ReachabilityObserver is
// notified, and only then are the keyring/directory-service side effects
// triggered: a signing-key exchange is requested when the new state is
// reachable and the key hasn't been confirmed yet, and directory
// registration is triggered if s is the configured directory-service node.
func (r *Resolver) SetReachable(s *Subscriber, newState Reachable) {
	if s == nil {
		return
	}

	old := s.Reachable
	if old == newState {
		return
	}
	s.Reachable = newState

	if r.dir != nil {
		r.dir.log.NOTICE("subscriber %s reachability %s -> %s", s.Sid, old, newState)
	}

	if r.observer != nil {
		r.observer.ReachabilityChanged(s, old, newState)
	}

	if newState != ReachableNone && !s.SasValid && r.keys != nil {
		r.keys.RequestSigningKey(s)
	}

	if r.dirService != nil && r.dir != nil && r.dir.directoryService == s {
		r.dirService.RegisterSelf()
	}
}

// ReachableUnicast records a direct unicast path to s over iface/addr and
// transitions it to ReachableDirect|ReachableUnicast. It refuses (returning
// ErrAlreadyReachable) if s is already reachable in any mode or already
// has a routing-layer presence.
func (r *Resolver) ReachableUnicast(s *Subscriber, ifaceID InterfaceId, addr netip.AddrPort) error {
	if s == nil {
		return nil
	}
	if r.Resolve(s) != ReachableNone || s.routed() {
		return ErrAlreadyReachable
	}

	s.Address = addr
	s.setInterface(ifaceID, true)
	r.SetReachable(s, ReachableDirect|ReachableUnicast)
	return nil
}

// LoadSubscriberAddress consults hosts for a configured record for s and,
// if one exists, asks transport to send a probe on the named interface.
// It does not itself mark s reachable: s becomes UNICAST-ASSUMED once the
// probe's reply arrives, handled elsewhere (spec.md §4.5).
func (r *Resolver) LoadSubscriberAddress(s *Subscriber, hosts Hosts, transport Transport) error {
	if s == nil || hosts == nil {
		return nil
	}

	cfg, ok := hosts.Lookup(s.Sid)
	if !ok {
		return nil
	}

	var iface Interface
	if cfg.InterfaceName != "" {
		var found bool
		iface, found = r.interfaces.FindByName(cfg.InterfaceName)
		if !found {
			if r.dir != nil {
				r.dir.log.ERR("host record for %s references unknown interface %q", s.Sid, cfg.InterfaceName)
			}
			return ErrConfiguration
		}
	}

	if transport != nil {
		addr := netip.AddrPortFrom(cfg.IPv4, cfg.Port)
		transport.SendProbe(s, addr, iface)
	}
	return nil
}
