// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

import "errors"

// Error kinds surfaced by the codec and reachability resolver (spec.md §7).
var (
	// ErrParse is returned for a malformed opcode or a buffer underrun.
	// It is fatal for the current frame: the decode loop stops.
	ErrParse = errors.New("serval: malformed address or buffer underrun")

	// ErrAmbiguousAbbreviation marks a decoded prefix that matches no
	// subscriber uniquely. Non-fatal: the decoder records it on the
	// DecodeContext and keeps going.
	ErrAmbiguousAbbreviation = errors.New("serval: ambiguous abbreviation")

	// ErrUnknownSender is used when an OA_SELF sentinel appears before a
	// sender has been established for the frame.
	ErrUnknownSender = errors.New("serval: OA_SELF used before sender is known")

	// ErrUnknownPrevious is used when an OA_PREVIOUS sentinel appears
	// before any address has been resolved in the frame.
	ErrUnknownPrevious = errors.New("serval: OA_PREVIOUS used before any previous address")

	// ErrAlreadyReachable is reported when ReachableUnicast is called on a
	// subscriber that is already reachable or already routed.
	ErrAlreadyReachable = errors.New("serval: subscriber is already reachable")

	// ErrConfiguration marks a hosts-file record referencing an unknown
	// interface name.
	ErrConfiguration = errors.New("serval: configuration references unknown interface")

	// ErrUnsupportedAbbreviation marks an abbreviation-table opcode
	// (0x01, 0x05-0x0E): parsed but not implemented, per spec.md §9.
	ErrUnsupportedAbbreviation = errors.New("serval: abbreviation-table opcode not supported")

	// ErrUnknownAbbreviation marks a decoded prefix that matches no known
	// subscriber at all (as opposed to matching more than one). Non-fatal,
	// like ErrAmbiguousAbbreviation, but carries no candidates to explain.
	ErrUnknownAbbreviation = errors.New("serval: abbreviation matches no known subscriber")
)
