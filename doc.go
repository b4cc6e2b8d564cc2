// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

// Package serval implements the addressing and abbreviation core of a
// delay-tolerant mesh overlay: a prefix-trie directory of node
// identifiers, a wire codec that abbreviates those identifiers on
// low-bandwidth links, a reachability resolver over multiple transport
// modes, and a broadcast-identifier cache for loop suppression.
//
// Node identifiers are 256-bit values derived from a public key. Carrying
// all 32 bytes of one in every frame header is wasteful on the mesh's
// typically narrow wireless links, so the directory assigns each known
// node the shortest nibble-prefix that still identifies it uniquely, and
// the codec picks the shortest safe wire form for a given reference.
//
// The package is not safe for concurrent use: it is designed to run
// entirely on a single-threaded cooperative event loop, and none of its
// operations block or suspend.
package serval
