// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

// Command servald-abbrev drives the abbreviation core end to end: it
// builds two directories standing in for two mesh nodes, teaches one
// the other's identifier, encodes and decodes addresses between them,
// prints directory statistics, and exercises the broadcast
// duplicate-suppression cache. It does not run a please-explain round
// trip.
package main

import (
	"log"
	"math/rand/v2"

	serval "github.com/raghuariga/serval-dna"
)

func randomId(prng *rand.Rand) serval.NodeId {
	var id serval.NodeId
	id[0] = 0x10 + byte(prng.IntN(0xef))
	for i := 1; i < serval.NodeIdLen; i++ {
		id[i] = byte(prng.IntN(256))
	}
	return id
}

func main() {
	log.SetFlags(log.Lmicroseconds)
	prng := rand.New(rand.NewPCG(1, 1))

	selfA := randomId(prng)
	selfB := randomId(prng)

	dirA := serval.NewDirectory(selfA, nil)
	dirB := serval.NewDirectory(selfB, nil)

	log.Printf("node A: %s", dirA.Self().Sid)
	log.Printf("node B: %s", dirB.Self().Sid)

	peer, _ := dirA.FindOrInsert(dirB.Self().Sid[:], true)
	log.Printf("A learned B as subscriber, AbbreviateLen=%d", peer.AbbreviateLen)

	buf := serval.NewByteBuffer(nil)
	encCtx := &serval.EncodeContext{Sender: dirA.Self()}
	serval.Encode(buf, encCtx, dirA.Self())
	serval.Encode(buf, encCtx, peer)
	log.Printf("encoded frame: %d bytes", len(buf.Bytes()))

	decCtx := &serval.DecodeContext{Sender: dirB.Self()}
	for buf.Remaining() > 0 {
		result, err := serval.Decode(dirB, decCtx, buf)
		if err != nil {
			log.Printf("decode error: %v", err)
			continue
		}
		log.Printf("decoded kind=%d subscriber=%v", result.Kind, result.Subscriber)
	}

	stats := dirA.Stats()
	log.Printf("directory A stats: %d subscribers, depth histogram %v", stats.Subscribers, stats.DepthHistogram)

	cache := serval.NewBroadcastCache()
	var bpi serval.BroadcastId
	serval.GenerateAddress(&bpi)
	log.Printf("broadcast bpi %x first DropCheck=%v second DropCheck=%v", bpi, cache.DropCheck(bpi), cache.DropCheck(bpi))
}
