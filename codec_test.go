// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

import "testing"

type fakeQueue struct {
	frames []Frame
}

func (q *fakeQueue) Enqueue(f Frame) bool {
	q.frames = append(q.frames, f)
	return true
}

func TestEncodeDecodeSelfSentinel(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)
	self := dir.Self()

	buf := NewByteBuffer(nil)
	encCtx := &EncodeContext{Sender: self}
	Encode(buf, encCtx, self)

	decCtx := &DecodeContext{Sender: self}
	result, err := Decode(dir, decCtx, buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if result.Kind != DecodeSentinel || result.Subscriber != self {
		t.Fatalf("expected a sentinel decode of self, got %+v", result)
	}
}

func TestEncodeDecodePreviousSentinel(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)
	other, _ := dir.FindOrInsert(idFromByteFull(0x20)[:], true)

	buf := NewByteBuffer(nil)
	encCtx := &EncodeContext{Sender: dir.Self()}
	Encode(buf, encCtx, other)
	Encode(buf, encCtx, other)

	decCtx := &DecodeContext{Sender: dir.Self()}
	first, err := Decode(dir, decCtx, buf)
	if err != nil {
		t.Fatalf("first Decode() error = %v", err)
	}
	if first.Subscriber != other {
		t.Fatalf("expected first decode to resolve to other")
	}

	second, err := Decode(dir, decCtx, buf)
	if err != nil {
		t.Fatalf("second Decode() error = %v", err)
	}
	if second.Kind != DecodeSentinel || second.Subscriber != other {
		t.Fatalf("expected OA_PREVIOUS to resolve to other, got %+v", second)
	}
}

func TestEncodeDecodeLiteralRoundTrip(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)
	id := idFromByteFull(0x42)
	sub, _ := dir.FindOrInsert(id[:], true)
	sub.SendFull = true

	buf := NewByteBuffer(nil)
	encCtx := &EncodeContext{}
	Encode(buf, encCtx, sub)

	peer := NewDirectory(idFromByte(0x99), nil)
	decCtx := &DecodeContext{}
	result, err := Decode(peer, decCtx, buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if result.Kind != DecodeSubscriber || result.Subscriber.Sid != id {
		t.Fatalf("decoded subscriber id mismatch: %+v", result)
	}
}

func TestDecodeBroadcastMarker(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)
	buf := NewByteBuffer([]byte{0x0f})

	result, err := Decode(dir, &DecodeContext{}, buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if result.Kind != DecodeBroadcast {
		t.Fatalf("expected DecodeBroadcast, got %+v", result)
	}
}

func TestDecodeUnknownSenderSentinel(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)
	buf := NewByteBuffer([]byte{opSelf})

	ctx := &DecodeContext{}
	_, err := Decode(dir, ctx, buf)
	if err != ErrUnknownSender {
		t.Fatalf("Decode() error = %v, want ErrUnknownSender", err)
	}
	if !ctx.InvalidAddresses {
		t.Fatalf("expected InvalidAddresses to be set")
	}
}

func TestDecodeAmbiguousTriggersExplain(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)

	// a and b share their first 16 bytes and only diverge at byte 16, so a
	// 16-byte (the shortest literal form this codec emits or accepts)
	// prefix cannot disambiguate them.
	var a, b NodeId
	for i := 0; i < 16; i++ {
		a[i] = 0x20
		b[i] = 0x20
	}
	a[16] = 0x00
	b[16] = 0x01
	dir.FindOrInsert(a[:], true)
	dir.FindOrInsert(b[:], true)

	buf := NewByteBuffer(append([]byte{0x10}, a[:16]...))

	ctx := &DecodeContext{}
	_, err := Decode(dir, ctx, buf)
	if err != ErrAmbiguousAbbreviation {
		t.Fatalf("Decode() error = %v, want ErrAmbiguousAbbreviation", err)
	}
	if !ctx.InvalidAddresses {
		t.Fatalf("expected InvalidAddresses to be set")
	}
	if len(ctx.PleaseExplain) < 3 {
		t.Fatalf("expected the unresolved prefix plus both candidates, got %d records", len(ctx.PleaseExplain))
	}
}

func TestDecodeUnsupportedOpcodeSkipsPayload(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)
	// opPrefix3 (0x05) carries a 3-byte payload, then a broadcast marker.
	buf := NewByteBuffer([]byte{0x05, 0xaa, 0xbb, 0xcc, 0x0f})

	ctx := &DecodeContext{}
	_, err := Decode(dir, ctx, buf)
	if err != ErrUnsupportedAbbreviation {
		t.Fatalf("Decode() error = %v, want ErrUnsupportedAbbreviation", err)
	}
	if len(ctx.PleaseExplain) != 1 {
		t.Fatalf("expected a please-explain entry queued for the unsupported opcode, got %d", len(ctx.PleaseExplain))
	}
	if got := ctx.PleaseExplain[0]; got.Length != 3 || string(got.Prefix) != "\xaa\xbb\xcc" {
		t.Fatalf("PleaseExplain[0] = %+v, want {Length:3 Prefix:aabbcc}", got)
	}

	next, err := Decode(dir, ctx, buf)
	if err != nil {
		t.Fatalf("Decode() after skip error = %v", err)
	}
	if next.Kind != DecodeBroadcast {
		t.Fatalf("expected the skip to land exactly on the broadcast marker, got %+v", next)
	}
}

func TestProcessExplainTeachesAndAnswers(t *testing.T) {
	a := NewDirectory(idFromByte(0x10), nil)
	b := NewDirectory(idFromByte(0x90), nil)

	learned := idFromByteFull(0x50)
	b.FindOrInsert(learned[:], true)

	records := []PleaseExplainEntry{{Length: NodeIdLen, Prefix: learned[:]}}
	response := ProcessExplain(a, records)
	if len(response) != 0 {
		t.Fatalf("teaching a full identifier should produce no response records, got %d", len(response))
	}

	if sub, amb := a.FindOrInsert(learned[:], false); amb || sub == nil || sub.Sid != learned {
		t.Fatalf("expected the taught identifier to now be known")
	}

	answer := ProcessExplain(b, []PleaseExplainEntry{{Length: 1, Prefix: learned[:1]}})
	if len(answer) != 1 || answer[0].Length != NodeIdLen || string(answer[0].Prefix) != string(learned[:]) {
		t.Fatalf("expected a short prefix record to be answered with the full identifier, got %+v", answer)
	}
}

func TestSendPleaseExplainUnicastWhenReachable(t *testing.T) {
	ifaces := newFakeInterfaceTable()
	ifaces.add(1, "mesh0", InterfaceUp)

	dir := NewDirectory(idFromByte(0x10), nil)
	resolver := NewResolver(dir, ifaces, nil, nil)

	sender := &Subscriber{Sid: idFromByteFull(0x20), Reachable: ReachableDirect}
	sender.setInterface(1, true)

	queue := &fakeQueue{}
	ctx := &DecodeContext{
		Sender:        sender,
		PleaseExplain: []PleaseExplainEntry{{Length: 1, Prefix: []byte{0x20}}},
	}

	ok := SendPleaseExplain(dir, resolver, queue, ctx)
	if !ok || len(queue.frames) != 1 {
		t.Fatalf("expected exactly one enqueued frame")
	}
	f := queue.frames[0]
	if !f.Unicast || f.TTL != PleaseExplainTTLUni || f.Destination != sender {
		t.Fatalf("expected a unicast TTL-64 reply to sender, got %+v", f)
	}
}

func TestSendPleaseExplainBroadcastWhenUnreachable(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)
	resolver := NewResolver(dir, newFakeInterfaceTable(), nil, nil)

	queue := &fakeQueue{}
	ctx := &DecodeContext{
		PleaseExplain: []PleaseExplainEntry{{Length: 1, Prefix: []byte{0x20}}},
	}

	ok := SendPleaseExplain(dir, resolver, queue, ctx)
	if !ok || len(queue.frames) != 1 {
		t.Fatalf("expected exactly one enqueued frame")
	}
	f := queue.frames[0]
	if f.Unicast || f.TTL != PleaseExplainTTLBcst {
		t.Fatalf("expected a broadcast TTL-1 reply, got %+v", f)
	}
}

func TestSendPleaseExplainNoOpWhenEmpty(t *testing.T) {
	dir := NewDirectory(idFromByte(0x10), nil)
	resolver := NewResolver(dir, newFakeInterfaceTable(), nil, nil)

	queue := &fakeQueue{}
	ok := SendPleaseExplain(dir, resolver, queue, &DecodeContext{})
	if !ok || len(queue.frames) != 0 {
		t.Fatalf("expected no frame enqueued when PleaseExplain is empty")
	}
}

func idFromByteFull(first byte) NodeId {
	var id NodeId
	id[0] = first
	return id
}
