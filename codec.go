// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

// Wire opcodes (spec.md §4.2). Values below 0x10 are fixed opcodes;
// 0x10-0x20 double as a literal prefix length. This implementation only
// ever emits the literal-length form, 0xFE and 0xFF: the index-table
// opcodes (0x01, 0x05-0x0E) are part of the abbreviation-table subsystem
// that spec.md §9 explicitly leaves unimplemented pending a complete
// index-allocation design. Decode still recognizes and consumes them so a
// peer using them doesn't desync our frame parsing.
const (
	opIndexRef     = 0x01
	opPrefix3      = 0x05
	opPrefix7      = 0x06
	opPrefix11     = 0x07
	opFullIdx1     = 0x08
	opPrefix3Idx1  = 0x09
	opPrefix7Idx1  = 0x0A
	opPrefix11Idx1 = 0x0B
	opPrefix11Idx2 = 0x0D
	opFullIdx2     = 0x0E
	opBroadcast    = 0x0F
	opPrevious     = 0xFE
	opSelf         = 0xFF

	literalMin = 0x10 // 16: the shortest prefix this codec will emit
	literalMax = 0x20 // 32: a full node identifier
)

// unsupportedPayloadLens gives the payload length to skip, in bytes, for
// each abbreviation-table opcode this codec parses but does not implement.
var unsupportedPayloadLens = map[byte]int{
	opIndexRef:     1,
	opPrefix3:      3,
	opPrefix7:      7,
	opPrefix11:     11,
	opFullIdx1:     NodeIdLen + 1,
	opPrefix3Idx1:  3 + 1,
	opPrefix7Idx1:  7 + 1,
	opPrefix11Idx1: 11 + 1,
	opPrefix11Idx2: 11 + 2,
	opFullIdx2:     NodeIdLen + 2,
}

// PleaseExplainMaxBytes bounds how many bytes of candidate identifiers a
// single candidate enumeration (one ambiguous prefix, or one prefix record
// in ProcessExplain) contributes before further candidates are dropped.
// The bound applies to each enumeration separately; the total size of a
// reply built from several enumerations is not capped.
const PleaseExplainMaxBytes = 1024

// PleaseExplainEntry is one (length, bytes) record of a please-explain
// payload: either an unresolved prefix a peer sent us, or (when Length ==
// NodeIdLen) a full identifier we're teaching or being taught.
type PleaseExplainEntry struct {
	Length byte
	Prefix []byte
}

// EncodeContext threads the per-frame state Encode needs: who the frame
// is from, and the subscriber most recently encoded into it.
type EncodeContext struct {
	Sender   *Subscriber
	Previous *Subscriber
}

// Encode appends the shortest safe wire form of s to buf and updates
// ctx.Previous, per spec.md §4.2's encoding policy.
func Encode(buf Buffer, ctx *EncodeContext, s *Subscriber) {
	switch {
	case s == ctx.Sender:
		buf.AppendByte(opSelf)
	case s == ctx.Previous:
		buf.AppendByte(opPrevious)
	default:
		l := encodeLength(s)
		buf.AppendByte(byte(l))
		buf.AppendBytes(s.Sid[:l])
	}
	ctx.Previous = s
}

func encodeLength(s *Subscriber) int {
	if s.SendFull {
		s.SendFull = false
		return NodeIdLen
	}

	l := nibbleLenToByteLen(s.AbbreviateLen + 2)
	if s.Reachable.Has(ReachableSelf) {
		l++
	}

	switch {
	case l < literalMin:
		// The only form this codec emits starts at 16 bytes; shorter
		// abbreviations would need the unimplemented short-prefix opcodes
		// (0x05-0x07), so fall back to the smallest representable length.
		l = literalMin
	case l > literalMax:
		l = literalMax
	}
	return l
}

// DecodeContext threads the per-frame state Decode needs and accumulates
// across a single inbound frame; it does not survive across frames.
type DecodeContext struct {
	Sender   *Subscriber
	Previous *Subscriber

	// InvalidAddresses is set when any address in the frame could not be
	// resolved. Callers must check it before trusting a DecodeResult's
	// Subscriber field, which is left nil on failure (spec.md §9's open
	// question on OA_SELF decoding without a sender).
	InvalidAddresses bool

	// PleaseExplain accumulates the records for the single
	// send_please_explain call made after the frame finishes decoding.
	PleaseExplain []PleaseExplainEntry

	// Interface records which link this frame arrived on, for
	// collaborators that need to reply on the same interface.
	Interface Interface
}

// DecodeKind distinguishes the three shapes a decoded address can take.
type DecodeKind int

const (
	DecodeSentinel DecodeKind = iota
	DecodeSubscriber
	DecodeBroadcast
)

// DecodeResult is what Decode produces for one address on success.
type DecodeResult struct {
	Kind       DecodeKind
	Subscriber *Subscriber
}

// Decode reads one address from buf, resolving it against dir. Parse
// failures (malformed opcode, buffer underrun) return ErrParse and abort
// the frame. AmbiguousAbbreviation, UnknownAbbreviation, UnknownSender and
// UnknownPrevious are non-fatal: ctx.InvalidAddresses is set to true and
// decoding of the rest of the frame may continue.
func Decode(dir *Directory, ctx *DecodeContext, buf Buffer) (DecodeResult, error) {
	b, ok := buf.ReadByte()
	if !ok {
		return DecodeResult{}, ErrParse
	}

	switch {
	case b == opSelf:
		if ctx.Sender == nil {
			ctx.InvalidAddresses = true
			return DecodeResult{}, ErrUnknownSender
		}
		ctx.Previous = ctx.Sender
		return DecodeResult{Kind: DecodeSentinel, Subscriber: ctx.Sender}, nil

	case b == opPrevious:
		if ctx.Previous == nil {
			ctx.InvalidAddresses = true
			return DecodeResult{}, ErrUnknownPrevious
		}
		return DecodeResult{Kind: DecodeSentinel, Subscriber: ctx.Previous}, nil

	case b == opBroadcast:
		return DecodeResult{Kind: DecodeBroadcast}, nil

	case b >= literalMin && b <= literalMax:
		return decodeLiteral(dir, ctx, buf, b)

	default:
		if n, unsupported := unsupportedPayloadLens[b]; unsupported {
			payload, ok := buf.ReadBytes(n)
			if !ok {
				return DecodeResult{}, ErrParse
			}
			ctx.InvalidAddresses = true
			ctx.PleaseExplain = append(ctx.PleaseExplain, PleaseExplainEntry{
				Length: byte(n),
				Prefix: append([]byte(nil), payload...),
			})
			return DecodeResult{}, ErrUnsupportedAbbreviation
		}
		return DecodeResult{}, ErrParse
	}
}

func decodeLiteral(dir *Directory, ctx *DecodeContext, buf Buffer, length byte) (DecodeResult, error) {
	prefix, ok := buf.ReadBytes(int(length))
	if !ok {
		return DecodeResult{}, ErrParse
	}

	sub, ambiguous := dir.FindOrInsert(prefix, true)
	if ambiguous {
		ctx.InvalidAddresses = true
		addAmbiguousExplain(dir, ctx, prefix)
		return DecodeResult{}, ErrAmbiguousAbbreviation
	}
	if sub == nil {
		ctx.InvalidAddresses = true
		return DecodeResult{}, ErrUnknownAbbreviation
	}

	ctx.Previous = sub
	return DecodeResult{Kind: DecodeSubscriber, Subscriber: sub}, nil
}

// addAmbiguousExplain walks dir's subtrie rooted at prefix, appending every
// matching known subscriber as a full-identifier record, then appends the
// unresolved prefix itself as the final record — so the reply enumerates
// every known candidate before naming what the peer actually asked about
// (spec.md §4.2, §8 scenario 4).
func addAmbiguousExplain(dir *Directory, ctx *DecodeContext, prefix []byte) {
	ctx.PleaseExplain = append(ctx.PleaseExplain, explainCandidates(dir, prefix)...)
	ctx.PleaseExplain = append(ctx.PleaseExplain, PleaseExplainEntry{
		Length: byte(len(prefix)),
		Prefix: append([]byte(nil), prefix...),
	})
}

// explainCandidates enumerates every subscriber below prefix in dir's
// trie, each as a full-identifier please-explain record, per
// add_explain_response. If a candidate is our own subscriber, its
// SendFull flag is set so the next outbound frame carries our full ID.
func explainCandidates(dir *Directory, prefix []byte) []PleaseExplainEntry {
	var out []PleaseExplainEntry
	total := 0

	dir.Enumerate(prefix, prefix, func(s *Subscriber) bool {
		if total+NodeIdLen > PleaseExplainMaxBytes {
			return true
		}
		if s.Reachable.Has(ReachableSelf) {
			s.SendFull = true
		}
		id := s.Sid
		out = append(out, PleaseExplainEntry{Length: NodeIdLen, Prefix: id[:]})
		total += NodeIdLen
		return false
	})

	return out
}

// ProcessExplain consumes an inbound please-explain payload: full-
// identifier records teach dir a new subscriber; shorter prefix records
// are looked up locally and turned into a response payload of full-
// identifier candidate records to send back to the requester.
func ProcessExplain(dir *Directory, records []PleaseExplainEntry) []PleaseExplainEntry {
	var response []PleaseExplainEntry
	for _, rec := range records {
		if rec.Length == NodeIdLen {
			dir.FindOrInsert(rec.Prefix, true)
			continue
		}
		response = append(response, explainCandidates(dir, rec.Prefix)...)
	}
	return response
}

// SendPleaseExplain builds and enqueues the single OF_TYPE_PLEASEEXPLAIN
// frame for everything accumulated on ctx during one frame's decoding
// (spec.md §5's ordering guarantee). It is a no-op if nothing was
// accumulated. The reply is unicast with TTL 64 if ctx.Sender is
// currently reachable, else broadcast with TTL 1 and a fresh BPI.
func SendPleaseExplain(dir *Directory, resolver *Resolver, queue PacketQueue, ctx *DecodeContext) bool {
	if len(ctx.PleaseExplain) == 0 {
		return true
	}

	frame := Frame{
		Type:    OfTypePleaseExplain,
		Queue:   OqMeshManagement,
		Payload: marshalPleaseExplain(ctx.PleaseExplain),
	}

	if ctx.Sender != nil && resolver.Resolve(ctx.Sender) != ReachableNone {
		frame.Unicast = true
		frame.TTL = PleaseExplainTTLUni
		frame.Destination = ctx.Sender
	} else {
		frame.TTL = PleaseExplainTTLBcst
		GenerateAddress(&frame.BPI)
	}

	return queue.Enqueue(frame)
}

// marshalPleaseExplain serializes records as a sequence of
// length-byte-then-bytes entries. This wire shape is an implementation
// choice: spec.md specifies the logical (length, bytes) records but not a
// concrete control-frame payload encoding, and this follows the same
// length-prefixed convention as the address codec itself.
func marshalPleaseExplain(records []PleaseExplainEntry) []byte {
	var out []byte
	for _, r := range records {
		out = append(out, r.Length)
		out = append(out, r.Prefix...)
	}
	return out
}

// UnmarshalPleaseExplain parses a please-explain payload produced by
// marshalPleaseExplain.
func UnmarshalPleaseExplain(payload []byte) ([]PleaseExplainEntry, error) {
	var out []PleaseExplainEntry
	for len(payload) > 0 {
		n := int(payload[0])
		payload = payload[1:]
		if len(payload) < n {
			return nil, ErrParse
		}
		out = append(out, PleaseExplainEntry{Length: byte(n), Prefix: append([]byte(nil), payload[:n]...)})
		payload = payload[n:]
	}
	return out, nil
}
