// Package wire serializes protocol messages as a versioned FlatBuffers
// envelope with a tagged union over the message kinds. Accessor code is
// generated from messages.fbs; this file holds the hand-written
// conversion between wire tables and protocol values.
package wire

import (
	"fmt"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"

	"cocochain/internal/consensus"
	"cocochain/internal/handover"
	"cocochain/internal/semantic"
)

// Version is the current envelope format version.
const Version = 1

// Message is one decoded envelope; exactly one field is non-nil.
type Message struct {
	Transaction      *consensus.Transaction
	Vote             *consensus.ConsensusMessage
	HandoverRequest  *handover.Context
	HandoverResponse *HandoverVerdict
}

// HandoverVerdict is a decoded handover response.
type HandoverVerdict struct {
	Vehicle   consensus.ParticipantID // Vehicle the verdict is addressed to
	Authority consensus.ParticipantID // Authority that evaluated the request
	Success   bool
}

// EncodeTransaction serializes a transaction into an envelope. The
// ground-truth corruption flag is deliberately not part of the wire
// format; the salience flag is, since receivers verify against it.
func EncodeTransaction(tx *consensus.Transaction) []byte {
	builder := flatbuffers.NewBuilder(256)

	digest := builder.CreateString(tx.Digest)

	TransactionStartDimsVector(builder, semantic.Dims)
	for i := semantic.Dims - 1; i >= 0; i-- {
		builder.PrependFloat64(tx.Vector.Data[i])
	}
	dims := builder.EndVector(semantic.Dims)

	TransactionStart(builder)
	TransactionAddId(builder, uint64(tx.ID))
	TransactionAddOriginator(builder, uint64(tx.Originator))
	TransactionAddTimestampNs(builder, tx.Timestamp.UnixNano())
	TransactionAddDims(builder, dims)
	TransactionAddDigest(builder, digest)
	TransactionAddTopK(builder, tx.Vector.TopK)
	payload := TransactionEnd(builder)

	return finishEnvelope(builder, PayloadTransaction, payload)
}

// EncodeVote serializes a vote into an envelope.
func EncodeVote(msg *consensus.ConsensusMessage) []byte {
	builder := flatbuffers.NewBuilder(128)

	digest := builder.CreateString(msg.Digest)

	VoteStart(builder)
	VoteAddTxId(builder, uint64(msg.TxID))
	VoteAddVoter(builder, uint64(msg.Voter))
	VoteAddAccept(builder, msg.Accept)
	VoteAddTimestampNs(builder, msg.Timestamp.UnixNano())
	VoteAddDigest(builder, digest)
	payload := VoteEnd(builder)

	return finishEnvelope(builder, PayloadVote, payload)
}

// EncodeHandoverRequest serializes a handover request into an envelope.
func EncodeHandoverRequest(ctx *handover.Context) []byte {
	builder := flatbuffers.NewBuilder(256)

	token := builder.CreateString(ctx.Token)

	HandoverRequestStartPendingVector(builder, len(ctx.PendingTxs))
	for i := len(ctx.PendingTxs) - 1; i >= 0; i-- {
		builder.PrependUint64(uint64(ctx.PendingTxs[i]))
	}
	pending := builder.EndVector(len(ctx.PendingTxs))

	HandoverRequestStart(builder)
	HandoverRequestAddVehicle(builder, uint64(ctx.Vehicle))
	HandoverRequestAddSource(builder, uint64(ctx.Source))
	HandoverRequestAddTarget(builder, uint64(ctx.Target))
	HandoverRequestAddTimestampNs(builder, ctx.Timestamp.UnixNano())
	HandoverRequestAddPending(builder, pending)
	HandoverRequestAddToken(builder, token)
	payload := HandoverRequestEnd(builder)

	return finishEnvelope(builder, PayloadHandoverRequest, payload)
}

// EncodeHandoverResponse serializes a handover verdict into an
// envelope.
func EncodeHandoverResponse(v *HandoverVerdict) []byte {
	builder := flatbuffers.NewBuilder(64)

	HandoverResponseStart(builder)
	HandoverResponseAddVehicle(builder, uint64(v.Vehicle))
	HandoverResponseAddAuthority(builder, uint64(v.Authority))
	HandoverResponseAddSuccess(builder, v.Success)
	payload := HandoverResponseEnd(builder)

	return finishEnvelope(builder, PayloadHandoverResponse, payload)
}

// finishEnvelope wraps a built payload table in the versioned envelope
// and returns the finished bytes.
func finishEnvelope(builder *flatbuffers.Builder, kind Payload, payload flatbuffers.UOffsetT) []byte {
	EnvelopeStart(builder)
	EnvelopeAddVersion(builder, Version)
	EnvelopeAddPayloadType(builder, kind)
	EnvelopeAddPayload(builder, payload)
	builder.Finish(EnvelopeEnd(builder))

	return builder.FinishedBytes()
}

// Decode parses an envelope and converts its payload into protocol
// values.
func Decode(data []byte) (msg *Message, err error) {
	if len(data) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("envelope too short: %d bytes", len(data))
	}

	// The generated accessors index into the buffer without bounds
	// checks and these bytes arrive from peers. A crafted table offset
	// panics instead of failing, so the whole walk is fenced here.
	defer func() {
		if r := recover(); r != nil {
			msg = nil
			err = fmt.Errorf("malformed envelope: %v", r)
		}
	}()

	env := GetRootAsEnvelope(data, 0)

	if v := env.Version(); v != Version {
		return nil, fmt.Errorf("unsupported envelope version: %d", v)
	}

	var table flatbuffers.Table
	if !env.Payload(&table) {
		return nil, fmt.Errorf("envelope has no payload")
	}

	switch env.PayloadType() {
	case PayloadTransaction:
		var t Transaction
		t.Init(table.Bytes, table.Pos)
		return &Message{Transaction: decodeTransaction(&t)}, nil

	case PayloadVote:
		var v Vote
		v.Init(table.Bytes, table.Pos)
		return &Message{Vote: decodeVote(&v)}, nil

	case PayloadHandoverRequest:
		var r HandoverRequest
		r.Init(table.Bytes, table.Pos)
		return &Message{HandoverRequest: decodeHandoverRequest(&r)}, nil

	case PayloadHandoverResponse:
		var r HandoverResponse
		r.Init(table.Bytes, table.Pos)
		return &Message{HandoverResponse: &HandoverVerdict{
			Vehicle:   consensus.ParticipantID(r.Vehicle()),
			Authority: consensus.ParticipantID(r.Authority()),
			Success:   r.Success(),
		}}, nil

	default:
		return nil, fmt.Errorf("unknown payload type: %s", env.PayloadType())
	}
}

// decodeTransaction converts a wire transaction. A dimension-count
// mismatch is not an error here: the semantic verifier is the component
// that judges payload shape, so extra dimensions are dropped and
// missing ones stay zero.
func decodeTransaction(t *Transaction) *consensus.Transaction {
	tx := &consensus.Transaction{
		ID:         consensus.TxID(t.Id()),
		Originator: consensus.ParticipantID(t.Originator()),
		Timestamp:  time.Unix(0, t.TimestampNs()),
		Digest:     string(t.Digest()),
	}

	n := t.DimsLength()
	if n > semantic.Dims {
		n = semantic.Dims
	}
	for i := 0; i < n; i++ {
		tx.Vector.Data[i] = t.Dims(i)
	}

	tx.Vector.Owner = t.Originator()
	tx.Vector.Timestamp = tx.Timestamp
	tx.Vector.TopK = t.TopK()

	return tx
}

// decodeVote converts a wire vote.
func decodeVote(v *Vote) *consensus.ConsensusMessage {
	return &consensus.ConsensusMessage{
		TxID:      consensus.TxID(v.TxId()),
		Voter:     consensus.ParticipantID(v.Voter()),
		Accept:    v.Accept(),
		Timestamp: time.Unix(0, v.TimestampNs()),
		Digest:    string(v.Digest()),
	}
}

// decodeHandoverRequest converts a wire handover request.
func decodeHandoverRequest(r *HandoverRequest) *handover.Context {
	ctx := &handover.Context{
		Vehicle:    consensus.ParticipantID(r.Vehicle()),
		Source:     consensus.ParticipantID(r.Source()),
		Target:     consensus.ParticipantID(r.Target()),
		Timestamp:  time.Unix(0, r.TimestampNs()),
		Token:      string(r.Token()),
		InProgress: true,
	}

	if n := r.PendingLength(); n > 0 {
		ctx.PendingTxs = make([]consensus.TxID, n)
		for i := 0; i < n; i++ {
			ctx.PendingTxs[i] = consensus.TxID(r.Pending(i))
		}
	}

	return ctx
}
