// Package handover transfers authentication responsibility for a
// moving vehicle from one regional authority to the next. The vehicle
// side tracks at most one in-flight handover; the authority side
// evaluates requests addressed to it and answers with success or
// failure.
package handover

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"cocochain/internal/consensus"
)

// tokenSize is the rendered token length in bytes before hex encoding.
const tokenSize = 16

// Context is the state of one handover attempt.
type Context struct {
	Vehicle    consensus.ParticipantID // Vehicle is the moving participant
	Source     consensus.ParticipantID // Source is the authority handing off
	Target     consensus.ParticipantID // Target is the authority taking over
	Timestamp  time.Time               // Timestamp is the request creation time
	PendingTxs []consensus.TxID        // PendingTxs are still undecided at the source
	Token      string                  // Token authorizes the transfer
	InProgress bool                    // InProgress marks an unanswered request
}

// NewToken derives the authorization token binding a handover to its
// vehicle, endpoints and request time.
func NewToken(vehicle, source, target consensus.ParticipantID, at time.Time) string {
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[0:], uint64(vehicle))
	binary.BigEndian.PutUint64(buf[8:], uint64(source))
	binary.BigEndian.PutUint64(buf[16:], uint64(target))
	binary.BigEndian.PutUint64(buf[24:], uint64(at.UnixNano()))

	sum := blake3.Sum256(buf[:])

	return hex.EncodeToString(sum[:tokenSize])
}

// VerifyToken reports whether the context's token matches its fields.
func VerifyToken(ctx *Context) bool {
	return ctx.Token == NewToken(ctx.Vehicle, ctx.Source, ctx.Target, ctx.Timestamp)
}
