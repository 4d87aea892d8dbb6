// Package consensus implements the vote-collection protocol: each
// participant verifies inbound transactions, broadcasts its verdict and
// finalizes once enough peers agree. Transport, scheduling and mobility
// live elsewhere; the engine only sees decoded messages, an injected
// clock and an outbound sink.
package consensus

import (
	"time"

	"cocochain/internal/semantic"
)

// ParticipantID identifies a vehicle or authority.
type ParticipantID uint64

// TxID is a run-unique transaction identifier.
type TxID uint64

// txIDStride separates per-participant counter ranges inside a TxID.
const txIDStride = 1_000_000

// NewTxID combines an originator with its monotonic counter. Unique as
// long as no participant issues more than txIDStride transactions.
func NewTxID(originator ParticipantID, counter uint64) TxID {
	return TxID(uint64(originator)*txIDStride + counter)
}

// Transaction carries one concept vector through consensus.
type Transaction struct {
	ID         TxID            // ID is unique per run
	Originator ParticipantID   // Originator created and broadcast the transaction
	Timestamp  time.Time       // Timestamp is the creation time
	Vector     semantic.Vector // Vector is the attested payload
	Digest     string          // Digest was computed over Vector at creation
}

// ConsensusMessage is one participant's vote on a transaction.
type ConsensusMessage struct {
	TxID      TxID          // TxID is the transaction being voted on
	Voter     ParticipantID // Voter cast this ballot
	Accept    bool          // Accept is the voter's verification verdict
	Timestamp time.Time     // Timestamp is the vote creation time
	Digest    string        // Digest is the digest the voter attests to
}

// AdversarySet is the fixed set of participants flagged adversarial at
// initialization. The engine reads it to decide whether to corrupt
// self-originated payloads; it is never mutated after construction.
type AdversarySet map[ParticipantID]struct{}

// NewAdversarySet builds a set from explicit ids.
func NewAdversarySet(ids ...ParticipantID) AdversarySet {
	s := make(AdversarySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}

	return s
}

// Contains reports whether id is adversarial.
func (s AdversarySet) Contains(id ParticipantID) bool {
	_, ok := s[id]
	return ok
}
