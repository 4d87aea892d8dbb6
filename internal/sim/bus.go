package sim

import (
	"cocochain/internal/consensus"
	"cocochain/internal/handover"
	"cocochain/internal/logger"
	"cocochain/internal/wire"
)

// event is one queued envelope. The from field suppresses echo back to
// the sender; everything else is addressed by the payload itself.
type event struct {
	from consensus.ParticipantID
	data []byte
}

// Bus is the in-memory broadcast medium. Every message crosses it as a
// real wire envelope, so the simulation exercises the same encode and
// decode paths as the QUIC transport, and ground-truth corruption flags
// never survive the hop. The bus keeps its own truth ledger instead; it
// is the only component allowed to read the flag.
//
// Delivery is strictly arrival-ordered: Drain works the queue front to
// back, and envelopes enqueued during delivery join the tail.
type Bus struct {
	vehicles    []*Vehicle
	authorities []*RoadsideUnit

	queue     []event
	corrupted map[consensus.TxID]bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{corrupted: make(map[consensus.TxID]bool)}
}

// AddVehicle registers a vehicle for delivery.
func (b *Bus) AddVehicle(v *Vehicle) {
	b.vehicles = append(b.vehicles, v)
}

// AddAuthority registers a roadside unit for delivery.
func (b *Bus) AddAuthority(a *RoadsideUnit) {
	b.authorities = append(b.authorities, a)
}

// Corrupted reports the ground truth for a transaction seen by the bus.
func (b *Bus) Corrupted(id consensus.TxID) bool {
	return b.corrupted[id]
}

// BroadcastTransaction records the ground truth and queues a transaction
// envelope. Also the injection point for hand-crafted payloads in
// scenario tests.
func (b *Bus) BroadcastTransaction(from consensus.ParticipantID, tx *consensus.Transaction) {
	b.corrupted[tx.ID] = tx.Vector.Corrupted
	b.queue = append(b.queue, event{from: from, data: wire.EncodeTransaction(tx)})
}

// Drain delivers queued envelopes in arrival order until the queue is
// quiescent, including envelopes produced by the deliveries themselves.
func (b *Bus) Drain() {
	for i := 0; i < len(b.queue); i++ {
		b.dispatch(b.queue[i])
	}

	b.queue = b.queue[:0]
}

// dispatch decodes one envelope and hands it to every addressee. Each
// recipient gets a fresh decode so no state is shared between engines.
func (b *Bus) dispatch(ev event) {
	msg, err := wire.Decode(ev.data)
	if err != nil {
		logger.Warn("undecodable envelope dropped", "from", uint64(ev.from), "error", err)
		return
	}

	switch {
	case msg.Transaction != nil:
		for _, v := range b.vehicles {
			if v.ID == ev.from {
				continue
			}

			m, _ := wire.Decode(ev.data)
			v.Engine.HandleTransaction(m.Transaction)
		}

	case msg.Vote != nil:
		for _, v := range b.vehicles {
			if v.ID == ev.from {
				continue
			}

			m, _ := wire.Decode(ev.data)
			v.Engine.HandleVote(m.Vote)
		}

	case msg.HandoverRequest != nil:
		for _, a := range b.authorities {
			m, _ := wire.Decode(ev.data)
			a.Handler.HandleRequest(m.HandoverRequest)
		}

	case msg.HandoverResponse != nil:
		for _, v := range b.vehicles {
			if v.ID == msg.HandoverResponse.Vehicle {
				v.Coordinator.Complete(msg.HandoverResponse.Authority, msg.HandoverResponse.Success)
			}
		}
	}
}

// Port binds one participant to the bus. It satisfies the outbound
// interfaces of the consensus engine, the handover coordinator and the
// handover authority.
type Port struct {
	bus  *Bus
	self consensus.ParticipantID
}

// Port returns the bus binding for the given participant.
func (b *Bus) Port(self consensus.ParticipantID) *Port {
	return &Port{bus: b, self: self}
}

// SendTransaction queues a transaction broadcast.
func (p *Port) SendTransaction(tx *consensus.Transaction) {
	p.bus.BroadcastTransaction(p.self, tx)
}

// SendVote queues a vote broadcast.
func (p *Port) SendVote(msg *consensus.ConsensusMessage) {
	p.bus.queue = append(p.bus.queue, event{from: p.self, data: wire.EncodeVote(msg)})
}

// SendHandoverRequest queues a handover request; authorities self-filter
// by target.
func (p *Port) SendHandoverRequest(ctx *handover.Context) {
	p.bus.queue = append(p.bus.queue, event{from: p.self, data: wire.EncodeHandoverRequest(ctx)})
}

// SendHandoverResponse queues a handover verdict addressed to vehicle.
func (p *Port) SendHandoverResponse(vehicle consensus.ParticipantID, success bool) {
	p.bus.queue = append(p.bus.queue, event{from: p.self, data: wire.EncodeHandoverResponse(&wire.HandoverVerdict{
		Vehicle:   vehicle,
		Authority: p.self,
		Success:   success,
	})})
}
