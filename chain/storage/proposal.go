package storage

import (
	"github.com/finova-net/finova-core/chain/governance"
)

func proposalKey(id uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefixProposal
	e := &encoder{}
	e.u64(id)
	copy(key[1:], e.bytes())
	return key
}

func encodeProposal(p *governance.Proposal) []byte {
	e := &encoder{}
	e.u64(p.ID)
	e.bytesField(p.Proposer[:])
	e.str(p.Title)
	e.str(p.Description)
	e.bytesField(p.Payload)
	e.i64(p.CreatedAt)
	e.i64(p.VotingEndsAt)
	e.i64(p.ExecutionDelay)
	e.u64(p.VotesFor)
	e.u64(p.VotesAgainst)
	e.u8(uint8(p.Status))
	return e.bytes()
}

func decodeProposal(data []byte) (*governance.Proposal, error) {
	d := newDecoder(data)
	p := &governance.Proposal{
		ID: d.u64(),
	}
	copy(p.Proposer[:], d.bytesField())
	p.Title = d.str()
	p.Description = d.str()
	p.Payload = d.bytesField()
	p.CreatedAt = d.i64()
	p.VotingEndsAt = d.i64()
	p.ExecutionDelay = d.i64()
	p.VotesFor = d.u64()
	p.VotesAgainst = d.u64()
	p.Status = governance.ProposalStatus(d.u8())
	return p, d.done()
}

// SaveProposal persists a governance proposal keyed by its ID.
func (s *Store) SaveProposal(p *governance.Proposal) error {
	return s.put(proposalKey(p.ID), encodeProposal(p))
}

// LoadProposal loads a governance proposal by ID.
func (s *Store) LoadProposal(id uint64) (*governance.Proposal, error) {
	data, err := s.get(proposalKey(id))
	if err != nil {
		return nil, err
	}
	return decodeProposal(data)
}
