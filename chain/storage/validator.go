package storage

import (
	"github.com/finova-net/finova-core/chain/consensus"
)

func validatorKey(pubKey []byte) []byte {
	key := make([]byte, 1+len(pubKey))
	key[0] = prefixValidator
	copy(key[1:], pubKey)
	return key
}

func encodeValidatorInfo(v *consensus.Info) []byte {
	e := &encoder{}
	e.bytesField(v.PubKey)
	e.u64(v.Stake)
	e.u8(uint8(v.Status))
	e.i64(v.Reputation)
	e.u64(v.SlashCount)
	e.str(v.RegionCode)
	e.u64(v.CommissionRateBps)
	e.i64(v.JoinedAt)
	e.i64(v.LastActivity)
	e.u64(v.Version)
	return e.bytes()
}

func decodeValidatorInfo(data []byte) (*consensus.Info, error) {
	d := newDecoder(data)
	v := &consensus.Info{
		PubKey:            d.bytesField(),
		Stake:             d.u64(),
		Status:            consensus.Status(d.u8()),
		Reputation:        d.i64(),
		SlashCount:        d.u64(),
		RegionCode:        d.str(),
		CommissionRateBps: d.u64(),
		JoinedAt:          d.i64(),
		LastActivity:      d.i64(),
		Version:           d.u64(),
	}
	return v, d.done()
}

// SaveValidator persists one validator's info, keyed by its public key.
func (s *Store) SaveValidator(v *consensus.Info) error {
	return s.put(validatorKey(v.PubKey), encodeValidatorInfo(v))
}

// LoadValidator loads a validator's info by public key.
func (s *Store) LoadValidator(pubKey []byte) (*consensus.Info, error) {
	data, err := s.get(validatorKey(pubKey))
	if err != nil {
		return nil, err
	}
	return decodeValidatorInfo(data)
}

// DeleteValidator removes a validator's persisted record (spec §4.5's
// O(1) removal also drops the record from disk).
func (s *Store) DeleteValidator(pubKey []byte) error {
	return s.delete(validatorKey(pubKey))
}
