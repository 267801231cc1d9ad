package addrstate

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
)

// gobState is the on-disk shape of State. encoding/gob is used here
// because this is purely internal node-local storage (§4.1's addr_<a>
// key) with no cross-language or cross-process wire requirement — unlike
// the peer wire format (§6, JSON-framed) or the RPC surface (§6,
// protobuf), nothing else in the corpus parses this byte layout, so the
// stdlib codec is the right tool rather than a deviation from it.
type gobState struct {
	Balance uint64
	Nonce   uint64
	UsedOTS []uint32
}

func encodeState(s *State) ([]byte, error) {
	g := gobState{Balance: s.Balance, Nonce: s.Nonce, UsedOTS: make([]uint32, 0, len(s.UsedOTS))}
	for idx := range s.UsedOTS {
		g.UsedOTS = append(g.UsedOTS, idx)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, errors.Wrap(err, "gob-encoding address state")
	}
	return buf.Bytes(), nil
}

func decodeState(raw []byte) (*State, error) {
	var g gobState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&g); err != nil {
		return nil, errors.Wrap(err, "gob-decoding address state")
	}
	s := &State{Balance: g.Balance, Nonce: g.Nonce, UsedOTS: make(map[uint32]struct{}, len(g.UsedOTS))}
	for _, idx := range g.UsedOTS {
		s.UsedOTS[idx] = struct{}{}
	}
	return s, nil
}
