// Package wireproto implements the length-framed JSON wire format of §6:
// a fixed 3-byte prologue, an 8-hex-character length field plus NUL, the
// JSON payload, and a fixed 3-byte epilogue. Grounded directly in
// original_source/qrl/core/p2pprotocol.py's wrap_message, which this
// framing follows literally per SPEC_FULL.md's note on why JSON (not the
// teacher's newer protobuf transport) is used for this surface.
package wireproto

import (
	"bufio"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	prologue = [3]byte{0xFF, 0x00, 0x00}
	epilogue = [3]byte{0x00, 0x00, 0xFF}
)

// Code identifies a recognized wire message type (§6's code table).
type Code string

// Recognized message codes, per §6.
const (
	CodeReceipt           Code = "MR"
	CodeSendFullMessage   Code = "SFM"
	CodeBlock             Code = "BK"
	CodeTransfer          Code = "TX"
	CodeStake             Code = "ST"
	CodeFetchBlock        Code = "FB"
	CodePushBlock         Code = "PB"
	CodeFetchHeader       Code = "FH"
	CodePushHeader        Code = "PH"
	CodeMaxHeightRequest  Code = "MB"
	CodeMaxHeightReply    Code = "CB"
	CodeFetchAgreedHeight Code = "FMBH"
	CodePushAgreedHeight  Code = "PMBH"
	CodeVersion           Code = "VE"
	CodePeerList          Code = "PL"
	CodePeerListRequest   Code = "PE"
	CodePing              Code = "PI"
	CodePong              Code = "PO"
)

// Envelope is the JSON payload framed between the prologue and epilogue:
// {"type": <code>, "data": <value?>} per §6.
type Envelope struct {
	Type Code            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Wrap frames an envelope carrying code and data (already JSON-encoded,
// or nil for codes with no payload such as PI/PO) into the full
// on-wire message.
func Wrap(code Code, data json.RawMessage) ([]byte, error) {
	env := Envelope{Type: code, Data: data}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling envelope")
	}

	lengthField := []byte(hex.EncodeToString(beUint32(uint32(len(payload)))))
	out := make([]byte, 0, 3+len(lengthField)+1+len(payload)+3)
	out = append(out, prologue[:]...)
	out = append(out, lengthField...)
	out = append(out, 0x00)
	out = append(out, payload...)
	out = append(out, epilogue[:]...)
	return out, nil
}

func beUint32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// ErrBadFraming is returned when a message's prologue, length field, or
// epilogue do not match the expected framing.
var ErrBadFraming = errors.New("wireproto: malformed message framing")

// Reader incrementally parses framed messages off a byte stream, the way
// the original's buffer-accumulate-then-slice loop does, but without
// holding an unbounded buffer: it reads exactly the prologue, then the
// length field, then exactly that many payload bytes, then the epilogue.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r for framed message reads.
func NewReader(r *bufio.Reader) *Reader {
	return &Reader{br: r}
}

// ReadMessage reads one complete framed message and returns its parsed
// envelope.
func (rd *Reader) ReadMessage() (Envelope, error) {
	var prologueBuf [3]byte
	if _, err := readFull(rd.br, prologueBuf[:]); err != nil {
		return Envelope{}, err
	}
	if prologueBuf != prologue {
		return Envelope{}, ErrBadFraming
	}

	lengthHex := make([]byte, 8)
	if _, err := readFull(rd.br, lengthHex); err != nil {
		return Envelope{}, err
	}
	nulByte, err := rd.br.ReadByte()
	if err != nil {
		return Envelope{}, errors.Wrap(err, "reading length-field terminator")
	}
	if nulByte != 0x00 {
		return Envelope{}, ErrBadFraming
	}

	lengthBytes, err := hex.DecodeString(string(lengthHex))
	if err != nil || len(lengthBytes) != 4 {
		return Envelope{}, ErrBadFraming
	}
	length := uint32(lengthBytes[0])<<24 | uint32(lengthBytes[1])<<16 | uint32(lengthBytes[2])<<8 | uint32(lengthBytes[3])

	payload := make([]byte, length)
	if _, err := readFull(rd.br, payload); err != nil {
		return Envelope{}, err
	}

	var epilogueBuf [3]byte
	if _, err := readFull(rd.br, epilogueBuf[:]); err != nil {
		return Envelope{}, err
	}
	if epilogueBuf != epilogue {
		return Envelope{}, ErrBadFraming
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, errors.Wrap(err, "unmarshaling envelope")
	}
	return env, nil
}

func readFull(br *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := br.Read(buf[n:])
		n += m
		if err != nil {
			return n, errors.Wrap(err, "reading framed message")
		}
	}
	return n, nil
}
