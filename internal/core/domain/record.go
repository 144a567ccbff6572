package domain

import (
	"encoding/json"
	"fmt"

	"github.com/yndnr/tickstate-go/pkg/bitio"
)

// Record is one accepted action persisted in a partition log.
//
// Time is Unix milliseconds as supplied by the tick loop.
type Record struct {
	Time    uint64 `json:"time"`
	Payload []byte `json:"payload"`
}

// MethodJoin is the reserved first payload byte of a join record.
// Game methods use 0x00..0xFE.
const MethodJoin byte = 0xFF

// MaxBlockSize is the largest identity or argument block the framing allows.
const MaxBlockSize = 0xFFFF

// Identity is a participant carried by the init record and join records.
type Identity struct {
	// ID is the stable participant id. Required.
	ID string

	// Claims holds every field of the identity object, including "id".
	Claims map[string]any
}

// ParseIdentity decodes a JSON identity object. The object must carry a
// non-empty string "id".
func ParseIdentity(block []byte) (Identity, error) {
	var claims map[string]any
	if err := json.Unmarshal(block, &claims); err != nil {
		return Identity{}, ErrForkIdentityParse.WithDetails("identity is not a json object").WithCause(err)
	}
	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return Identity{}, ErrForkIdentityParse.WithDetails("identity has no id")
	}
	return Identity{ID: id, Claims: claims}, nil
}

// MarshalIdentity encodes an identity as a JSON object.
func MarshalIdentity(id Identity) ([]byte, error) {
	claims := make(map[string]any, len(id.Claims)+1)
	for k, v := range id.Claims {
		claims[k] = v
	}
	claims["id"] = id.ID
	return json.Marshal(claims)
}

// EncodeInitPayload frames the first record of a partition log:
//
//	[u16 LE len][identity][u16 LE len][init args]
func EncodeInitPayload(identity, args []byte) ([]byte, error) {
	if len(identity) > MaxBlockSize || len(args) > MaxBlockSize {
		return nil, ErrPayloadTooLarge
	}
	w := bitio.NewWriter(4 + len(identity) + len(args))
	w.WriteUint16(uint16(len(identity)))
	w.WriteRaw(identity)
	w.WriteUint16(uint16(len(args)))
	w.WriteRaw(args)
	return w.Bytes(), nil
}

// ParseInitPayload parses the first record of a partition log and returns
// the initiating identity and the raw init args.
func ParseInitPayload(payload []byte) (Identity, []byte, error) {
	r := bitio.NewReader(payload)
	identity, err := readBlock(r)
	if err != nil {
		return Identity{}, nil, ErrForkIdentityParse.WithDetails("init record identity block").WithCause(err)
	}
	args, err := readBlock(r)
	if err != nil {
		return Identity{}, nil, ErrForkIdentityParse.WithDetails("init record args block").WithCause(err)
	}
	id, err := ParseIdentity(identity)
	if err != nil {
		return Identity{}, nil, err
	}
	return id, args, nil
}

// EncodeJoinPayload frames a join record:
//
//	[0xFF][u16 LE len][identity]
func EncodeJoinPayload(identity []byte) ([]byte, error) {
	if len(identity) > MaxBlockSize {
		return nil, ErrPayloadTooLarge
	}
	w := bitio.NewWriter(3 + len(identity))
	w.WriteUint8(MethodJoin)
	w.WriteUint16(uint16(len(identity)))
	w.WriteRaw(identity)
	return w.Bytes(), nil
}

// IsJoinPayload reports whether the payload starts with the join marker.
func IsJoinPayload(payload []byte) bool {
	return len(payload) > 0 && payload[0] == MethodJoin
}

// ParseJoinPayload parses a join record's identity.
func ParseJoinPayload(payload []byte) (Identity, error) {
	if !IsJoinPayload(payload) {
		return Identity{}, ErrForkIdentityParse.WithDetails("missing join marker")
	}
	block, err := readBlock(bitio.NewReader(payload[1:]))
	if err != nil {
		return Identity{}, ErrForkIdentityParse.WithDetails("join record identity block").WithCause(err)
	}
	return ParseIdentity(block)
}

// EncodeActionPayload frames a game action: [method][args].
func EncodeActionPayload(method byte, args []byte) ([]byte, error) {
	if method == MethodJoin {
		return nil, ErrInvalidArgument.WithDetails(fmt.Sprintf("method 0x%02x is reserved for join", method))
	}
	out := make([]byte, 0, 1+len(args))
	out = append(out, method)
	return append(out, args...), nil
}

func readBlock(r *bitio.Reader) ([]byte, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	return r.ReadRaw(int(n))
}
