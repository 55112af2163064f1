package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Decode failure modes named in the external interface description.
var (
	ErrPacketEmpty  = errors.New("codec: envelope is empty")
	ErrTypeIDNotInt = errors.New("codec: first envelope element is not an integer type id")
)

// TypeMismatchError reports a field whose decoded runtime type didn't match
// its declared schema type.
type TypeMismatchError struct {
	Type  TypeID
	Field int
	Want  string
	Got   any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("codec: %s field %d: expected %s, found %T", e.Type, e.Field, e.Want, e.Got)
}

// Encode serializes p as a self-describing binary tuple (type_id, field...).
func Encode(p Packet) ([]byte, error) {
	fields, err := fieldsOf(p)
	if err != nil {
		return nil, err
	}
	tuple := make([]any, 0, 1+len(fields))
	tuple = append(tuple, int(p.Type))
	tuple = append(tuple, fields...)
	return cbor.Marshal(tuple)
}

// Decode parses a wire envelope. It returns (nil, nil) for an unknown type
// id — a no-op decode, not an error, so new hub packets don't crash old
// clients. Extra trailing fields beyond a type's declared arity are ignored.
func Decode(data []byte) (*Packet, error) {
	var raw []cbor.RawMessage
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("codec: malformed envelope: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrPacketEmpty
	}

	var typeVal any
	if err := cbor.Unmarshal(raw[0], &typeVal); err != nil {
		return nil, fmt.Errorf("codec: malformed type id: %w", err)
	}
	typeID, ok := asInt(typeVal)
	if !ok {
		return nil, ErrTypeIDNotInt
	}

	t := TypeID(typeID)
	want, known := arity[t]
	if !known {
		return nil, nil
	}

	payload := raw[1:]
	if len(payload) > want {
		payload = payload[:want]
	}

	return buildFromFields(t, payload)
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
