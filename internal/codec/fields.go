package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// fieldsOf returns p's declared attribute list, in schema order, ready for
// tuple encoding.
func fieldsOf(p Packet) ([]any, error) {
	switch p.Type {
	case TypePing, TypePong:
		return []any{p.Data}, nil
	case TypeLog, TypeInfo:
		return []any{p.Message}, nil
	case TypeDeclareApps:
		return []any{p.Apps}, nil
	case TypeSessionOpen:
		return []any{p.SessionID, p.AppID, p.AppSlug, p.RouteKey, p.Width, p.Height}, nil
	case TypeSessionClose:
		return []any{p.SessionID, p.RouteKey}, nil
	case TypeSessionData:
		return []any{p.RouteKey, p.Data}, nil
	case TypeRoutePing, TypeRoutePong:
		return []any{p.RouteKey, p.Message}, nil
	case TypeNotifyTerminalSize:
		return []any{p.SessionID, p.Width, p.Height}, nil
	case TypeFocus, TypeBlur:
		return []any{p.RouteKey}, nil
	case TypeOpenURL:
		return []any{p.RouteKey, p.Message, p.NewTab}, nil
	case TypeBinaryEncodedMessage:
		return []any{p.RouteKey, p.Data}, nil
	case TypeDeliverFileStart:
		return []any{p.RouteKey, p.DeliveryKey, p.FileName, p.OpenMethod, p.MimeType, p.Encoding}, nil
	case TypeRequestDeliverChunk:
		return []any{p.RouteKey, p.DeliveryKey, p.ChunkSize}, nil
	default:
		return nil, fmt.Errorf("codec: %s has no declared schema", p.Type)
	}
}

// buildFromFields decodes payload (already truncated to the type's arity)
// into a Packet, validating each field's runtime type against the schema.
func buildFromFields(t TypeID, payload []cbor.RawMessage) (*Packet, error) {
	s := fieldScanner{typ: t, raw: payload}
	p := &Packet{Type: t}

	switch t {
	case TypePing, TypePong:
		p.Data = s.bytes(0)
	case TypeLog, TypeInfo:
		p.Message = s.str(0)
	case TypeDeclareApps:
		p.Apps = s.appList(0)
	case TypeSessionOpen:
		p.SessionID = s.str(0)
		p.AppID = s.str(1)
		p.AppSlug = s.str(2)
		p.RouteKey = s.str(3)
		p.Width = s.int(4)
		p.Height = s.int(5)
	case TypeSessionClose:
		p.SessionID = s.str(0)
		p.RouteKey = s.str(1)
	case TypeSessionData:
		p.RouteKey = s.str(0)
		p.Data = s.bytes(1)
	case TypeRoutePing, TypeRoutePong:
		p.RouteKey = s.str(0)
		p.Message = s.str(1)
	case TypeNotifyTerminalSize:
		p.SessionID = s.str(0)
		p.Width = s.int(1)
		p.Height = s.int(2)
	case TypeFocus, TypeBlur:
		p.RouteKey = s.str(0)
	case TypeOpenURL:
		p.RouteKey = s.str(0)
		p.Message = s.str(1) // url
		p.NewTab = s.boolean(2)
	case TypeBinaryEncodedMessage:
		p.RouteKey = s.str(0)
		p.Data = s.bytes(1)
	case TypeDeliverFileStart:
		p.RouteKey = s.str(0)
		p.DeliveryKey = s.str(1)
		p.FileName = s.str(2)
		p.OpenMethod = s.str(3)
		p.MimeType = s.str(4)
		p.Encoding = s.str(5)
	case TypeRequestDeliverChunk:
		p.RouteKey = s.str(0)
		p.DeliveryKey = s.str(1)
		p.ChunkSize = s.int(2)
	}

	if s.err != nil {
		return nil, s.err
	}
	return p, nil
}

// fieldScanner decodes positional CBOR fields against a declared schema,
// recording the first type mismatch it encounters.
type fieldScanner struct {
	typ TypeID
	raw []cbor.RawMessage
	err error
}

func (s *fieldScanner) at(i int) (cbor.RawMessage, bool) {
	if s.err != nil || i >= len(s.raw) {
		return nil, false
	}
	return s.raw[i], true
}

func (s *fieldScanner) fail(i int, want string, got any) {
	if s.err == nil {
		s.err = &TypeMismatchError{Type: s.typ, Field: i, Want: want, Got: got}
	}
}

func (s *fieldScanner) str(i int) string {
	raw, ok := s.at(i)
	if !ok {
		s.fail(i, "text string", nil)
		return ""
	}
	var v string
	if err := cbor.Unmarshal(raw, &v); err != nil {
		var generic any
		cbor.Unmarshal(raw, &generic)
		s.fail(i, "text string", generic)
		return ""
	}
	return v
}

func (s *fieldScanner) bytes(i int) []byte {
	raw, ok := s.at(i)
	if !ok {
		s.fail(i, "byte string", nil)
		return nil
	}
	var v []byte
	if err := cbor.Unmarshal(raw, &v); err != nil {
		var generic any
		cbor.Unmarshal(raw, &generic)
		s.fail(i, "byte string", generic)
		return nil
	}
	return v
}

func (s *fieldScanner) int(i int) int {
	raw, ok := s.at(i)
	if !ok {
		s.fail(i, "integer", nil)
		return 0
	}
	var v any
	if err := cbor.Unmarshal(raw, &v); err != nil {
		s.fail(i, "integer", nil)
		return 0
	}
	n, ok := asInt(v)
	if !ok {
		s.fail(i, "integer", v)
		return 0
	}
	return int(n)
}

func (s *fieldScanner) boolean(i int) bool {
	raw, ok := s.at(i)
	if !ok {
		s.fail(i, "boolean", nil)
		return false
	}
	var v any
	if err := cbor.Unmarshal(raw, &v); err != nil {
		s.fail(i, "boolean", nil)
		return false
	}
	b, ok := v.(bool)
	if !ok {
		s.fail(i, "boolean", v)
		return false
	}
	return b
}

func (s *fieldScanner) appList(i int) []AppDecl {
	raw, ok := s.at(i)
	if !ok {
		s.fail(i, "list", nil)
		return nil
	}
	var v []AppDecl
	if err := cbor.Unmarshal(raw, &v); err != nil {
		var generic any
		cbor.Unmarshal(raw, &generic)
		s.fail(i, "list", generic)
		return nil
	}
	return v
}
