// Package codec implements the hub wire protocol: a stream of self-describing
// binary envelopes, each a tuple of (type_id, field...), serialized as CBOR
// arrays so the runtime type of every field is carried on the wire alongside
// its value.
package codec

import "fmt"

// TypeID identifies one of the closed set of packet variants.
type TypeID int

const (
	TypePing                 TypeID = 1
	TypePong                 TypeID = 2
	TypeLog                  TypeID = 3
	TypeInfo                 TypeID = 4
	TypeDeclareApps          TypeID = 5
	TypeSessionOpen          TypeID = 6
	TypeSessionClose         TypeID = 7
	TypeSessionData          TypeID = 8
	TypeRoutePing            TypeID = 9
	TypeRoutePong            TypeID = 10
	TypeNotifyTerminalSize   TypeID = 11
	TypeFocus                TypeID = 12
	TypeBlur                 TypeID = 13
	TypeOpenURL              TypeID = 14
	TypeBinaryEncodedMessage TypeID = 15
	TypeDeliverFileStart     TypeID = 16
	TypeRequestDeliverChunk  TypeID = 17
)

// Packet is the sum type over every wire envelope. Only the fields in a
// Type's schema (see fieldsOf) are meaningful for it; the others stay at
// their zero values.
type Packet struct {
	Type TypeID

	Data        []byte
	Message     string
	Apps        []AppDecl
	SessionID   string
	AppID       string
	AppSlug     string
	RouteKey    string
	Width       int
	Height      int
	NewTab      bool
	DeliveryKey string
	FileName    string
	OpenMethod  string
	MimeType    string
	Encoding    string
	ChunkSize   int
}

// AppDecl is one entry of a DeclareApps packet's app list.
type AppDecl struct {
	Name     string `cbor:"name"`
	Slug     string `cbor:"slug"`
	Color    string `cbor:"color"`
	Terminal bool   `cbor:"terminal"`
}

// arity is the declared number of payload fields per type, used to decide how
// many elements of an over-long envelope are consumed versus ignored.
var arity = map[TypeID]int{
	TypePing:                 1,
	TypePong:                 1,
	TypeLog:                  1,
	TypeInfo:                 1,
	TypeDeclareApps:          1,
	TypeSessionOpen:          6,
	TypeSessionClose:         2,
	TypeSessionData:          2,
	TypeRoutePing:            2,
	TypeRoutePong:            2,
	TypeNotifyTerminalSize:   3,
	TypeFocus:                1,
	TypeBlur:                 1,
	TypeOpenURL:              3,
	TypeBinaryEncodedMessage: 2,
	TypeDeliverFileStart:     6,
	TypeRequestDeliverChunk:  3,
}

// knownTypeNames supports diagnostics; it is not consulted for decode
// correctness.
var knownTypeNames = map[TypeID]string{
	TypePing:                 "Ping",
	TypePong:                 "Pong",
	TypeLog:                  "Log",
	TypeInfo:                 "Info",
	TypeDeclareApps:          "DeclareApps",
	TypeSessionOpen:          "SessionOpen",
	TypeSessionClose:         "SessionClose",
	TypeSessionData:          "SessionData",
	TypeRoutePing:            "RoutePing",
	TypeRoutePong:            "RoutePong",
	TypeNotifyTerminalSize:   "NotifyTerminalSize",
	TypeFocus:                "Focus",
	TypeBlur:                 "Blur",
	TypeOpenURL:              "OpenUrl",
	TypeBinaryEncodedMessage: "BinaryEncodedMessage",
	TypeDeliverFileStart:     "DeliverFileStart",
	TypeRequestDeliverChunk:  "RequestDeliverChunk",
}

func (t TypeID) String() string {
	if name, ok := knownTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypeID(%d)", int(t))
}
