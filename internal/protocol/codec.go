package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
)

// Encode wraps payload in an envelope of type t.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("protocol: encode: empty envelope type")
	}
	if payload == nil {
		return nil, fmt.Errorf("protocol: encode %s: nil payload", t)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Data: data})
}

// DecodeEnvelope parses the outer frame without looking at the payload.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return e, nil
}

// DecodePayload unmarshals the envelope data into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("%w: empty payload for type %q", ErrMalformed, env.Type)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return out, nil
}

// DecodeClientMessage parses a client frame into a room command. Frames that
// are not valid JSON, miss required fields or carry fields of the wrong kind
// fail with ErrMalformed; unsupported types fail with ErrUnknownType.
func DecodeClientMessage(b []byte) (multiplayer.ClientMessage, error) {
	if len(b) == 0 || !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	frame := gjson.ParseBytes(b)
	if !frame.IsObject() {
		return nil, fmt.Errorf("%w: frame is not an object", ErrMalformed)
	}

	typ := frame.Get("type")
	if typ.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	data := frame.Get("data")

	switch typ.Str {
	case MsgFire:
		if err := require(data, typ.Str, field{"angle", gjson.Number}, field{"power", gjson.Number}); err != nil {
			return nil, err
		}
		return decodeData[multiplayer.FireMsg](typ.Str, data)
	case MsgReportResult:
		if err := requireBool(data, typ.Str, "hit"); err != nil {
			return nil, err
		}
		if err := require(data, typ.Str, field{"hitWhat", gjson.String}); err != nil {
			return nil, err
		}
		return decodeData[multiplayer.ReportResultMsg](typ.Str, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ.Str)
	}
}

type field struct {
	name string
	kind gjson.Type
}

func require(data gjson.Result, typ string, fields ...field) error {
	if !data.IsObject() {
		return fmt.Errorf("%w: %s: data is not an object", ErrMalformed, typ)
	}
	for _, f := range fields {
		if v := data.Get(f.name); v.Type != f.kind {
			return fmt.Errorf("%w: %s: %s must be a %s", ErrMalformed, typ, f.name, kindName(f.kind))
		}
	}
	return nil
}

func requireBool(data gjson.Result, typ, name string) error {
	if !data.IsObject() {
		return fmt.Errorf("%w: %s: data is not an object", ErrMalformed, typ)
	}
	if v := data.Get(name); v.Type != gjson.True && v.Type != gjson.False {
		return fmt.Errorf("%w: %s: %s must be a boolean", ErrMalformed, typ, name)
	}
	return nil
}

func kindName(t gjson.Type) string {
	switch t {
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		return t.String()
	}
}

func decodeData[T multiplayer.ClientMessage](typ string, data gjson.Result) (multiplayer.ClientMessage, error) {
	var out T
	if err := json.Unmarshal([]byte(data.Raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, typ, err)
	}
	return out, nil
}

// EventType returns the wire type of a room event.
func EventType(evt multiplayer.SessionEvent) (string, error) {
	switch evt.(type) {
	case multiplayer.RoomStateEvent:
		return MsgRoomState, nil
	case multiplayer.PlayerJoinedEvent:
		return MsgPlayerJoined, nil
	case multiplayer.ShotFiredEvent:
		return MsgShotFired, nil
	case multiplayer.ShotResultEvent:
		return MsgShotResult, nil
	case multiplayer.PlayerDisconnectedEvent:
		return MsgPlayerDisconnected, nil
	case multiplayer.PlayerReconnectedEvent:
		return MsgPlayerReconnected, nil
	case multiplayer.ErrorEvent:
		return MsgError, nil
	default:
		return "", fmt.Errorf("%w: event %T", ErrUnknownType, evt)
	}
}

// EncodeEvent renders a room event as a wire frame.
func EncodeEvent(evt multiplayer.SessionEvent) ([]byte, error) {
	t, err := EventType(evt)
	if err != nil {
		return nil, err
	}
	return Encode(t, evt)
}

// EncodeFire renders a fire request, as sent by a client.
func EncodeFire(angle float64, power int) ([]byte, error) {
	return Encode(MsgFire, multiplayer.FireMsg{Angle: angle, Power: float64(power)})
}

// EncodeReport renders a report_result request, as sent by a client.
func EncodeReport(msg multiplayer.ReportResultMsg) ([]byte, error) {
	return Encode(MsgReportResult, msg)
}

// DecodeEvent parses a room frame into the matching event. It is the client
// side counterpart of EncodeEvent.
func DecodeEvent(b []byte) (multiplayer.SessionEvent, error) {
	env, err := DecodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case MsgRoomState:
		return decodeEvent[multiplayer.RoomStateEvent](env)
	case MsgPlayerJoined:
		return decodeEvent[multiplayer.PlayerJoinedEvent](env)
	case MsgShotFired:
		return decodeEvent[multiplayer.ShotFiredEvent](env)
	case MsgShotResult:
		return decodeEvent[multiplayer.ShotResultEvent](env)
	case MsgPlayerDisconnected:
		return decodeEvent[multiplayer.PlayerDisconnectedEvent](env)
	case MsgPlayerReconnected:
		return decodeEvent[multiplayer.PlayerReconnectedEvent](env)
	case MsgError:
		return decodeEvent[multiplayer.ErrorEvent](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeEvent[T multiplayer.SessionEvent](env Envelope) (multiplayer.SessionEvent, error) {
	v, err := DecodePayload[T](env)
	if err != nil {
		return nil, err
	}
	return v, nil
}
