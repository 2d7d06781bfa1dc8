package protocol

import (
	"encoding/json"
)

// messageEnvelope is used to extract the type discriminator without a full
// parse.
type messageEnvelope struct {
	Type string `json:"type"`
}

// Decode parses one raw text frame into a typed message. It returns ok=false
// for anything malformed or unrecognized: a single bad frame must not
// interrupt an otherwise healthy stream, so decode failure is swallowed here
// and counted by the caller.
func Decode(data []byte) (Message, bool) {
	var envelope messageEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, false
	}

	switch envelope.Type {
	case TypeReady:
		var msg Ready
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, false
		}
		return msg, true

	case TypeOrderUpdated:
		var msg OrderUpdated
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, false
		}
		if msg.Snapshot.OrderID == "" {
			return nil, false
		}
		return msg, true

	case TypeOrderRemoved:
		var msg OrderRemoved
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, false
		}
		if msg.OrderID == "" {
			return nil, false
		}
		return msg, true

	case TypeEdgeStatus:
		var msg EdgeStatus
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, false
		}
		return msg, true
	}

	return nil, false
}

// EncodeSubscribe builds the subscribe declaration for one store.
func EncodeSubscribe(storeID int64) ([]byte, error) {
	return json.Marshal(SubscribeCommand{
		Type:     TypeSubscribe,
		StoreIDs: []int64{storeID},
	})
}
