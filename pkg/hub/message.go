// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "encoding/json"

// Message is one pre-encoded JSON frame for every client.
type Message struct {
	Topic string
	Data  []byte
}

// NewJSONMessage encodes v for topic.
func NewJSONMessage(topic string, v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: topic, Data: data}, nil
}
