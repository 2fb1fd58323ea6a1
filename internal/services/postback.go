package services

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned for postback data that is not a JSON
// object with a string-or-null "nextMessageId".
var ErrMalformedPayload = errors.New("malformed postback payload")

const postbackKey = "nextMessageId"

type postbackPayload struct {
	NextMessageID *string `json:"nextMessageId"`
}

// EncodePostback builds the postback data for an option. A nil target
// encodes as null.
func EncodePostback(nextMessageID *string) string {
	b, _ := json.Marshal(postbackPayload{NextMessageID: nextMessageID})
	return string(b)
}

// DecodePostback extracts the next message ID. A null target decodes to nil
// without error.
func DecodePostback(data string) (*string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}

	raw, ok := fields[postbackKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedPayload, postbackKey)
	}

	var next *string
	if err := json.Unmarshal(raw, &next); err != nil {
		return nil, fmt.Errorf("%w: %s is not a string", ErrMalformedPayload, postbackKey)
	}
	return next, nil
}
