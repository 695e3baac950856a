package types

import (
	"bytes"
	"encoding/json"
)

// Chat is a persisted conversation record. Only "id" is interpreted; every other
// field (title, messages, timestamps) is carried through untouched.
type Chat map[string]json.RawMessage

// ID returns the chat identifier. String ids are returned as-is and numeric ids
// use their literal JSON text. ok is false when the field is absent, null, or
// neither a string nor a number.
func (c Chat) ID() (id string, ok bool) {
	raw, found := c["id"]
	if !found {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

// Clone returns a copy of c that shares no maps or byte slices with it.
func (c Chat) Clone() Chat {
	if c == nil {
		return nil
	}
	out := make(Chat, len(c))
	for k, v := range c {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
