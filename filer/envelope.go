package filer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
)

const (
	MessageSuccess           = "Success"
	MessageFailed            = "Failed"
	MessagePermissionDenied  = "Permission Denied"
	MessagePermissionGranted = "Permission Granted!"
)

const (
	keyValue   = "value"
	keyMessage = "message"
)

// RespBody is the JSON envelope written for every outcome. Meta entries are
// flattened next to value and message when serialized; they never replace them.
type RespBody struct {
	Value   bool
	Message string
	Meta    map[string]any
}

// NewRespBody creates an envelope. meta is copied.
func NewRespBody(value bool, message string, meta map[string]any) *RespBody {
	return &RespBody{
		Value:   value,
		Message: message,
		Meta:    maps.Clone(meta),
	}
}

// SuccessBody is the default envelope for a completed upload.
func SuccessBody(meta map[string]any) *RespBody {
	return NewRespBody(true, MessageSuccess, meta)
}

// FailedBody is the envelope for a failed upload. Its value is true: existing
// clients read the message, not the flag.
func FailedBody(meta map[string]any) *RespBody {
	return NewRespBody(true, MessageFailed, meta)
}

// PermissionBody is the envelope for the permission check. An empty message is
// replaced based on value.
func PermissionBody(value bool, message string, meta map[string]any) *RespBody {
	if message == "" {
		message = MessagePermissionDenied
		if value {
			message = MessagePermissionGranted
		}
	}
	return NewRespBody(value, message, meta)
}

// MarshalJSON writes value and message first, then the meta keys in sorted order.
func (b RespBody) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"value":`)
	buf.WriteString(strconv.FormatBool(b.Value))
	buf.WriteString(`,"message":`)

	msg, err := json.Marshal(b.Message)
	if err != nil {
		return nil, err
	}
	buf.Write(msg)

	for _, key := range slices.Sorted(maps.Keys(b.Meta)) {
		if key == keyValue || key == keyMessage {
			continue
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(b.Meta[key])
		if err != nil {
			return nil, fmt.Errorf("meta key %q: %w", key, err)
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an envelope, collecting unknown keys into Meta.
func (b *RespBody) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = RespBody{}
	if v, ok := raw[keyValue].(bool); ok {
		b.Value = v
	}
	if v, ok := raw[keyMessage].(string); ok {
		b.Message = v
	}
	delete(raw, keyValue)
	delete(raw, keyMessage)
	if len(raw) > 0 {
		b.Meta = raw
	}
	return nil
}

// Stringify returns the compact JSON form of the envelope. If a meta value
// cannot be encoded, the meta is left out.
func (b *RespBody) Stringify() string {
	data, err := json.Marshal(b)
	if err != nil {
		data, _ = json.Marshal(RespBody{Value: b.Value, Message: b.Message})
	}
	return string(data)
}

// Write sends the envelope as the whole body. Status and headers are left to
// the caller.
func (b *RespBody) Write(w io.Writer) error {
	_, err := io.WriteString(w, b.Stringify())
	return err
}

// String returns a human-readable representation of the RespBody
func (b *RespBody) String() string {
	return fmt.Sprintf("RespBody<value=%t, message=%s, meta=%d>", b.Value, b.Message, len(b.Meta))
}
