package filer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        *RespBody
		wantValue   bool
		wantMessage string
	}{
		{name: "success", body: SuccessBody(nil), wantValue: true, wantMessage: "Success"},
		{name: "failed keeps value true", body: FailedBody(nil), wantValue: true, wantMessage: "Failed"},
		{name: "permission denied", body: PermissionBody(false, "", nil), wantValue: false, wantMessage: "Permission Denied"},
		{name: "permission granted", body: PermissionBody(true, "", nil), wantValue: true, wantMessage: "Permission Granted!"},
		{name: "permission custom message", body: PermissionBody(false, "Login first", nil), wantValue: false, wantMessage: "Login first"},
		{name: "custom", body: NewRespBody(false, "Quota exceeded", nil), wantValue: false, wantMessage: "Quota exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantValue, tt.body.Value)
			assert.Equal(t, tt.wantMessage, tt.body.Message)
		})
	}
}

func TestEnvelopeFlattensMeta(t *testing.T) {
	t.Parallel()

	body := SuccessBody(map[string]any{"a": 1, "b": "x"})
	assert.Equal(t, `{"value":true,"message":"Success","a":1,"b":"x"}`, body.Stringify())

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(body.Stringify()), &got))
	assert.Len(t, got, 4)
	assert.NotContains(t, got, "meta")
}

func TestEnvelopeMetaCannotOverride(t *testing.T) {
	t.Parallel()

	body := PermissionBody(false, "", map[string]any{"value": true, "message": "ok", "reason": "ip"})
	assert.Equal(t, `{"value":false,"message":"Permission Denied","reason":"ip"}`, body.Stringify())
}

func TestEnvelopeMetaIsCopied(t *testing.T) {
	t.Parallel()

	meta := map[string]any{"a": 1}
	body := SuccessBody(meta)
	meta["a"] = 2
	assert.Equal(t, 1, body.Meta["a"])
}

func TestEnvelopeUnencodableMeta(t *testing.T) {
	t.Parallel()

	body := FailedBody(map[string]any{"ch": make(chan int)})
	_, err := json.Marshal(body)
	require.Error(t, err)
	assert.Equal(t, `{"value":true,"message":"Failed"}`, body.Stringify())
}

func TestEnvelopeUnmarshal(t *testing.T) {
	t.Parallel()

	var body RespBody
	require.NoError(t, json.Unmarshal([]byte(`{"value":true,"message":"Failed","error":"boom"}`), &body))
	assert.True(t, body.Value)
	assert.Equal(t, "Failed", body.Message)
	assert.Equal(t, map[string]any{"error": "boom"}, body.Meta)
}

func TestEnvelopeWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, SuccessBody(nil).Write(&buf))
	assert.JSONEq(t, `{"value":true,"message":"Success"}`, buf.String())
	assert.Equal(t, "RespBody<value=true, message=Success, meta=0>", SuccessBody(nil).String())
}
