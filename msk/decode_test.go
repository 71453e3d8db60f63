package msk

import (
	"encoding/base64"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestDecodeValidMessage(t *testing.T) {
	m, err := Decode(events.KafkaRecord{Value: encode(`{"productId":123,"applicationCount":75,"queueType":"MEDIUM"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"productId":123,"applicationCount":75,"queueType":"MEDIUM"}`, string(m.Body()))
	assert.Equal(t, int64(75), gjson.GetBytes(m.Body(), "applicationCount").Int())
}

func TestDecodeEmptyMessage(t *testing.T) {
	_, err := Decode(events.KafkaRecord{Value: ""})
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"invalid base64": "not-valid-base64!!!",
		"invalid json":   encode("invalid json"),
		"invalid utf-8":  base64.StdEncoding.EncodeToString([]byte{'{', 0xff, 0xfe, '}'}),
		"json array":     encode(`[{"applicationCount":1}]`),
		"json scalar":    encode(`12`),
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(events.KafkaRecord{Value: value})
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}
