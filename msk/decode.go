package msk

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/aura-studio/mskrouter/route"
	"github.com/aws/aws-lambda-go/events"
)

var (
	ErrEmptyPayload     = errors.New("msk: empty record value")
	ErrMalformedPayload = errors.New("msk: malformed record value")
)

// Decode turns one Kafka record into a message. The record value must be
// base64 encoded UTF-8 text holding a JSON object.
func Decode(record events.KafkaRecord) (*route.Message, error) {
	if record.Value == "" {
		return nil, ErrEmptyPayload
	}

	b, err := base64.StdEncoding.DecodeString(record.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %w", ErrMalformedPayload, err)
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("%w: invalid utf-8", ErrMalformedPayload)
	}

	m, err := route.NewMessage(b)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrMalformedPayload, err)
	}
	return m, nil
}
