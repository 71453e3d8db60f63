package route

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	FieldQueueType        = "queueType"
	FieldApplicationCount = "applicationCount"
	FieldNumberOfApps     = "NumberOfApplications"
	FieldProductID        = "productId"

	// UnknownProductID is sent when a message carries no product id.
	UnknownProductID = "unknown"
)

var ErrNotObject = errors.New("route: message is not a JSON object")

// Message is one decoded record. The body is kept as raw JSON so that
// fields the router does not know about pass through untouched.
type Message struct {
	body     []byte
	category Category
}

// NewMessage wraps body, which must be a JSON object.
func NewMessage(body []byte) (*Message, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("route: invalid JSON")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, ErrNotObject
	}
	return &Message{body: body}, nil
}

func (m *Message) Body() []byte { return m.body }

// Category reports the category resolved by Group, if any.
func (m *Message) Category() (Category, bool) {
	return m.category, m.category.Valid()
}

// QueueType returns the queueType field as sent by the producer.
func (m *Message) QueueType() (string, bool) {
	r := gjson.GetBytes(m.body, FieldQueueType)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// ApplicationCount reads applicationCount, falling back to
// NumberOfApplications. The second result is false when the value had to be
// coerced to 0.
func (m *Message) ApplicationCount() (float64, bool) {
	r := gjson.GetBytes(m.body, FieldApplicationCount)
	if !r.Exists() {
		r = gjson.GetBytes(m.body, FieldNumberOfApps)
	}
	if !r.Exists() {
		return 0, true
	}
	return coerceCount(r)
}

// ProductID returns the product identifier as text, or UnknownProductID.
func (m *Message) ProductID() string {
	r := gjson.GetBytes(m.body, FieldProductID)
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number, gjson.True, gjson.False, gjson.JSON:
		return r.Raw
	default:
		return UnknownProductID
	}
}

func (m *Message) resolve(c Category) error {
	if m.category.Valid() {
		if m.category != c {
			return fmt.Errorf("route: category already resolved to %s", m.category)
		}
		return nil
	}
	body, err := sjson.SetBytes(m.body, FieldQueueType, c.String())
	if err != nil {
		return fmt.Errorf("route: set %s: %w", FieldQueueType, err)
	}
	m.body = body
	m.category = c
	return nil
}

// coerceCount only accepts finite numbers. NaN, infinities and out of range
// literals, given as numbers or strings, count as 0.
func coerceCount(r gjson.Result) (float64, bool) {
	var n float64
	switch r.Type {
	case gjson.Number:
		n = r.Num
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		n = v
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
