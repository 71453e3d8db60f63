package route

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMessage(t *testing.T, body string) *Message {
	t.Helper()
	m, err := NewMessage([]byte(body))
	require.NoError(t, err)
	return m
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Category
	}{
		{"existing queue type", `{"queueType":"LARGE","applicationCount":150}`, Large},
		{"small", `{"applicationCount":25}`, Small},
		{"medium", `{"applicationCount":100}`, Medium},
		{"large", `{"applicationCount":300}`, Large},
		{"boundary 50", `{"applicationCount":50}`, Small},
		{"boundary 51", `{"applicationCount":51}`, Medium},
		{"boundary 200", `{"applicationCount":200}`, Medium},
		{"boundary 201", `{"applicationCount":201}`, Large},
		{"fractional above 50", `{"applicationCount":50.5}`, Medium},
		{"fallback field", `{"NumberOfApplications":250}`, Large},
		{"primary field wins", `{"applicationCount":10,"NumberOfApplications":250}`, Small},
		{"no count", `{"productId":1}`, Small},
		{"unknown queue type", `{"queueType":"HUGE","applicationCount":120}`, Medium},
		{"lower-case queue type", `{"queueType":"large","applicationCount":1}`, Small},
		{"numeric string", `{"applicationCount":"75"}`, Medium},
		{"non-numeric string", `{"applicationCount":"many"}`, Small},
		{"boolean", `{"applicationCount":true}`, Small},
		{"null primary does not fall back", `{"applicationCount":null,"NumberOfApplications":500}`, Small},
		{"negative", `{"applicationCount":-4}`, Small},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(mustMessage(t, tt.body)))
		})
	}
}

func TestClassifyLadderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("count maps to exactly one tier", prop.ForAll(
		func(n int) bool {
			m, err := NewMessage([]byte(fmt.Sprintf(`{"applicationCount":%d}`, n)))
			if err != nil {
				return false
			}
			got := Classify(m)
			switch {
			case n <= 50:
				return got == Small
			case n <= 200:
				return got == Medium
			default:
				return got == Large
			}
		},
		gen.IntRange(0, 100000),
	))

	properties.Property("known queueType passes through", prop.ForAll(
		func(c Category, n int) bool {
			m, err := NewMessage([]byte(fmt.Sprintf(`{"queueType":%q,"applicationCount":%d}`, c, n)))
			if err != nil {
				return false
			}
			return Classify(m) == c
		},
		gen.OneConstOf(Small, Medium, Large),
		gen.IntRange(0, 100000),
	))

	properties.Property("non-finite counts are small", prop.ForAll(
		func(literal string) bool {
			m, err := NewMessage([]byte(literal))
			if err != nil {
				return false
			}
			return Classify(m) == Small
		},
		gen.OneConstOf(
			`{"applicationCount":"NaN"}`,
			`{"applicationCount":"nan"}`,
			`{"applicationCount":"Infinity"}`,
			`{"applicationCount":"+Inf"}`,
			`{"applicationCount":"-Inf"}`,
			`{"applicationCount":"1e400"}`,
			`{"applicationCount":1e400}`,
			`{"NumberOfApplications":"NaN"}`,
			`{"NumberOfApplications":1e999}`,
		),
	))

	properties.TestingRun(t)
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(c.String())
		assert.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := ParseCategory("UNKNOWN")
	assert.False(t, ok)
	assert.False(t, Category(0).Valid())
	assert.Equal(t, "", Category(9).Key())
}
