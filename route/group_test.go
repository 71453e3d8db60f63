package route

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestGroupMixedMessages(t *testing.T) {
	msgs := []*Message{
		mustMessage(t, `{"productId":1,"applicationCount":25}`),
		mustMessage(t, `{"productId":2,"applicationCount":100}`),
		mustMessage(t, `{"productId":3,"applicationCount":300}`),
	}

	groups, rejected := Group(msgs, nil)
	require.Empty(t, rejected)
	require.Len(t, groups, 3)

	for _, c := range Categories {
		require.Len(t, groups[c], 1)
		m := groups[c][0]
		assert.Equal(t, c.String(), gjson.GetBytes(m.Body(), FieldQueueType).String())
		got, ok := m.Category()
		assert.True(t, ok)
		assert.Equal(t, c, got)
	}
}

func TestGroupEmpty(t *testing.T) {
	groups, rejected := Group(nil, nil)
	assert.Empty(t, rejected)
	require.Len(t, groups, 3)
	for _, c := range Categories {
		assert.NotNil(t, groups[c])
		assert.Empty(t, groups[c])
	}
}

func TestGroupOverwritesUnknownQueueType(t *testing.T) {
	m := mustMessage(t, `{"queueType":"whatever","applicationCount":500,"extra":{"a":1}}`)
	groups, _ := Group([]*Message{m}, nil)
	require.Len(t, groups[Large], 1)
	assert.JSONEq(t, `{"queueType":"LARGE","applicationCount":500,"extra":{"a":1}}`, string(m.Body()))
}

func TestGroupRejectsUndetermined(t *testing.T) {
	msgs := []*Message{
		mustMessage(t, `{"applicationCount":1}`),
		mustMessage(t, `{"applicationCount":2}`),
	}
	calls := 0
	classify := func(m *Message) Category {
		calls++
		if calls == 2 {
			return 0
		}
		return Classify(m)
	}

	groups, rejected := Group(msgs, classify)
	assert.Equal(t, 1, groups.Len())
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0].Err, ErrUndeterminedCategory)
	_, ok := rejected[0].Message.Category()
	assert.False(t, ok)
}

func TestGroupPartitionProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("three keys whose lengths sum to n", prop.ForAll(
		func(counts []int) bool {
			msgs := make([]*Message, 0, len(counts))
			for _, n := range counts {
				m, err := NewMessage([]byte(fmt.Sprintf(`{"applicationCount":%d}`, n)))
				if err != nil {
					return false
				}
				msgs = append(msgs, m)
			}
			groups, rejected := Group(msgs, nil)
			return len(groups) == 3 && len(rejected) == 0 && groups.Len() == len(counts)
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
