package route

import (
	"errors"
	"fmt"
)

var ErrUndeterminedCategory = errors.New("route: undetermined category")

// Groups maps every category to its messages in arrival order.
type Groups map[Category][]*Message

func NewGroups() Groups {
	g := make(Groups, len(Categories))
	for _, c := range Categories {
		g[c] = []*Message{}
	}
	return g
}

// Len is the number of grouped messages across all categories.
func (g Groups) Len() int {
	n := 0
	for _, msgs := range g {
		n += len(msgs)
	}
	return n
}

// Rejected is a message that could not be placed in any group.
type Rejected struct {
	Message *Message
	Err     error
}

// Group classifies every message, writes the resolved category into its
// queueType field and appends it to that category's list. A nil classify
// uses Classify. The result always holds all three categories.
func Group(messages []*Message, classify Classifier) (Groups, []Rejected) {
	if classify == nil {
		classify = Classify
	}

	groups := NewGroups()
	var rejected []Rejected
	for _, m := range messages {
		c := classify(m)
		if !c.Valid() {
			rejected = append(rejected, Rejected{Message: m, Err: fmt.Errorf("%w: %s", ErrUndeterminedCategory, c)})
			continue
		}
		if err := m.resolve(c); err != nil {
			rejected = append(rejected, Rejected{Message: m, Err: fmt.Errorf("%w: %w", ErrUndeterminedCategory, err)})
			continue
		}
		groups[c] = append(groups[c], m)
	}
	return groups, rejected
}
