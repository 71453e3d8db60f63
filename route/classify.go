package route

// Classifier resolves the category for a message.
type Classifier func(*Message) Category

// Classify returns the producer-supplied queueType when it names a known
// category, otherwise it places the application count on the threshold
// ladder. It never fails.
func Classify(m *Message) Category {
	if qt, ok := m.QueueType(); ok {
		if c, ok := ParseCategory(qt); ok {
			return c
		}
	}
	n, _ := m.ApplicationCount()
	return ForCount(n)
}
