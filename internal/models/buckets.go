package models

// Excerpt is the query-relevant content pulled out of one document.
type Excerpt struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// TopicBuckets groups excerpts by topic. Topics are kept in first-insertion
// order and excerpts within a topic in insertion order. It is not safe for
// concurrent use; fan-out stages funnel results through a channel first.
type TopicBuckets struct {
	order []string
	items map[string][]Excerpt
}

// NewTopicBuckets returns an empty set of buckets.
func NewTopicBuckets() *TopicBuckets {
	return &TopicBuckets{items: make(map[string][]Excerpt)}
}

// Add appends an excerpt to the topic's bucket. An empty topic maps to DefaultTopic.
func (b *TopicBuckets) Add(topic string, e Excerpt) {
	if topic == "" {
		topic = DefaultTopic
	}
	if _, ok := b.items[topic]; !ok {
		b.order = append(b.order, topic)
	}
	b.items[topic] = append(b.items[topic], e)
}

// Topics lists topics in first-insertion order.
func (b *TopicBuckets) Topics() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Excerpts returns the excerpts recorded for topic.
func (b *TopicBuckets) Excerpts(topic string) []Excerpt {
	if b == nil {
		return nil
	}
	return b.items[topic]
}

// Len is the total number of excerpts across all topics.
func (b *TopicBuckets) Len() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, items := range b.items {
		n += len(items)
	}
	return n
}

// Empty reports whether no excerpt was recorded.
func (b *TopicBuckets) Empty() bool {
	return b.Len() == 0
}
