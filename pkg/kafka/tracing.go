package kafka

import (
	"fmt"

	"github.com/segmentio/kafka-go"
)

// TopicPrefix is the common prefix for all topics published by this server.
const TopicPrefix = "travelbuddy"

// Topic builds a fully-qualified topic name from a domain and an action,
// e.g. Topic("joinrequest", "accepted") -> "travelbuddy.joinrequest.accepted".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}

// KafkaHeaderCarrier adapts a kafka.Header slice to the OpenTelemetry
// propagation.TextMapCarrier interface so W3C trace context can be injected
// into outgoing messages and extracted from incoming ones.
type KafkaHeaderCarrier struct {
	headers *[]kafka.Header
}

// NewHeaderCarrier wraps the given header slice in a carrier.
func NewHeaderCarrier(headers *[]kafka.Header) *KafkaHeaderCarrier {
	return &KafkaHeaderCarrier{headers: headers}
}

// Get returns the value of the header with the given key, or "".
func (c *KafkaHeaderCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Set stores a key-value pair, overwriting an existing header with the same key.
func (c *KafkaHeaderCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

// Keys lists the keys of all stored headers.
func (c *KafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
