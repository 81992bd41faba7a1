package pubsub

import "fmt"

// Message is one message exchanged with the pub/sub service.
type Message struct {
	Data       []byte
	Attributes map[string]string
}

// Size returns the encoded size used for request-byte accounting:
// payload bytes plus attribute key/value bytes.
func (m Message) Size() int {
	n := len(m.Data)
	for k, v := range m.Attributes {
		n += len(k) + len(v)
	}
	return n
}

// ReceivedMessage is one pulled message together with the ack handle
// that redeems it. The handle is stable across redeliveries of the
// same unacknowledged message.
type ReceivedMessage struct {
	Message
	AckID string
}

// SubscriptionPath returns the fully qualified subscription resource name.
func SubscriptionPath(project, subscription string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", project, subscription)
}

// TopicPath returns the fully qualified topic resource name.
func TopicPath(project, topic string) string {
	return fmt.Sprintf("projects/%s/topics/%s", project, topic)
}
