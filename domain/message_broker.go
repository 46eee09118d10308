package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

const HelpRequestTopic = "help.requests"

// HelpRequestMessage announces a newly submitted help request to volunteers.
type HelpRequestMessage struct {
	ID        string    `json:"id"`
	UserName  string    `json:"user_name"`
	Location  string    `json:"location"`
	Landmark  string    `json:"landmark"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

const AccountVerifiedTopic = "account.verified"

// AccountVerifiedMessage announces that an account confirmed its email address.
type AccountVerifiedMessage struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}
