package domain

import "time"

// OutboxEvent is written in the same transaction as the order it
// announces, then published to the broker by a background poller.
type OutboxEvent struct {
	ID        string    `bson:"_id" json:"id"`
	OrderID   string    `bson:"order_id" json:"order_id"`
	Type      string    `bson:"type" json:"type"`
	Payload   []byte    `bson:"payload" json:"payload"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Processed bool      `bson:"processed" json:"processed"`
}

const EventTypeOrderPlaced = "order.placed"
