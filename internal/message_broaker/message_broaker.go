package message_broaker

import "context"

// MessageBroker is a generic pub/sub transport. Publish carries an explicit
// routing key alongside the payload — RabbitMQ has no native partition key
// the way Kafka does, so implementations must thread key through as a
// message property so downstream consumers can still group by it.
type MessageBroker interface {
	Publish(queue, key string, message []byte) error
	Consume(ctx context.Context, queue string) (<-chan []byte, error)
	Close() error
}
