package bus

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"

	"triggerd/internal/message_broaker"
)

// RabbitMQPublisher adapts the teacher's message_broaker.MessageBroker
// (and its RabbitMQ implementation) to the Publisher contract. Kept as the
// alternate driver alongside Kafka, switchable the same way the teacher
// switches StorageDriver.
type RabbitMQPublisher struct {
	broker message_broaker.MessageBroker
	queue  string
	breaker *gobreaker.CircuitBreaker
	retry   RetryConfig
}

func NewRabbitMQPublisher(broker message_broaker.MessageBroker, queue string) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		broker:  broker,
		queue:   queue,
		breaker: NewBreaker("rabbitmq-publisher"),
		retry:   DefaultRetryConfig(),
	}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, key string, value []byte) (Ack, error) {
	if value == nil {
		return Ack{}, ErrNilRecord
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return WithRetry(ctx, p.retry, func() (Ack, error) {
			if err := p.broker.Publish(p.queue, key, value); err != nil {
				return Ack{}, err
			}
			return Ack{}, nil
		})
	})
	if err != nil {
		return Ack{}, errors.Wrap(err, "bus: rabbitmq publish")
	}
	return result.(Ack), nil
}

func (p *RabbitMQPublisher) Close() error {
	return p.broker.Close()
}
