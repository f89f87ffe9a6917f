// Package bus implements the Publisher contract (C8): single-record
// publish with retry and idempotent producer semantics, behind a circuit
// breaker. Two drivers are wired — Kafka (the primary, matching the
// topic/partition/acks vocabulary of spec §6) and RabbitMQ (the teacher's
// own driver, kept as an alternate) — selected by config the same way the
// teacher switches StorageDriver.
package bus

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrNilRecord is the InvalidArgument taxonomy entry: a null record is a
// programming error, not a retryable failure.
var ErrNilRecord = errors.New("bus: record value is nil")

// Ack confirms a record was accepted by the bus.
type Ack struct {
	Partition int32
	Offset    int64
}

// Publisher exposes publish(record) -> promise<Ack> per spec §4.8. Message
// key is always tenant_id + "-" + record_id, computed by the caller and
// passed in explicitly so drivers stay dumb about the domain.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) (Ack, error)
	Close() error
}

// Driver selects which Publisher implementation the container wires up.
type Driver string

const (
	DriverKafka    Driver = "kafka"
	DriverRabbitMQ Driver = "rabbitmq"
)

// Key builds the spec-mandated message key.
func Key(tenantID, recordID string) string {
	return tenantID + "-" + recordID
}
