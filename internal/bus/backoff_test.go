package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Millisecond, Multiplier: 2, MaxRetries: 3}
	attempts := 0

	ack, err := WithRetry(context.Background(), cfg, func() (Ack, error) {
		attempts++
		if attempts < 3 {
			return Ack{}, assert.AnError
		}
		return Ack{Partition: 1}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, int32(1), ack.Partition)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Millisecond, Multiplier: 2, MaxRetries: 3}
	attempts := 0

	_, err := WithRetry(context.Background(), cfg, func() (Ack, error) {
		attempts++
		return Ack{}, assert.AnError
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "CLIENT_ABC-rec1", Key("CLIENT_ABC", "rec1"))
}
