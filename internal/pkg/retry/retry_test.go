package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

var fast = Policy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestDo_RetriesInfrastructureErrors(t *testing.T) {
	attempts := 0
	notified := 0
	err := Do(context.Background(), fast, func() error {
		attempts++
		if attempts < 3 {
			return apperror.New(apperror.ErrCodeInfrastructure, "lock timeout")
		}
		return nil
	}, func(error, time.Duration) { notified++ })

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, notified)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fast, func() error {
		attempts++
		return apperror.New(apperror.ErrCodeInfrastructure, "connection refused")
	}, nil)

	assert.True(t, apperror.IsRetryable(err))
	assert.Equal(t, 4, attempts)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	attempts := 0
	boom := errors.New("bad input")
	err := Do(context.Background(), fast, func() error {
		attempts++
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}
