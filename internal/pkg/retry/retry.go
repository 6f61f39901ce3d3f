package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// Policy задаёт экспоненциальную задержку между попытками.
type Policy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultPolicy(maxRetries uint64) Policy {
	return Policy{MaxRetries: maxRetries, InitialInterval: 200 * time.Millisecond, MaxInterval: 5 * time.Second}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)
}

// Do повторяет op, пока ошибка помечена как временная (INFRASTRUCTURE_ERROR).
// Остальные ошибки возвращаются сразу.
func Do(ctx context.Context, p Policy, op func() error, notify func(err error, next time.Duration)) error {
	wrapped := func() error {
		err := op()
		if err == nil || apperror.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.RetryNotify(wrapped, p.backOff(ctx), notify)
}
