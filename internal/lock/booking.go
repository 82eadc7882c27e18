package lock

import (
	"context"
	"fmt"
	"time"
)

const keyBookingComplete = "booking:complete:%s"

// BookingLocker guards the completion pipeline of a single booking.
type BookingLocker interface {
	AcquireCompletion(ctx context.Context, bookingID string) (release func(), acquired bool, err error)
}

type bookingLocker struct {
	locker *Locker
	ttl    time.Duration
}

func NewBookingLocker(locker *Locker, ttl time.Duration) BookingLocker {
	if locker == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &bookingLocker{locker: locker, ttl: ttl}
}

func (b *bookingLocker) AcquireCompletion(ctx context.Context, bookingID string) (func(), bool, error) {
	key := fmt.Sprintf(keyBookingComplete, bookingID)
	token, ok, err := b.locker.TryLock(ctx, key, b.ttl)
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		_ = b.locker.Release(context.WithoutCancel(ctx), key, token)
	}, true, nil
}
