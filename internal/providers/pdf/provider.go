package pdf

import (
	"context"
	"io"
	"time"
)

// CommissionStatement is the printable view of a single commission ledger entry.
type CommissionStatement struct {
	PlatformName     string
	CommissionID     string
	BookingID        string
	ProviderID       string
	Amount           int64
	CollectionMethod string
	Status           string
	DueDate          time.Time
	CollectedAt      *time.Time
	Reference        string
	IssuedAt         time.Time
}

type Provider interface {
	GenerateCommissionStatement(ctx context.Context, data CommissionStatement) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateCommissionStatement(ctx context.Context, data CommissionStatement) (io.Reader, error) {
	return nil, ErrDisabled
}
