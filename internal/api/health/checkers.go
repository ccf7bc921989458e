package health

import (
	"context"
	"errors"
)

// Pinger is implemented by the storage layer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageChecker reports whether the database answers a ping.
type StorageChecker struct {
	pinger Pinger
}

// NewStorageChecker creates a storage health checker.
func NewStorageChecker(p Pinger) *StorageChecker {
	return &StorageChecker{pinger: p}
}

func (c *StorageChecker) Name() string {
	return "sqlite"
}

func (c *StorageChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return errors.New("database not initialized")
	}
	return c.pinger.Ping(ctx)
}
