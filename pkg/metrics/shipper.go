package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modoterra/watchpost/pkg/backend"
)

// Shipper publishes table snapshots to the backend, the full metric
// set in one batched call per tick. A failed tick is reported whole;
// the next tick republishes current state.
type Shipper struct {
	table     *Table
	client    backend.Client
	namespace string
	logger    *slog.Logger
}

// NewShipper creates a shipper publishing under namespace.
func NewShipper(table *Table, client backend.Client, namespace string, logger *slog.Logger) *Shipper {
	return &Shipper{table: table, client: client, namespace: namespace, logger: logger}
}

// Publish snapshots the table and issues exactly one publish call.
func (s *Shipper) Publish(ctx context.Context) error {
	data := s.table.Snapshot()
	if err := s.client.PutMetricData(ctx, s.namespace, data); err != nil {
		return fmt.Errorf("publish %d metrics: %w", len(data), err)
	}
	s.logger.Debug("metrics published", "count", len(data), "namespace", s.namespace)
	return nil
}
