// Package backend defines the telemetry backend operations the agent
// consumes and an HTTP implementation of them.
package backend

import (
	"context"
	"errors"

	"github.com/modoterra/watchpost/pkg/core"
)

// Unit labels a metric datum's value.
type Unit string

const (
	UnitPercent        Unit = "Percent"
	UnitCount          Unit = "Count"
	UnitBytes          Unit = "Bytes"
	UnitBytesPerSecond Unit = "Bytes/Second"
	UnitCountPerSecond Unit = "Count/Second"
)

// Datum is one metric value to publish.
type Datum struct {
	Name       string            `json:"name"`
	Unit       Unit              `json:"unit"`
	Value      float64           `json:"value"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

// StreamInfo describes an existing log stream and its current
// upload sequence token (nil when the stream has no entries yet).
type StreamInfo struct {
	StreamName          string  `json:"stream_name"`
	UploadSequenceToken *string `json:"upload_sequence_token,omitempty"`
}

// ErrTokenMismatch is returned when an append carried a sequence token
// the backend no longer expects. The caller must re-seed the token
// before the next append can succeed.
var ErrTokenMismatch = errors.New("sequence token mismatch")

// Client is the set of backend operations the agent consumes.
// Create calls are idempotent: a pre-existing group or stream is not
// an error.
type Client interface {
	PutMetricData(ctx context.Context, namespace string, data []Datum) error
	CreateLogGroup(ctx context.Context, group string) error
	CreateLogStream(ctx context.Context, group, stream string) error
	DescribeLogStreams(ctx context.Context, group string, limit int) ([]StreamInfo, error)
	// PutLogEvents appends events in order under the given token and
	// returns the token required for the next append.
	PutLogEvents(ctx context.Context, group, stream string, token *string, events []core.LogEvent) (string, error)
}

// SessionRefresher is implemented by clients whose credentials expire.
type SessionRefresher interface {
	RefreshSession(ctx context.Context) error
}
