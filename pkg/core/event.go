package core

// LogEvent is a single log line observed by a tailer.
// TimestampMillis is the ingestion time; message content is never parsed.
type LogEvent struct {
	TimestampMillis int64  `json:"ts_unix_ms"`
	Message         string `json:"message"`
}
