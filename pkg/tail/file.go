package tail

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// pollInterval is how long the follower sleeps at end of file before
// checking for new data, truncation, or rotation. Tests shorten it.
var pollInterval = 250 * time.Millisecond

// fileSource follows a file by name: it tolerates the file not
// existing yet, seeks to the end on the first open only, and reopens
// from the start after truncation, rotation, or recreation.
type fileSource struct {
	ch chan string
}

func newFileSource(ctx context.Context, path string, logger *slog.Logger) *fileSource {
	s := &fileSource{ch: make(chan string, 128)}
	go s.follow(ctx, path, logger)
	logger.Info("tailing file", "path", path)
	return s
}

func (s *fileSource) Lines() <-chan string { return s.ch }

func (s *fileSource) follow(ctx context.Context, path string, logger *slog.Logger) {
	defer close(s.ch)

	var (
		f       *os.File
		reader  *bufio.Reader
		pending string
		seekEnd = true
	)
	defer func() {
		if f != nil {
			f.Close()
		}
	}()

	// The backlog decision is made at subscription time, not at the
	// first successful open: a file that does not exist yet has no
	// pre-subscription content, so when it eventually appears it is
	// read from offset zero.
	if first, err := os.Open(path); err == nil {
		first.Seek(0, io.SeekEnd)
		seekEnd = false
		f = first
		reader = bufio.NewReader(f)
	} else if os.IsNotExist(err) {
		seekEnd = false
	}

	for {
		if ctx.Err() != nil {
			return
		}

		if f == nil {
			var err error
			f, err = os.Open(path)
			if err != nil {
				// Not there yet (or gone). Keep polling for it by name.
				if !sleep(ctx, pollInterval) {
					return
				}
				continue
			}
			if seekEnd {
				f.Seek(0, io.SeekEnd)
				seekEnd = false
			}
			reader = bufio.NewReader(f)
			pending = ""
		}

		line, err := reader.ReadString('\n')
		if err == nil {
			line = pending + line
			pending = ""
			select {
			case s.ch <- line:
			case <-ctx.Done():
				return
			}
			continue
		}

		// End of file: stash any partial line and wait for more data.
		pending += line
		if !sleep(ctx, pollInterval) {
			return
		}

		info, serr := f.Stat()
		if serr != nil {
			f.Close()
			f = nil
			continue
		}
		pos, _ := f.Seek(0, io.SeekCurrent)
		if info.Size() < pos {
			// Truncated in place: restart from the top.
			f.Seek(0, io.SeekStart)
			reader.Reset(f)
			pending = ""
			continue
		}

		// Rotated or recreated: the name now points at a different
		// file (or nothing). Reopen by name from the start.
		pathInfo, perr := os.Stat(path)
		if perr != nil || !os.SameFile(info, pathInfo) {
			logger.Info("file rotated", "path", path)
			f.Close()
			f = nil
		}
	}
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
