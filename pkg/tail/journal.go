package tail

import (
	"bufio"
	"context"
	"log/slog"
	"os/exec"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalAvailable reports whether the host exposes a systemd journal
// worth subscribing to.
func JournalAvailable() bool {
	return journal.Enabled()
}

// journalSource subscribes to new journal entries only (no backlog
// replay) by following a long-lived journalctl process. When
// journalctl is missing or exits, the source ends without error and
// stops producing — the queue stays valid for leftover draining.
type journalSource struct {
	ch chan string
}

func newJournalSource(ctx context.Context, logger *slog.Logger) *journalSource {
	s := &journalSource{ch: make(chan string, 128)}

	cmd := exec.CommandContext(ctx, "journalctl", "-f", "-n", "0", "-o", "cat")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logger.Warn("journal pipe", "err", err)
		close(s.ch)
		return s
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("journalctl unavailable", "err", err)
		close(s.ch)
		return s
	}
	logger.Info("subscribed to journal", "pid", cmd.Process.Pid)

	go func() {
		defer close(s.ch)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case s.ch <- scanner.Text():
			case <-ctx.Done():
				cmd.Wait()
				return
			}
		}
		// journalctl exited; reap it so no orphan lingers.
		cmd.Wait()
	}()

	return s
}

func (s *journalSource) Lines() <-chan string { return s.ch }
