package report

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chainpulse/chainpulse/internal/core/domain"
)

// Journal appends one structured line per evaluation run to a process-wide
// log file. The file is created on first write; rotation is an external
// collaborator's concern. Appends are serialized so overlapping scheduled
// runs never interleave lines.
type Journal struct {
	mu   sync.Mutex
	path string
}

// NewJournal creates a journal writing to the given path.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Append writes the run line `<ISO8601> <overall> failed=<names|none>`.
// The file handle is scoped to one append and closed on every exit path.
func (j *Journal) Append(report *domain.HealthReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	line := fmt.Sprintf("%s %s failed=%s\n",
		report.FinishedAt.UTC().Format(time.RFC3339), report.Overall, report.FailedList())
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append journal: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
