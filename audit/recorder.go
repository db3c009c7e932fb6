package audit

import (
	"context"
	"time"

	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/NITHINKR06/e-voting-backend/storage"
	"github.com/google/uuid"
)

const appendTimeout = 5 * time.Second

// Recorder appends audit entries off the request path. Entries are handed
// to a single background drainer through a buffered channel; Record never
// blocks and persistence failures are logged, never surfaced.
type Recorder struct {
	logs    storage.AuditLogStorage
	entries chan *storage.AuditLogEntry
	done    chan struct{}
}

func NewRecorder(logs storage.AuditLogStorage, buffer int) *Recorder {
	r := &Recorder{
		logs:    logs,
		entries: make(chan *storage.AuditLogEntry, buffer),
		done:    make(chan struct{}),
	}
	go r.drain()
	return r
}

// Record enqueues an entry. When the buffer is full the entry is dropped
// with a warning: the recorder is observational and must never stall the
// request it is attached to.
func (r *Recorder) Record(entry *storage.AuditLogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	select {
	case r.entries <- entry:
	default:
		logging.Log.Warnf("AUDIT: buffer full, dropping entry for action %s", entry.Action)
	}
}

func (r *Recorder) drain() {
	for entry := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := r.logs.Append(ctx, entry); err != nil {
			logging.Log.Errorf("AUDIT: failed to append entry: %v", err)
		}
		cancel()
	}
	close(r.done)
}

// Close flushes buffered entries and stops the drainer. Record must not be
// called after Close.
func (r *Recorder) Close() {
	close(r.entries)
	<-r.done
}
