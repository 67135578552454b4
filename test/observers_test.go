package test

import (
	"errors"
	"sync"

	"github.com/jwhan-dev/robofleet/core/notify"
)

type recordingObserver struct {
	mu   sync.Mutex
	recv []notify.Snapshot
}

func (r *recordingObserver) Send(s notify.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recv = append(r.recv, s)
	return nil
}

func (r *recordingObserver) snapshots() []notify.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Snapshot, len(r.recv))
	copy(out, r.recv)
	return out
}

type failingObserver struct{}

func (failingObserver) Send(notify.Snapshot) error {
	return errors.New("observer gone")
}
