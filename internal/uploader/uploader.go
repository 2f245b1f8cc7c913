// Package uploader implements the client-side batch upload pipeline:
// per-file validation, fixed-size batching, sequential dispatch through a
// Transport, and aggregation of results into a single observable State.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/rules"
)

// ErrSuperseded is returned by a run that was abandoned because a newer run
// (or a Reset) took ownership of the state.
var ErrSuperseded = errors.New("upload run superseded")

// ErrNoFilesAccepted is returned when validation rejects every candidate.
var ErrNoFilesAccepted = errors.New("no files accepted for upload")

// Uploader owns the orchestration state and drives upload runs. All state
// writes go through the uploader itself; callers observe via State() or
// Subscribe(). A run token gives single-writer discipline: state mutations
// are applied only while their run is still the current one.
type Uploader struct {
	mu        sync.RWMutex
	transport Transport
	rules     *rules.Rules
	opts      Options

	state   State
	run     uint64
	subs    map[uint64]chan State
	nextSub uint64
}

// New creates an uploader. A nil rule set falls back to the defaults.
func New(t Transport, r *rules.Rules, opts Options) *Uploader {
	if r == nil {
		r = rules.Default()
	}
	return &Uploader{
		transport: t,
		rules:     r,
		opts:      opts,
		subs:      make(map[uint64]chan State),
	}
}

// State returns a snapshot of the current orchestration state.
func (u *Uploader) State() State {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.state.clone()
}

// Subscribe registers an observer. Every state change is delivered as a
// snapshot on the returned channel; slow observers miss intermediate
// snapshots rather than blocking the uploader. The returned func cancels
// the subscription.
func (u *Uploader) Subscribe() (<-chan State, func()) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id := u.nextSub
	u.nextSub++
	ch := make(chan State, 16)
	u.subs[id] = ch

	cancel := func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		if sub, ok := u.subs[id]; ok {
			delete(u.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// UploadSingleFile runs the pipeline for one candidate.
func (u *Uploader) UploadSingleFile(ctx context.Context, c Candidate) error {
	return u.UploadFiles(ctx, []Candidate{c})
}

// UploadFiles validates, batches, and uploads the given candidates. It
// returns nil when every batch succeeded (validation rejections alone do
// not fail a run that still uploaded something).
func (u *Uploader) UploadFiles(ctx context.Context, candidates []Candidate) error {
	token := u.beginRun()

	accepted, rejections := validateAll(candidates, u.rules)
	if len(rejections) > 0 {
		if !u.mutate(token, func(s *State) {
			s.Errors = append(s.Errors, rejections...)
		}) {
			return ErrSuperseded
		}
		u.fireError(strings.Join(rejections, "; "))
	}

	if len(accepted) == 0 {
		return ErrNoFilesAccepted
	}

	ceiling := u.opts.MaxFiles
	if ceiling == 0 {
		ceiling = u.rules.MaxFiles
	}
	if ceiling > 0 && len(accepted) > ceiling {
		msg := fmt.Sprintf("Maximum %d files allowed", ceiling)
		if !u.mutate(token, func(s *State) {
			s.Errors = append(s.Errors, msg)
		}) {
			return ErrSuperseded
		}
		u.fireError(msg)
		return errors.New(msg)
	}

	if !u.mutate(token, func(s *State) {
		s.Busy = true
		s.Progress = 0
	}) {
		return ErrSuperseded
	}
	// Cleanup runs on every exit path of the dispatch loop.
	defer u.mutate(token, func(s *State) {
		s.Busy = false
		s.Progress = 0
	})

	return u.dispatch(ctx, token, accepted)
}

// dispatch drives the batches sequentially, one transport call per batch.
func (u *Uploader) dispatch(ctx context.Context, token uint64, accepted []Candidate) error {
	batches := batchCandidates(accepted, u.rules.BatchSize)
	uploaded := make([]*models.UploadedFile, 0, len(accepted))
	meta := u.opts.meta()

	fmt.Printf("[Uploader] run %d: %d files in %d batches\n", token, len(accepted), len(batches))

	for i, batch := range batches {
		// Cooperative cancellation point, once per batch.
		if err := ctx.Err(); err != nil {
			msg := fmt.Sprintf("upload canceled: %v", err)
			if u.mutate(token, func(s *State) {
				s.Errors = append(s.Errors, msg)
			}) {
				u.fireError(msg)
			}
			return err
		}

		files, err := u.uploadBatch(ctx, batch, meta)
		if err != nil {
			// The whole run is abandoned: the accumulator is discarded,
			// including batches that already uploaded. reconcile is the
			// single place that would merge them.
			msg := fmt.Sprintf("upload failed: %v", err)
			if u.mutate(token, func(s *State) {
				s.Errors = append(s.Errors, msg)
			}) {
				u.fireError(msg)
			}
			fmt.Printf("[Uploader] run %d: batch %d/%d failed: %v\n", token, i+1, len(batches), err)
			return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}

		uploaded = append(uploaded, files...)
		percent := (i + 1) * 100 / len(batches)
		if !u.mutate(token, func(s *State) {
			s.Progress = percent
		}) {
			return ErrSuperseded
		}
		u.fireProgress(percent)
	}

	if !u.reconcile(token, uploaded) {
		return ErrSuperseded
	}
	u.fireSuccess(uploaded)
	fmt.Printf("[Uploader] run %d: complete, %d files uploaded\n", token, len(uploaded))
	return nil
}

// uploadBatch selects the transport endpoint matching the batch shape.
func (u *Uploader) uploadBatch(ctx context.Context, batch []Candidate, meta models.UploadMeta) ([]*models.UploadedFile, error) {
	if len(batch) == 1 {
		f, err := u.transport.UploadFile(ctx, batch[0], meta)
		if err != nil {
			return nil, err
		}
		return []*models.UploadedFile{f}, nil
	}
	return u.transport.UploadFiles(ctx, batch, meta)
}

// reconcile merges a finished run's accumulator into the visible state.
// It is called only after every batch succeeded; switching to
// merge-as-you-go would mean calling it once per batch instead.
func (u *Uploader) reconcile(token uint64, files []*models.UploadedFile) bool {
	return u.mutate(token, func(s *State) {
		s.UploadedFiles = append(s.UploadedFiles, files...)
		s.Progress = 100
	})
}

// ClearErrors empties only the error list.
func (u *Uploader) ClearErrors() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state.Errors = nil
	u.notifyLocked()
}

// Reset returns the state fully to idle and abandons any in-flight run.
func (u *Uploader) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.run++
	u.state = State{}
	u.notifyLocked()
}

// SetDragOver toggles the cosmetic hover flag. It has no effect on upload
// correctness.
func (u *Uploader) SetDragOver(over bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state.DragOver = over
	u.notifyLocked()
}

// beginRun takes ownership of the state, superseding any in-flight run.
func (u *Uploader) beginRun() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.run++
	return u.run
}

// mutate applies fn to the state if the token still owns it. Returns false
// when the run has been superseded.
func (u *Uploader) mutate(token uint64, fn func(*State)) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.run != token {
		return false
	}
	fn(&u.state)
	u.notifyLocked()
	return true
}

// notifyLocked pushes a snapshot to all subscribers. Callers hold u.mu.
func (u *Uploader) notifyLocked() {
	snapshot := u.state.clone()
	for _, ch := range u.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (u *Uploader) fireError(msg string) {
	if u.opts.OnError != nil {
		u.opts.OnError(msg)
	}
}

func (u *Uploader) fireProgress(percent int) {
	if u.opts.OnProgress != nil {
		u.opts.OnProgress(percent)
	}
}

func (u *Uploader) fireSuccess(files []*models.UploadedFile) {
	if u.opts.OnSuccess != nil {
		u.opts.OnSuccess(files)
	}
}
