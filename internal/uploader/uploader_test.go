package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/rules"
)

// fakeTransport records calls and can be told to fail at a given call.
type fakeTransport struct {
	mu          sync.Mutex
	singleCalls int
	multiCalls  int
	calls       int
	failOnCall  int           // 1-based call index to fail at, 0 = never
	block       chan struct{} // when non-nil, calls wait here before returning
}

func (f *fakeTransport) UploadFile(ctx context.Context, c Candidate, meta models.UploadMeta) (*models.UploadedFile, error) {
	files, err := f.record(ctx, []Candidate{c}, meta, true)
	if err != nil {
		return nil, err
	}
	return files[0], nil
}

func (f *fakeTransport) UploadFiles(ctx context.Context, cs []Candidate, meta models.UploadMeta) ([]*models.UploadedFile, error) {
	return f.record(ctx, cs, meta, false)
}

func (f *fakeTransport) record(ctx context.Context, cs []Candidate, meta models.UploadMeta, single bool) ([]*models.UploadedFile, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	if single {
		f.singleCalls++
	} else {
		f.multiCalls++
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.failOnCall != 0 && call == f.failOnCall {
		return nil, errors.New("server unavailable")
	}

	files := make([]*models.UploadedFile, len(cs))
	for i, c := range cs {
		files[i] = &models.UploadedFile{
			ID:       fmt.Sprintf("id-%s", c.Name),
			Name:     c.Name,
			Size:     int64(len(c.Data)),
			Category: meta.Category,
		}
	}
	return files, nil
}

func (f *fakeTransport) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testRules() *rules.Rules {
	return &rules.Rules{MaxFileSize: 1024, MaxFiles: 100, BatchSize: 5}
}

func TestUploadFiles_Success(t *testing.T) {
	var (
		progress  []int
		successes int
		got       []*models.UploadedFile
	)
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{
		Category: "docs",
		OnSuccess: func(files []*models.UploadedFile) {
			successes++
			got = files
		},
		OnProgress: func(p int) { progress = append(progress, p) },
	})

	input := makeCandidates(12) // 3 batches of 5, 5, 2
	require.NoError(t, u.UploadFiles(context.Background(), input))

	// One call per batch, all through the multi endpoint.
	assert.Equal(t, 3, ft.multiCalls)
	assert.Equal(t, 0, ft.singleCalls)

	// Progress fires once per batch, non-decreasing, ending at 100.
	assert.Equal(t, []int{33, 66, 100}, progress)

	assert.Equal(t, 1, successes)
	require.Len(t, got, 12)
	for i, f := range got {
		assert.Equal(t, input[i].Name, f.Name, "order preserved at %d", i)
		assert.Equal(t, "docs", f.Category)
	}

	st := u.State()
	assert.False(t, st.Busy)
	assert.Equal(t, 0, st.Progress) // cleanup resets progress after the run
	assert.Len(t, st.UploadedFiles, 12)
	assert.Empty(t, st.Errors)
}

func TestUploadFiles_SingleBatchJumpsToHundred(t *testing.T) {
	var progress []int
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{
		Category:   "docs",
		OnProgress: func(p int) { progress = append(progress, p) },
	})

	require.NoError(t, u.UploadFiles(context.Background(), makeCandidates(5)))
	assert.Equal(t, []int{100}, progress)
}

func TestUploadSingleFile_UsesSingleEndpoint(t *testing.T) {
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{Category: "docs"})

	c := Candidate{Name: "one.txt", ContentType: "text/plain", Data: []byte("x")}
	require.NoError(t, u.UploadSingleFile(context.Background(), c))

	assert.Equal(t, 1, ft.singleCalls)
	assert.Equal(t, 0, ft.multiCalls)
	require.Len(t, u.State().UploadedFiles, 1)
	assert.Equal(t, "one.txt", u.State().UploadedFiles[0].Name)
}

func TestUploadFiles_MixedValidInvalid(t *testing.T) {
	var errMsgs []string
	var got []*models.UploadedFile
	ft := &fakeTransport{}
	r := testRules()
	r.MaxFileSize = 10
	u := New(ft, r, Options{
		Category:  "docs",
		OnSuccess: func(files []*models.UploadedFile) { got = files },
		OnError:   func(msg string) { errMsgs = append(errMsgs, msg) },
	})

	input := []Candidate{
		{Name: "a.txt", Data: []byte("ok")},
		{Name: "b.txt", Data: make([]byte, 11)},
	}
	require.NoError(t, u.UploadFiles(context.Background(), input))

	// One validation error recorded, one batch of [a.txt] dispatched.
	assert.Equal(t, []string{"b.txt: file exceeds 10 bytes"}, u.State().Errors)
	assert.Equal(t, []string{"b.txt: file exceeds 10 bytes"}, errMsgs)
	assert.Equal(t, 1, ft.totalCalls())
	require.Len(t, got, 1)
	assert.Equal(t, "a.txt", got[0].Name)
	assert.Len(t, u.State().UploadedFiles, 1)
}

func TestUploadFiles_AllRejected(t *testing.T) {
	ft := &fakeTransport{}
	r := testRules()
	r.AllowedExtensions = []string{".txt"}
	u := New(ft, r, Options{Category: "docs"})

	err := u.UploadFiles(context.Background(), []Candidate{
		{Name: "a.exe", Data: []byte("x")},
	})
	assert.ErrorIs(t, err, ErrNoFilesAccepted)
	assert.Equal(t, 0, ft.totalCalls())
	assert.Equal(t, []string{"a.exe: file type not allowed"}, u.State().Errors)
}

func TestUploadFiles_CeilingAbortsBeforeDispatch(t *testing.T) {
	var errMsgs []string
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{
		Category: "docs",
		MaxFiles: 2,
		OnError:  func(msg string) { errMsgs = append(errMsgs, msg) },
	})

	err := u.UploadFiles(context.Background(), makeCandidates(3))
	require.Error(t, err)

	assert.Equal(t, 0, ft.totalCalls(), "no transport call may happen")
	assert.Equal(t, []string{"Maximum 2 files allowed"}, errMsgs)
	st := u.State()
	assert.Equal(t, []string{"Maximum 2 files allowed"}, st.Errors)
	assert.False(t, st.Busy)
	assert.Empty(t, st.UploadedFiles)
}

func TestUploadFiles_CeilingFromRules(t *testing.T) {
	ft := &fakeTransport{}
	r := testRules()
	r.MaxFiles = 1
	u := New(ft, r, Options{Category: "docs"})

	err := u.UploadFiles(context.Background(), makeCandidates(2))
	require.Error(t, err)
	assert.Equal(t, []string{"Maximum 1 files allowed"}, u.State().Errors)
	assert.Equal(t, 0, ft.totalCalls())
}

func TestUploadFiles_MidRunFailureDiscardsEarlierBatches(t *testing.T) {
	var errMsgs []string
	successes := 0
	ft := &fakeTransport{failOnCall: 2}
	u := New(ft, testRules(), Options{
		Category:  "docs",
		OnSuccess: func([]*models.UploadedFile) { successes++ },
		OnError:   func(msg string) { errMsgs = append(errMsgs, msg) },
	})

	err := u.UploadFiles(context.Background(), makeCandidates(12)) // 3 batches
	require.Error(t, err)

	// Batch 1 uploaded server-side, but its files are not exposed: the
	// run-local accumulator is discarded when a later batch fails.
	st := u.State()
	assert.Empty(t, st.UploadedFiles)
	assert.Equal(t, 1, len(st.Errors))
	assert.Contains(t, st.Errors[0], "server unavailable")
	assert.Equal(t, 1, len(errMsgs))
	assert.Equal(t, 0, successes)
	assert.False(t, st.Busy)
	assert.Equal(t, 0, st.Progress)

	// No batch after the failing one was attempted.
	assert.Equal(t, 2, ft.totalCalls())
}

func TestUploadFiles_ResultsCumulativeAcrossRuns(t *testing.T) {
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{Category: "docs"})

	require.NoError(t, u.UploadFiles(context.Background(), makeCandidates(2)))
	require.NoError(t, u.UploadFiles(context.Background(), makeCandidates(3)))

	assert.Len(t, u.State().UploadedFiles, 5)
}

func TestUploadFiles_ContextCanceled(t *testing.T) {
	var errMsgs []string
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{
		Category: "docs",
		OnError:  func(msg string) { errMsgs = append(errMsgs, msg) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := u.UploadFiles(ctx, makeCandidates(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ft.totalCalls())
	require.Len(t, errMsgs, 1)
	assert.Contains(t, errMsgs[0], "upload canceled")
	assert.Empty(t, u.State().UploadedFiles)
}

func TestReset(t *testing.T) {
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{Category: "docs"})

	require.NoError(t, u.UploadFiles(context.Background(), makeCandidates(2)))
	u.SetDragOver(true)

	u.Reset()

	assert.Equal(t, State{}, u.State())
}

func TestClearErrors(t *testing.T) {
	ft := &fakeTransport{}
	r := testRules()
	r.AllowedExtensions = []string{".txt"}
	u := New(ft, r, Options{Category: "docs"})

	require.NoError(t, u.UploadFiles(context.Background(), []Candidate{
		{Name: "ok.txt", Data: []byte("x")},
		{Name: "bad.exe", Data: []byte("x")},
	}))
	require.NotEmpty(t, u.State().Errors)
	require.Len(t, u.State().UploadedFiles, 1)

	u.ClearErrors()

	st := u.State()
	assert.Empty(t, st.Errors)
	assert.Len(t, st.UploadedFiles, 1, "uploaded files untouched")
	assert.Equal(t, 0, st.Progress)
}

func TestReset_SupersedesInFlightRun(t *testing.T) {
	block := make(chan struct{})
	ft := &fakeTransport{block: block}
	u := New(ft, testRules(), Options{Category: "docs"})

	done := make(chan error, 1)
	go func() {
		done <- u.UploadFiles(context.Background(), makeCandidates(2))
	}()

	// Wait for the run to reach the transport call, then pull the rug.
	require.Eventually(t, func() bool { return ft.totalCalls() == 1 },
		time.Second, time.Millisecond)
	u.Reset()
	close(block)

	err := <-done
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, State{}, u.State(), "superseded run must not touch state")
}

func TestSubscribe(t *testing.T) {
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{Category: "docs"})

	ch, cancel := u.Subscribe()
	defer cancel()

	u.SetDragOver(true)

	select {
	case st := <-ch:
		assert.True(t, st.DragOver)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	ft := &fakeTransport{}
	u := New(ft, testRules(), Options{Category: "docs"})

	ch, cancel := u.Subscribe()
	cancel()

	u.SetDragOver(true)

	_, open := <-ch
	assert.False(t, open, "channel closed after cancel")
}
