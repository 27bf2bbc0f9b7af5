package upload

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/patientapi"
	"github.com/dentalscan/scanctl/internal/testutil"
)

type fakeUploader struct {
	calls atomic.Int32
	gate  chan struct{}
	ticks [][2]int64 // loaded, total; total < 0 means unknown
	resp  *patientapi.UploadResponse
	err   error

	mu   sync.Mutex
	last patientapi.UploadRequest
	body string
}

func (f *fakeUploader) Upload(ctx context.Context, req patientapi.UploadRequest, onProgress patientapi.ProgressFunc) (*patientapi.UploadResponse, error) {
	f.calls.Add(1)
	data, _ := io.ReadAll(req.Body)
	f.mu.Lock()
	f.last = req
	f.body = string(data)
	f.mu.Unlock()

	for _, tick := range f.ticks {
		total := patientapi.Total{Value: tick[1], Known: tick[1] >= 0}
		onProgress(tick[0], total)
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type countingLister[T any] struct {
	calls atomic.Int32
	err   error
}

func (l *countingLister[T]) List(context.Context) ([]T, error) {
	l.calls.Add(1)
	return nil, l.err
}

type recordedUpload struct {
	destination, outcome string
	bytes                int64
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedUpload
}

func (r *fakeRecorder) RecordUpload(destination, outcome string, bytes int64, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedUpload{destination, outcome, bytes})
}

func memFile(t *testing.T, name, content string) File {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/scans/"+name, []byte(content), 0o644))
	f, err := FromFS(fs, "/scans/"+name)
	require.NoError(t, err)
	return f
}

func newCoordinator(api Uploader) (*Coordinator, *countingLister[model.Study], *countingLister[model.Analysis]) {
	studies := &countingLister[model.Study]{}
	analyses := &countingLister[model.Analysis]{}
	return NewCoordinator(api, studies, analyses), studies, analyses
}

func TestPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		loaded int64
		total  patientapi.Total
		want   int
		ok     bool
	}{
		{"quarter", 50, patientapi.Total{Value: 200, Known: true}, 25, true},
		{"floor", 199, patientapi.Total{Value: 200, Known: true}, 99, true},
		{"complete", 200, patientapi.Total{Value: 200, Known: true}, 100, true},
		{"overshoot clamps", 300, patientapi.Total{Value: 200, Known: true}, 100, true},
		{"zero total", 10, patientapi.Total{Value: 0, Known: true}, 0, false},
		{"unknown total", 10, patientapi.Total{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Percent(tt.loaded, tt.total)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNonDICOMRejectedWithoutRequest(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"scan.txt", "scan.DCM", "scan.dcm.zip", "dcm"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			api := &fakeUploader{}
			c, studies, analyses := newCoordinator(api)

			var opened bool
			file := File{Name: name, Size: 1, Open: func() (io.ReadCloser, error) {
				opened = true
				return io.NopCloser(strings.NewReader("x")), nil
			}}

			_, err := c.Submit(t.Context(), file, model.DestinationDiagnocat, nil)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, MsgNotDICOM, errors.DisplayMessage(err, MsgUploadFailed))
			assert.False(t, opened)
			assert.Zero(t, api.calls.Load())
			assert.Zero(t, studies.calls.Load())
			assert.Zero(t, analyses.calls.Load())
		})
	}
}

func TestUnknownDestinationRejected(t *testing.T) {
	t.Parallel()

	api := &fakeUploader{}
	c, _, _ := newCoordinator(api)

	_, err := c.Submit(t.Context(), memFile(t, "scan.dcm", "x"), model.Destination("pacs"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, api.calls.Load())
}

func TestFileWithoutContentRejected(t *testing.T) {
	t.Parallel()

	api := &fakeUploader{}
	c, _, _ := newCoordinator(api)
	rec := &fakeRecorder{}
	c.recorder = rec

	_, err := c.Submit(t.Context(), File{Name: "scan.dcm", Size: 10}, model.DestinationOrthanc, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, MsgNoFileContent, errors.DisplayMessage(err, ""))
	assert.Zero(t, api.calls.Load())
	assert.Equal(t, []recordedUpload{{"orthanc", OutcomeRejected, 0}}, rec.records)
}

func TestSuccessfulUploadRefreshesBothCollections(t *testing.T) {
	t.Parallel()

	for _, dest := range []model.Destination{model.DestinationDiagnocat, model.DestinationOrthanc} {
		t.Run(string(dest), func(t *testing.T) {
			t.Parallel()

			api := &fakeUploader{
				ticks: [][2]int64{{50, 200}, {200, 200}},
				resp:  &patientapi.UploadResponse{Message: "ok", Study: &model.Study{ID: 3}},
			}
			c, studies, analyses := newCoordinator(api)
			rec := &fakeRecorder{}
			c.recorder = rec

			var seen []int
			result, err := c.Submit(t.Context(), memFile(t, "scan.dcm", "DICM"), dest, func(p int) {
				seen = append(seen, p)
			})
			require.NoError(t, err)

			assert.Equal(t, []int{25, 100}, seen)
			assert.Equal(t, int32(1), studies.calls.Load())
			assert.Equal(t, int32(1), analyses.calls.Load())
			assert.NoError(t, result.RefreshErr)
			assert.Equal(t, dest, result.Destination)
			assert.Equal(t, "ok", result.Message)
			assert.Zero(t, c.Progress())
			assert.False(t, c.Uploading())

			api.mu.Lock()
			assert.Equal(t, "DICM", api.body)
			assert.Equal(t, dest, api.last.Destination)
			assert.Equal(t, int64(4), api.last.Size)
			api.mu.Unlock()

			rec.mu.Lock()
			assert.Equal(t, []recordedUpload{{string(dest), OutcomeSuccess, 4}}, rec.records)
			rec.mu.Unlock()
		})
	}
}

func TestSuccessMessageByDestination(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MsgUploadedOrthanc, Result{Destination: model.DestinationOrthanc}.SuccessMessage())
	assert.Equal(t, MsgUploadedDiagnocat, Result{Destination: model.DestinationDiagnocat}.SuccessMessage())
}

func TestZeroTotalReportsNoProgress(t *testing.T) {
	t.Parallel()

	api := &fakeUploader{
		ticks: [][2]int64{{10, 0}, {10, -1}},
		resp:  &patientapi.UploadResponse{},
	}
	c, _, _ := newCoordinator(api)

	var calls int
	_, err := c.Submit(t.Context(), memFile(t, "scan.dcm", "x"), model.DestinationOrthanc, func(int) { calls++ })
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestFailedUploadDoesNotRefresh(t *testing.T) {
	t.Parallel()

	api := &fakeUploader{
		ticks: [][2]int64{{100, 200}},
		err:   errors.RequestError("POST", patientapi.PathUpload, 500, "Failed to upload to Orthanc"),
	}
	c, studies, analyses := newCoordinator(api)

	_, err := c.Submit(t.Context(), memFile(t, "scan.dcm", "x"), model.DestinationOrthanc, nil)
	require.Error(t, err)
	assert.Equal(t, "Failed to upload to Orthanc", errors.DisplayMessage(err, MsgUploadFailed))
	assert.Zero(t, studies.calls.Load())
	assert.Zero(t, analyses.calls.Load())
	assert.Zero(t, c.Progress())
	assert.False(t, c.Uploading())
}

func TestFailureWithoutServerTextUsesFallback(t *testing.T) {
	t.Parallel()

	api := &fakeUploader{err: errors.NetworkError(io.ErrUnexpectedEOF, "http://backend.test/api/patient/upload", 0)}
	c, _, _ := newCoordinator(api)

	_, err := c.Submit(t.Context(), memFile(t, "scan.dcm", "x"), model.DestinationDiagnocat, nil)
	require.Error(t, err)
	assert.Equal(t, MsgUploadFailed, errors.DisplayMessage(err, MsgUploadFailed))
}

func TestSecondSubmitRejectedWhileUploading(t *testing.T) {
	t.Parallel()

	api := &fakeUploader{
		gate:  make(chan struct{}),
		ticks: [][2]int64{{1, 2}},
		resp:  &patientapi.UploadResponse{},
	}
	c, _, _ := newCoordinator(api)

	first := memFile(t, "first.dcm", "x")
	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(t.Context(), first, model.DestinationDiagnocat, nil)
		done <- err
	}()

	require.Eventually(t, c.Uploading, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return c.Progress() == 50 }, time.Second, time.Millisecond)

	_, err := c.Submit(t.Context(), memFile(t, "second.dcm", "x"), model.DestinationDiagnocat, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	close(api.gate)
	require.NoError(t, testutil.ReceiveWithin[error](t, done, testutil.DefaultTestTimeout))
	assert.Equal(t, int32(1), api.calls.Load())
	assert.False(t, c.Uploading())
}

func TestRefreshFailureDoesNotFailUpload(t *testing.T) {
	t.Parallel()

	api := &fakeUploader{resp: &patientapi.UploadResponse{}}
	studies := &countingLister[model.Study]{err: errors.NewStd("studies down")}
	analyses := &countingLister[model.Analysis]{}
	c := NewCoordinator(api, studies, analyses)

	result, err := c.Submit(t.Context(), memFile(t, "scan.dcm", "x"), model.DestinationDiagnocat, nil)
	require.NoError(t, err)
	require.Error(t, result.RefreshErr)
	assert.Equal(t, int32(1), analyses.calls.Load())
}

func TestFromFS(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/scans/dir.dcm", 0o755))

	_, err := FromFS(fs, "/scans/missing.dcm")
	assert.Equal(t, errors.CategoryFileIO, errors.CategoryOf(err))

	_, err = FromFS(fs, "/scans/dir.dcm")
	assert.True(t, errors.IsValidation(err))

	f := memFile(t, "jaw.dcm", "12345")
	assert.Equal(t, "jaw.dcm", f.Name)
	assert.Equal(t, int64(5), f.Size)
	rc, err := f.Open()
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	assert.Equal(t, "12345", string(data))
}
