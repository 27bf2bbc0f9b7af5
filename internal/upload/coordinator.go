// Package upload validates and submits scan files and keeps the study and
// analysis collections current after a successful upload.
package upload

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/patientapi"
)

// DICOMExtension is the only accepted file suffix, compared case-sensitively
const DICOMExtension = ".dcm"

// User-facing messages
const (
	MsgNotDICOM            = "Please select a DICOM file (.dcm)"
	MsgUnknownDestination  = "Unknown upload destination"
	MsgNoFileContent       = "The selected file has no readable content"
	MsgUploadInProgress    = "An upload is already in progress"
	MsgUploadFailed        = "Failed to upload file"
	MsgUploadedDiagnocat   = "File uploaded and sent for AI analysis"
	MsgUploadedOrthanc     = "File uploaded to the image archive"
	MsgCollectionsOutdated = "Uploaded, but the lists could not be refreshed"
)

// Uploader sends a multipart upload
type Uploader interface {
	Upload(ctx context.Context, req patientapi.UploadRequest, onProgress patientapi.ProgressFunc) (*patientapi.UploadResponse, error)
}

// StudyLister reloads the study collection
type StudyLister interface {
	List(ctx context.Context) ([]model.Study, error)
}

// AnalysisLister reloads the analysis collection
type AnalysisLister interface {
	List(ctx context.Context) ([]model.Analysis, error)
}

// Recorder receives upload outcomes
type Recorder interface {
	RecordUpload(destination, outcome string, bytes int64, elapsed time.Duration)
}

// Upload outcomes passed to Recorder
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Result describes a finished upload
type Result struct {
	Destination model.Destination
	Message     string // server message
	Study       *model.Study
	Analysis    *model.Analysis
	// RefreshErr holds failures of the post-upload reload. The upload itself succeeded.
	RefreshErr error
}

// SuccessMessage is the user-facing summary, distinguished by destination
func (r Result) SuccessMessage() string {
	if r.Destination == model.DestinationOrthanc {
		return MsgUploadedOrthanc
	}
	return MsgUploadedDiagnocat
}

// Coordinator runs at most one upload at a time
type Coordinator struct {
	api      Uploader
	studies  StudyLister
	analyses AnalysisLister
	log      logger.Logger
	recorder Recorder

	sem       *semaphore.Weighted
	uploading atomic.Bool
	progress  atomic.Int32
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the coordinator logger
func WithLogger(log logger.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRecorder reports outcomes to r
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// NewCoordinator wires the uploader and the two collections it refreshes
func NewCoordinator(api Uploader, studies StudyLister, analyses AnalysisLister, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:      api,
		studies:  studies,
		analyses: analyses,
		log:      logger.NewDiscard(),
		sem:      semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Uploading reports whether a submission is in flight
func (c *Coordinator) Uploading() bool {
	return c.uploading.Load()
}

// Progress returns the last reported percentage of the running upload, 0 when idle
func (c *Coordinator) Progress() int {
	return int(c.progress.Load())
}

// Percent converts a transport tick into a whole percentage. It returns false when
// the total is unknown or zero, in which case no progress is reported.
func Percent(loaded int64, total patientapi.Total) (int, bool) {
	if !total.Known || total.Value <= 0 {
		return 0, false
	}
	p := loaded * 100 / total.Value
	return int(min(max(p, 0), 100)), true
}

// Submit validates file and uploads it to dest. Validation failures and a second
// concurrent submission return before any request. onProgress may be nil.
func (c *Coordinator) Submit(ctx context.Context, file File, dest model.Destination, onProgress func(percent int)) (Result, error) {
	if !strings.HasSuffix(file.Name, DICOMExtension) {
		c.record(dest, OutcomeRejected, 0, 0)
		return Result{}, errors.ValidationError(MsgNotDICOM)
	}
	if !dest.Valid() {
		c.record(dest, OutcomeRejected, 0, 0)
		return Result{}, errors.ValidationError(MsgUnknownDestination)
	}
	if file.Open == nil {
		c.record(dest, OutcomeRejected, 0, 0)
		return Result{}, errors.ValidationError(MsgNoFileContent)
	}

	if !c.sem.TryAcquire(1) {
		c.record(dest, OutcomeRejected, 0, 0)
		return Result{}, errors.ConflictError(MsgUploadInProgress)
	}
	var once sync.Once
	finish := func() {
		once.Do(func() {
			c.progress.Store(0)
			c.uploading.Store(false)
			c.sem.Release(1)
		})
	}
	defer finish()

	c.uploading.Store(true)
	c.progress.Store(0)

	log := c.log.With(
		logger.String("file", file.Name),
		logger.String("destination", string(dest)))

	body, err := file.Open()
	if err != nil {
		c.record(dest, OutcomeFailure, 0, 0)
		return Result{}, errors.New(err).
			Category(errors.CategoryFileIO).
			FileContext(file.Name, file.Size).
			Build()
	}
	defer body.Close()

	log.Info("upload started", logger.Int64("size", file.Size))
	start := time.Now()

	resp, err := c.api.Upload(ctx, patientapi.UploadRequest{
		FileName:    file.Name,
		Body:        body,
		Size:        file.Size,
		Destination: dest,
	}, func(loaded int64, total patientapi.Total) {
		p, ok := Percent(loaded, total)
		if !ok {
			return
		}
		c.progress.Store(int32(p))
		if onProgress != nil {
			onProgress(p)
		}
	})
	elapsed := time.Since(start)
	if err != nil {
		log.Warn("upload failed", logger.Duration("elapsed", elapsed), logger.Error(err))
		c.record(dest, OutcomeFailure, 0, elapsed)
		return Result{}, err
	}

	log.Info("upload finished", logger.Duration("elapsed", elapsed))
	c.record(dest, OutcomeSuccess, max(file.Size, 0), elapsed)
	finish()

	result := Result{
		Destination: dest,
		Message:     resp.Message,
		Study:       resp.Study,
		Analysis:    resp.Analysis,
		RefreshErr:  c.refreshCollections(ctx),
	}
	if result.RefreshErr != nil {
		log.Warn("collections not refreshed after upload", logger.Error(result.RefreshErr))
	}
	return result, nil
}

// refreshCollections reloads studies and analyses once each, concurrently
func (c *Coordinator) refreshCollections(ctx context.Context) error {
	var wg sync.WaitGroup
	var studiesErr, analysesErr error
	wg.Go(func() { _, studiesErr = c.studies.List(ctx) })
	wg.Go(func() { _, analysesErr = c.analyses.List(ctx) })
	wg.Wait()
	return errors.Join(studiesErr, analysesErr)
}

func (c *Coordinator) record(dest model.Destination, outcome string, bytes int64, elapsed time.Duration) {
	if c.recorder == nil {
		return
	}
	label := string(dest)
	if !dest.Valid() {
		label = "unknown"
	}
	c.recorder.RecordUpload(label, outcome, bytes, elapsed)
}
