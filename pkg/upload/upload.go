// Package upload sends files to the Bot API and turns the response into a
// retrieval handle.
package upload

import (
	"context"
	"errors"
	"time"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/internal/telemetry"
	"github.com/marmos91/telebox/pkg/record"
	"github.com/marmos91/telebox/pkg/telegram"
)

// ErrNoFile is returned when the request carried no file.
var ErrNoFile = errors.New("No file uploaded")

// File is one uploaded payload.
type File struct {
	Name     string
	MimeType string
	Content  []byte
}

// Result is a successful upload.
type Result struct {
	Handle string
	Src    string
}

// Metrics observes uploads. A nil Metrics is valid.
type Metrics interface {
	ObserveAttempt(method, outcome string)
	ObserveUpload(method, status string, d time.Duration)
}

// Options carries the pipeline's optional collaborators.
type Options struct {
	// Sleeper waits between network retries. Defaults to ContextSleeper.
	Sleeper Sleeper

	Metrics Metrics

	// Now stamps new records. Defaults to time.Now.
	Now func() time.Time
}

// Pipeline uploads files. The store may be nil, in which case no record is
// written.
type Pipeline struct {
	sender  Sender
	store   record.Store
	sleeper Sleeper
	metrics Metrics
	now     func() time.Time
}

// NewPipeline creates a pipeline sending through sender.
func NewPipeline(sender Sender, store record.Store, opts Options) *Pipeline {
	p := &Pipeline{
		sender:  sender,
		store:   store,
		sleeper: opts.Sleeper,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if p.sleeper == nil {
		p.sleeper = ContextSleeper
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Upload sends f, derives its handle and records it. Record store failures
// are logged and do not fail the upload.
func (p *Pipeline) Upload(ctx context.Context, f *File) (*Result, error) {
	if f == nil {
		return nil, ErrNoFile
	}
	start := time.Now()

	name := f.Name
	if name == "" {
		name = DefaultFileName
	}
	method := SelectMethod(f.MimeType)

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanUpload)
	defer span.End()
	telemetry.SetAttributes(ctx,
		telemetry.Method(method.String()),
		telemetry.MimeType(f.MimeType),
		telemetry.Size(int64(len(f.Content))),
	)

	res, final, err := p.submit(ctx, method, name, f.Content)
	if err == nil {
		var fileID string
		fileID, err = telegram.ExtractFileID(res.Response)
		if err == nil {
			handle := BuildHandle(fileID, Extension(name))
			p.save(ctx, handle, name, f)
			p.observe(final, "success", start)

			logger.InfoCtx(ctx, "Upload accepted",
				logger.Handle(handle), logger.Method(final.String()), logger.KeySize, len(f.Content), logger.DurationMs(start))
			telemetry.SetAttributes(ctx, telemetry.Handle(handle))
			return &Result{Handle: handle, Src: Src(handle)}, nil
		}
	}

	telemetry.RecordError(ctx, err)
	p.observe(final, "failure", start)
	logger.ErrorCtx(ctx, "Upload failed", logger.Method(final.String()), logger.KeyFilename, name, logger.Err(err))
	return nil, err
}

func (p *Pipeline) save(ctx context.Context, handle, name string, f *File) {
	if p.store == nil {
		return
	}
	mime := f.MimeType
	if mime == "" {
		mime = record.DefaultMimeType
	}
	rec := &record.FileRecord{
		ListType:  record.ListNone,
		Label:     record.LabelNone,
		TimeStamp: p.now().UnixMilli(),
		FileName:  name,
		FileSize:  int64(len(f.Content)),
		MimeType:  mime,
	}
	if err := p.store.Put(ctx, handle, rec); err != nil {
		logger.WarnCtx(ctx, "Failed to save upload record", logger.Handle(handle), logger.Err(err))
	}
}

func (p *Pipeline) observe(method telegram.Method, status string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveUpload(method.String(), status, time.Since(start))
	}
}
