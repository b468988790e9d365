package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/isometry/clerk-user-sync/internal/controllers/aws"
	"github.com/isometry/clerk-user-sync/internal/helpers"
)

// ObjectPutter stores an object in a bucket.
type ObjectPutter interface {
	PutS3Object(ctx context.Context, bucket, key string, body []byte) error
}

type s3ArchiverProcessor struct {
	logger *slog.Logger
	putter ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3ArchiverProcessor returns the Processor that copies every verified delivery to S3.
// Archive failures are logged and never change the response.
func NewS3ArchiverProcessor(putter ObjectPutter, bucket, prefix string, opts ...Option) Processor {
	_inst := &s3ArchiverProcessor{
		putter: putter,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		logger: helpers.NewNoopLogger(),
	}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *s3ArchiverProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:s3-archiver")
}

func (p *s3ArchiverProcessor) Process(ctx context.Context, req any) (*Bus, error) {
	bus, err := busFrom(req)
	if err != nil {
		return nil, err
	}
	eventType := "unknown"
	if bus.Event != nil && bus.Event.Type != "" {
		eventType = bus.Event.Type
	}

	key := aws.ArchiveKey(p.prefix, eventType, bus.DeliveryID, p.now())
	if err = p.putter.PutS3Object(ctx, p.bucket, key, bus.Body); err != nil {
		p.logger.Warn("failed to archive delivery in S3", slog.String("key", key), slog.Any("error", err))
		return bus, nil
	}
	p.logger.Debug("archived delivery", slog.String("bucket", p.bucket), slog.String("key", key))
	return bus, nil
}
