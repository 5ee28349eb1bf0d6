// Package export writes the waitlist out as CSV to object storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/waitlist/internal/logging"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/google/uuid"
)

var header = []string{"id", "email", "created_at", "confirmed", "confirmed_at"}

// Uploader is the subset of *s3.Client the exporter uses.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Source lists the waitlist.
type Source interface {
	ListWaitlistEmails(ctx context.Context) ([]*models.WaitlistEmail, error)
}

// snapshotter is implemented by stores that can read the count and rows
// consistently.
type snapshotter interface {
	Snapshot(ctx context.Context) (int64, []*models.WaitlistEmail, error)
}

type Result struct {
	Key  string
	Rows int
}

type Exporter struct {
	source   Source
	uploader Uploader
	bucket   string
	logger   logging.Logger
	now      func() time.Time
}

func NewExporter(source Source, uploader Uploader, bucket string, l logging.Logger) *Exporter {
	return &Exporter{
		source:   source,
		uploader: uploader,
		bucket:   bucket,
		logger:   l.With("module", "export"),
		now:      time.Now,
	}
}

// ObjectKey returns a fresh key under the day's prefix.
func ObjectKey(d time.Time) string {
	return fmt.Sprintf("waitlist/%04d/%02d/%02d/%v.csv", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Export uploads the current waitlist and reports where it went.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	entries, err := e.entries(ctx)
	if err != nil {
		return nil, err
	}

	body, err := renderCSV(entries)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	key := ObjectKey(e.now().UTC())
	_, err = e.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	e.logger.Info(ctx, "waitlist exported", "bucket", e.bucket, "key", key, "rows", len(entries))

	return &Result{Key: key, Rows: len(entries)}, nil
}

func (e *Exporter) entries(ctx context.Context) ([]*models.WaitlistEmail, error) {
	if s, ok := e.source.(snapshotter); ok {
		count, entries, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if int64(len(entries)) != count {
			return nil, fmt.Errorf("snapshot mismatch: count %d, rows %d", count, len(entries))
		}
		return entries, nil
	}
	return e.source.ListWaitlistEmails(ctx)
}

func renderCSV(entries []*models.WaitlistEmail) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		confirmedAt := ""
		if entry.ConfirmedAt != nil {
			confirmedAt = entry.ConfirmedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			entry.ID,
			entry.Email,
			entry.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(entry.Confirmed),
			confirmedAt,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
