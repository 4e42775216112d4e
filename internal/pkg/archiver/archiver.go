package archiver

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	WorkbookExt     = ".xlsx"
	ManifestName    = "manifest.jsonl.gz"
	WorkbookContent = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ErrFileAlreadyExists = errors.New("file already exists")

// ObjectStore is the subset of the S3 API the archiver uses.
type ObjectStore interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver writes the workbooks of one ISO week under
// <S3Prefix><year>/week-<NN>/ and closes the week with a manifest.
type Archiver struct {
	S3Client ObjectStore
	S3Bucket string

	// S3Prefix has no leading slash and typically a trailing one, e.g. "linebalance/".
	S3Prefix string

	year   int
	week   int
	logger zerolog.Logger
}

func (a *Archiver) dir() string {
	return fmt.Sprintf("%s%d/week-%02d/", a.S3Prefix, a.year, a.week)
}

// Key returns the object key of name inside the prepared week.
func (a *Archiver) Key(name string) string {
	return a.dir() + name
}

// Prepare binds the archiver to a week and fails with ErrFileAlreadyExists
// when the week was archived before.
func (a *Archiver) Prepare(ctx context.Context, year, week int) error {
	a.year, a.week = year, week
	a.logger = log.With().
		Str("module", "archiver").
		Int("year", year).
		Int("week", week).
		Logger()

	a.logger.Info().Msg("preparing archiver")
	if err := a.assertNonExistence(ctx, a.Key(ManifestName)); err != nil {
		return errors.Wrap(err, "failed to assert manifest non-existence")
	}
	return nil
}

func (a *Archiver) assertNonExistence(ctx context.Context, key string) error {
	object, err := a.S3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "NotFound" {
			return nil
		}
		return errors.Wrap(err, "failed to invoke HeadObject")
	}
	return errors.Wrapf(ErrFileAlreadyExists, "file %q already exists in s3 with LastModified %q", key, aws.ToTime(object.LastModified))
}

// PutWorkbook uploads one rendered workbook named after studyID.
func (a *Archiver) PutWorkbook(ctx context.Context, studyID string, body []byte) (string, error) {
	key := a.Key(studyID + WorkbookExt)
	if _, err := a.S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(a.S3Bucket),
		Key:               aws.String(key),
		Body:              bytes.NewReader(body),
		ContentType:       aws.String(WorkbookContent),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
	}); err != nil {
		return "", errors.Wrapf(err, "failed to upload workbook %s", key)
	}
	a.logger.Trace().Str("key", key).Int("size", len(body)).Msg("uploaded workbook")
	return key, nil
}

// WriteManifest uploads entries as gzipped JSON lines. It is written last so
// its presence marks the week as archived.
func (a *Archiver) WriteManifest(ctx context.Context, entries []any) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return errors.Wrap(err, "failed to encode manifest entry")
		}
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "failed to flush manifest")
	}

	key := a.Key(ManifestName)
	if _, err := a.S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.S3Bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentEncoding: aws.String("gzip"),
		ContentType:     aws.String("application/x-ndjson"),
		Metadata: map[string]string{
			"entries": strconv.Itoa(len(entries)),
		},
	}); err != nil {
		return errors.Wrap(err, "failed to upload manifest")
	}
	a.logger.Info().Str("key", key).Int("entries", len(entries)).Msg("archive manifest written")
	return nil
}
