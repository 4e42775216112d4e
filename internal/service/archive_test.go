package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
)

type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memBucket) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[aws.ToString(in.Key)]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
	}
	return &s3.HeadObjectOutput{LastModified: aws.Time(time.Now())}, nil
}

func (m *memBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

type stubWeek []*model.StudySummary

func (s stubWeek) ListStudiesByWeek(ctx context.Context, week int) ([]*model.StudySummary, error) {
	return s, nil
}

type stubRenderer struct {
	failOn string
}

func (r stubRenderer) RenderStudy(ctx context.Context, studyID string) ([]byte, error) {
	if studyID == r.failOn {
		return nil, apperr.ErrNotFound
	}
	return []byte("workbook of " + studyID), nil
}

func TestArchiveWeek(t *testing.T) {
	bucket := &memBucket{objects: map[string][]byte{}}
	locker := &fakeLocker{}
	s := &Archive{
		Bucket: "archive",
		Prefix: "linebalances/",
		Store:  bucket,
		Studies: stubWeek{
			{ID: "lb-1", StrDate: "2023-06-14", LineName: "Line A", TakeCount: 2},
			{ID: "lb-2", StrDate: "2023-06-15", LineName: "Line B", TakeCount: 1},
		},
		Workbooks: stubRenderer{},
		Locker:    locker,
	}
	ctx := context.Background()

	result, err := s.ArchiveWeek(ctx, 2023, 24)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "linebalances/2023/week-24/lb-1.xlsx", result.Entries[0].Key)
	assert.Equal(t, []byte("workbook of lb-2"), bucket.objects["linebalances/2023/week-24/lb-2.xlsx"])
	assert.Equal(t, []string{constant.ArchiveMutexPrefix + "2023:24"}, locker.keys)

	gz, err := gzip.NewReader(bytes.NewReader(bucket.objects["linebalances/2023/week-24/manifest.jsonl.gz"]))
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "Line B", gjson.GetBytes(lines[1], "lineName").String())
	assert.Equal(t, result.RunID, gjson.GetBytes(lines[0], "runId").String())
	assert.EqualValues(t, 2, gjson.GetBytes(lines[0], "takeCount").Int())

	_, err = s.ArchiveWeek(ctx, 2023, 24)
	assert.True(t, apperr.Is(err, apperr.ErrConflict), "got %v", err)
}

func TestArchiveWeekLeavesNoManifestOnFailure(t *testing.T) {
	bucket := &memBucket{objects: map[string][]byte{}}
	s := &Archive{
		Bucket:    "archive",
		Prefix:    "linebalances/",
		Store:     bucket,
		Studies:   stubWeek{{ID: "lb-1", StrDate: "2023-06-12"}, {ID: "lb-2", StrDate: "2023-06-18"}},
		Workbooks: stubRenderer{failOn: "lb-2"},
		Locker:    &fakeLocker{},
	}

	_, err := s.ArchiveWeek(context.Background(), 2023, 24)
	assert.Error(t, err)
	assert.NotContains(t, bucket.objects, "linebalances/2023/week-24/manifest.jsonl.gz")

	_, err = s.ArchiveWeek(context.Background(), 2023, 60)
	assert.True(t, apperr.Is(err, apperr.ErrInvalidReq))
}

func TestArchiveWeekKeepsOnlyStudiesOfTheYear(t *testing.T) {
	bucket := &memBucket{objects: map[string][]byte{}}
	s := &Archive{
		Bucket: "archive",
		Prefix: "linebalances/",
		Store:  bucket,
		Studies: stubWeek{
			{ID: "lb-2022", StrDate: "2022-06-15"},
			{ID: "lb-2023", StrDate: "2023-06-14"},
			// ISO week 52 of 2022 although the calendar year is 2023
			{ID: "lb-newyear", StrDate: "2023-01-01"},
		},
		Workbooks: stubRenderer{},
		Locker:    &fakeLocker{},
	}

	result, err := s.ArchiveWeek(context.Background(), 2023, 24)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "lb-2023", result.Entries[0].StudyID)
	assert.Equal(t, "linebalances/2023/week-24/lb-2023.xlsx", result.Entries[0].Key)
	assert.NotContains(t, bucket.objects, "linebalances/2023/week-24/lb-2022.xlsx")
	assert.NotContains(t, bucket.objects, "linebalances/2023/week-24/lb-newyear.xlsx")
}

func TestArchiveWeekWithOnlyOtherYearsArchivesNothing(t *testing.T) {
	bucket := &memBucket{objects: map[string][]byte{}}
	s := &Archive{
		Bucket:    "archive",
		Prefix:    "linebalances/",
		Store:     bucket,
		Studies:   stubWeek{{ID: "lb-2022", StrDate: "2022-06-15"}},
		Workbooks: stubRenderer{},
		Locker:    &fakeLocker{},
	}

	result, err := s.ArchiveWeek(context.Background(), 2023, 24)
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.NotContains(t, bucket.objects, "linebalances/2023/week-24/lb-2022.xlsx")
}
