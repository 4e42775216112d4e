package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dchest/uniuri"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
	"ietool.dev/backend-next/internal/pkg/archiver"
	"ietool.dev/backend-next/internal/pkg/async"
	"ietool.dev/backend-next/internal/pkg/observability"
)

const archiveConcurrency = 4

type WeekLister interface {
	ListStudiesByWeek(ctx context.Context, week int) ([]*model.StudySummary, error)
}

type WorkbookRenderer interface {
	RenderStudy(ctx context.Context, studyID string) ([]byte, error)
}

type Archive struct {
	Bucket    string
	Prefix    string
	Store     archiver.ObjectStore
	Studies   WeekLister
	Workbooks WorkbookRenderer
	Locker    Locker
}

func NewArchive(conf *appconfig.Config, client *s3.Client, lineBalance *LineBalance, export *Export, locker *RedSyncLocker) *Archive {
	prefix := conf.ArchiveS3Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Archive{
		Bucket:    conf.ArchiveS3Bucket,
		Prefix:    prefix,
		Store:     client,
		Studies:   lineBalance,
		Workbooks: export,
		Locker:    locker,
	}
}

type ArchiveManifestEntry struct {
	RunID     string    `json:"runId"`
	StudyID   string    `json:"studyId"`
	StrDate   string    `json:"strDate"`
	LineID    string    `json:"lineId"`
	LineName  string    `json:"lineName"`
	LayoutID  string    `json:"layoutId"`
	TakeCount int       `json:"takeCount"`
	Key       string    `json:"key"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type ArchiveResult struct {
	RunID   string                  `json:"runId"`
	Year    int                     `json:"year"`
	Week    int                     `json:"week"`
	Entries []*ArchiveManifestEntry `json:"entries"`
}

// ArchiveWeek renders every study of an ISO week to a workbook and uploads
// them, followed by a manifest. A week is archived at most once.
func (s *Archive) ArchiveWeek(ctx context.Context, year, week int) (*ArchiveResult, error) {
	if week < 1 || week > 53 {
		return nil, apperr.ErrInvalidReq.Msg("week must be between 1 and 53, got %d", week)
	}

	unlock, err := s.Locker.Lock(ctx, fmt.Sprintf("%s%d:%d", constant.ArchiveMutexPrefix, year, week), time.Minute*10)
	if err != nil {
		return nil, err
	}
	defer unlock()

	started := time.Now()
	runID := strings.ToLower(uniuri.NewLen(12))
	logger := log.With().
		Str("evt.name", "linebalance.archive").
		Str("runId", runID).
		Int("year", year).
		Int("week", week).
		Logger()

	a := &archiver.Archiver{
		S3Client: s.Store,
		S3Bucket: s.Bucket,
		S3Prefix: s.Prefix,
	}
	if err := a.Prepare(ctx, year, week); err != nil {
		if errors.Is(err, archiver.ErrFileAlreadyExists) {
			return nil, apperr.ErrConflict.Msg("week %d of %d is already archived", week, year)
		}
		return nil, err
	}

	studies, err := s.Studies.ListStudiesByWeek(ctx, week)
	if err != nil {
		return nil, err
	}
	studies = lo.Filter(studies, func(study *model.StudySummary, _ int) bool {
		if inISOYear(study.StrDate, year) {
			return true
		}
		logger.Debug().Str("studyId", study.ID).Str("strDate", study.StrDate).Msg("skipping study outside the archived year")
		return false
	})
	logger.Info().Int("studies", len(studies)).Msg("archiving line balances")

	entries, err := async.Map(ctx, studies, archiveConcurrency, func(ctx context.Context, study *model.StudySummary) (*ArchiveManifestEntry, error) {
		book, err := s.Workbooks.RenderStudy(ctx, study.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to render study %s", study.ID)
		}
		key, err := a.PutWorkbook(ctx, study.ID, book)
		if err != nil {
			return nil, err
		}
		return &ArchiveManifestEntry{
			RunID:     runID,
			StudyID:   study.ID,
			StrDate:   study.StrDate,
			LineID:    study.LineID,
			LineName:  study.LineName,
			LayoutID:  study.LayoutID,
			TakeCount: study.TakeCount,
			Key:       key,
			Size:      len(book),
			CreatedAt: study.CreatedAt,
		}, nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("archive run failed before the manifest was written")
		return nil, err
	}

	if err := a.WriteManifest(ctx, lo.ToAnySlice(entries)); err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	observability.ArchiveDuration.Set(elapsed.Seconds())
	logger.Info().Dur("took", elapsed).Int("entries", len(entries)).Msg("line balances archived")

	return &ArchiveResult{
		RunID:   runID,
		Year:    year,
		Week:    week,
		Entries: entries,
	}, nil
}

// inISOYear reports whether strDate falls in the given ISO week-numbering year,
// which differs from the calendar year around New Year.
func inISOYear(strDate string, year int) bool {
	t, err := time.Parse(constant.DateLayout, strDate)
	if err != nil {
		return false
	}
	y, _ := t.ISOWeek()
	return y == year
}
