package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trimly/booking-api/pkg/jobs"
	"github.com/trimly/booking-api/pkg/storage"
)

type daySheetArchivePayload struct {
	SpecialistID string
	Date         string
}

// ArchiveService keeps on-disk CSV copies of specialist day sheets. Sheets
// are re-rendered in the background whenever a booking touches a specialist's
// day, and retrieved later through signed tokens.
type ArchiveService struct {
	sheets     *DaySheetService
	store      *storage.LocalStorage
	signer     *storage.SignedURLSigner
	queue      *jobs.Queue
	logger     *zap.Logger
	fileTTL    time.Duration
	sweepEvery time.Duration
}

// ArchiveConfig tunes the day sheet archive. A non-positive SweepInterval
// disables the retention sweep.
type ArchiveConfig struct {
	Workers       int
	FileTTL       time.Duration
	SweepInterval time.Duration
}

// NewArchiveService wires the archive and its worker queue. Start must be
// called before enqueueing.
func NewArchiveService(sheets *DaySheetService, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, cfg ArchiveConfig) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ArchiveService{
		sheets:     sheets,
		store:      store,
		signer:     signer,
		logger:     logger,
		fileTTL:    cfg.FileTTL,
		sweepEvery: cfg.SweepInterval,
	}
	s.queue = jobs.NewQueue("day-sheet-archive", s.handleArchiveJob, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the archive workers and, when a sweep interval is
// configured, a goroutine that purges expired sheets periodically.
func (s *ArchiveService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.sweepEvery <= 0 {
		return
	}
	ticker := time.NewTicker(s.sweepEvery)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *ArchiveService) sweep() {
	deleted, err := s.Cleanup()
	if err != nil {
		s.logger.Warn("day sheet archive sweep failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("day sheet archive swept", zap.Int("deleted", len(deleted)))
	}
}

// Stop drains the archive workers.
func (s *ArchiveService) Stop() {
	s.queue.Stop()
}

// EnqueueRefresh schedules a re-render of each specialist's sheet for the
// date. Failures are logged, never surfaced to the booking flow.
func (s *ArchiveService) EnqueueRefresh(date string, specialistIDs []string) {
	for _, specialistID := range specialistIDs {
		job := jobs.Job{
			ID:   uuid.NewString(),
			Type: "day_sheet_refresh",
			Payload: daySheetArchivePayload{
				SpecialistID: specialistID,
				Date:         date,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue day sheet refresh",
				zap.String("specialist_id", specialistID), zap.String("date", date), zap.Error(err))
		}
	}
}

func (s *ArchiveService) handleArchiveJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(daySheetArchivePayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	export, err := s.sheets.Export(ctx, payload.SpecialistID, payload.Date, DaySheetFormatCSV)
	if err != nil {
		return fmt.Errorf("render day sheet %s/%s: %w", payload.SpecialistID, payload.Date, err)
	}
	relPath := archivePath(payload.SpecialistID, payload.Date)
	if _, err := s.store.SaveStream(relPath, bytes.NewReader(export.Content)); err != nil {
		return fmt.Errorf("store day sheet %s: %w", relPath, err)
	}
	s.logger.Debug("day sheet archived",
		zap.String("specialist_id", payload.SpecialistID), zap.String("date", payload.Date),
		zap.String("path", s.store.Path(relPath)))
	return nil
}

// SignedLink returns a download token for a specialist's archived sheet.
func (s *ArchiveService) SignedLink(specialistID, date string) (string, time.Time, error) {
	return s.signer.Generate(uuid.NewString(), archivePath(specialistID, date))
}

// Open validates a token and streams the archived file.
func (s *ArchiveService) Open(token string) (io.ReadCloser, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", err
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", err
	}
	return file, path.Base(relPath), nil
}

// Cleanup removes archived sheets older than the configured TTL.
func (s *ArchiveService) Cleanup() ([]string, error) {
	if s.fileTTL <= 0 {
		return nil, nil
	}
	return s.store.CleanupOlderThan(s.fileTTL)
}

func archivePath(specialistID, date string) string {
	return path.Join(date, fmt.Sprintf("day-sheet-%s.csv", specialistID))
}
