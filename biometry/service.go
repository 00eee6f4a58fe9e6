// Package biometry enrolls and verifies identities by their face.
package biometry

import (
	"biometria/backup"
	"biometria/faces"
	"biometria/matcher"
	"biometria/models"
	"biometria/processing"
	"biometria/store"
	"biometria/utils"
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Archiver writes a snapshot of all records somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, records []models.Enrollment) (*backup.Artifact, error)
}

type Service struct {
	store        store.Store
	extractor    faces.Extractor
	archiver     Archiver
	pool         *processing.Pool
	policy       matcher.Policy
	photoMaxSide uint
	logger       *slog.Logger
}

type Option func(*Service)

// WithPhotoMaxSide downsizes photos before extraction.
func WithPhotoMaxSide(side uint) Option {
	return func(s *Service) { s.photoMaxSide = side }
}

func New(st store.Store, extractor faces.Extractor, archiver Archiver, pool *processing.Pool, policy matcher.Policy, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:     st,
		extractor: extractor,
		archiver:  archiver,
		pool:      pool,
		policy:    policy,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// extract decodes the photo and runs the extractor on a pool worker. A
// photo without a face returns faces.ErrNoFace.
func (s *Service) extract(ctx context.Context, op, photo string) (*faces.Detection, error) {
	det, err := processing.Do(ctx, s.pool, op, func(ctx context.Context) (*faces.Detection, error) {
		jpeg, err := utils.DecodePhoto(photo, s.photoMaxSide)
		if err != nil {
			return nil, err
		}
		return s.extractor.Extract(ctx, jpeg)
	})
	switch {
	case err == nil:
		if len(det.Descriptor) == 0 {
			return nil, Internal("Descritor facial vazio.", nil)
		}
		return det, nil
	case errors.Is(err, faces.ErrNoFace):
		return nil, err
	case errors.Is(err, processing.ErrTimedOut):
		return nil, TimedOut("Tempo esgotado ao processar a foto.", err)
	case errors.Is(err, utils.ErrBadPhoto):
		return nil, Internal("Foto inválida.", err)
	default:
		return nil, Internal("Erro ao processar a foto.", err)
	}
}

func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	id := strings.TrimSpace(req.IdentityID)
	if id == "" || strings.TrimSpace(req.Photo) == "" {
		return nil, Validation("CPF e Foto são obrigatórios.")
	}

	det, err := s.extract(ctx, "enroll", req.Photo)
	if errors.Is(err, faces.ErrNoFace) {
		s.logger.Info("enroll: no face", "identity", id)
		return &EnrollResult{Outcome: NoFaceDetected, Hints: faces.Hints}, nil
	}
	if err != nil {
		return nil, err
	}

	rec := models.NewEnrollment(id, strings.TrimSpace(req.DisplayName), req.Photo, det.Descriptor)
	if err = s.store.Upsert(ctx, &rec); err != nil {
		return nil, Storage("Erro no banco de dados.", err)
	}
	s.logger.Info("enrolled", "identity", id, "score", det.Score, "dims", len(det.Descriptor))
	return &EnrollResult{Outcome: Enrolled, QualityScore: det.Score}, nil
}

// Verify compares a fresh photo with the stored descriptor. A non-match is
// a successful call with Decision.Match false.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	id := strings.TrimSpace(req.IdentityID)
	if id == "" || strings.TrimSpace(req.Photo) == "" {
		return nil, Validation("CPF e Foto são obrigatórios.")
	}

	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return &VerifyResult{Outcome: NoEnrollment}, nil
	}
	if err != nil {
		return nil, Storage("Erro no banco de dados.", err)
	}
	stored, err := rec.Embedding()
	if err != nil {
		return nil, Internal("Biometria armazenada ilegível.", err)
	}

	det, err := s.extract(ctx, "verify", req.Photo)
	if errors.Is(err, faces.ErrNoFace) {
		s.logger.Info("verify: no face", "identity", id)
		return &VerifyResult{Outcome: NoFaceDetected, Hints: faces.Hints}, nil
	}
	if err != nil {
		return nil, err
	}

	decision, err := s.policy.Compare(stored, det.Descriptor)
	if err != nil {
		return nil, Internal("Erro ao processar validação.", err)
	}
	s.logger.Info("verified", "identity", id, "match", decision.Match,
		"distance", decision.Distance, "similarity", decision.SimilarityPercent)
	return &VerifyResult{Outcome: Verified, Decision: decision}, nil
}

func (s *Service) Status(ctx context.Context, identityID string) (*StatusResult, error) {
	id := strings.TrimSpace(identityID)
	if id == "" {
		return nil, Validation("CPF é obrigatório.")
	}
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return &StatusResult{}, nil
	}
	if err != nil {
		return nil, Storage("Erro no banco de dados.", err)
	}
	return &StatusResult{Enrolled: true, EnrolledAt: rec.EnrolledAt, DisplayName: rec.DisplayName}, nil
}

// Delete removes the identity's record. Deleting an absent identity is
// not an error.
func (s *Service) Delete(ctx context.Context, identityID string) (*DeleteResult, error) {
	id := strings.TrimSpace(identityID)
	if id == "" {
		return nil, Validation("CPF é obrigatório.")
	}
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, Storage("Erro no banco de dados.", err)
	}
	if n > 0 {
		s.logger.Info("enrollment removed", "identity", id)
	}
	return &DeleteResult{Removed: n}, nil
}

func (s *Service) Backup(ctx context.Context) (*BackupResult, error) {
	if s.archiver == nil {
		return nil, Storage("Backup não configurado.", nil)
	}
	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, Storage("Erro no backup.", err)
	}
	art, err := s.archiver.Archive(ctx, records)
	if err != nil {
		return nil, Storage("Erro no backup.", err)
	}
	return &BackupResult{Artifact: art.Name, Location: art.Location, Records: art.Records}, nil
}
