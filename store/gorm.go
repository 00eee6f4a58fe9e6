package store

import (
	"biometria/db"
	"biometria/models"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm stores enrollments in SQLite or MySQL.
type Gorm struct {
	db *gorm.DB
}

// NewGorm migrates the schema and returns a store over gdb.
func NewGorm(gdb *gorm.DB) (*Gorm, error) {
	if err := models.Init(gdb); err != nil {
		return nil, err
	}
	return &Gorm{db: gdb}, nil
}

func (s *Gorm) Upsert(ctx context.Context, rec *models.Enrollment) error {
	// Single statement: INSERT .. ON CONFLICT (sqlite) / ON DUPLICATE KEY (mysql)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "reference_photo", "descriptor", "enrolled_at"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.IdentityID, err)
	}
	return nil
}

func (s *Gorm) Get(ctx context.Context, identityID string) (*models.Enrollment, error) {
	var rec models.Enrollment
	err := s.db.WithContext(ctx).Where("identity_id = ?", identityID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", identityID, err)
	}
	return &rec, nil
}

func (s *Gorm) Delete(ctx context.Context, identityID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("identity_id = ?", identityID).Delete(&models.Enrollment{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", identityID, result.Error)
	}
	return result.RowsAffected, nil
}

func (s *Gorm) Snapshot(ctx context.Context) (records []models.Enrollment, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Order("identity_id").Find(&records).Error
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return records, nil
}

func (s *Gorm) Close() error {
	return db.Close(s.db)
}
