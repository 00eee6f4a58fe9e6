package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Init creates or updates the schema.
func Init(db *gorm.DB) error {
	if err := db.AutoMigrate(&Enrollment{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
