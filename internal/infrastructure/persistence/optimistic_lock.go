package persistence

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// storedVersion reads the current version of a row after a versioned update
// matched nothing. It returns -1 when the row is gone or cannot be read.
func storedVersion(tx *gorm.DB, model any, id uuid.UUID) int {
	var versions []int
	if err := tx.Model(model).Where("id = ?", id).Pluck("version", &versions).Error; err != nil {
		return -1
	}
	if len(versions) == 0 {
		return -1
	}
	return versions[0]
}
