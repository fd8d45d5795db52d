package gormrepo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicate also matches raw driver messages for dialects without error translation.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
