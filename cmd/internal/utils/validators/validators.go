package validators

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// IsIso8601 accepts RFC3339 timestamps such as "2025-06-15T10:00:00Z".
func IsIso8601(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fl.Field().String())
	return err == nil
}

// IsRating accepts a rating on the 0..5 scale.
func IsRating(fl validator.FieldLevel) bool {
	r := fl.Field().Float()
	return r >= 0 && r <= 5
}
