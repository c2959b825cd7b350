package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidPeriod      = errors.New("invalid period key")
	ErrInvalidPercentage  = errors.New("percentage must be between 0 and 100")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyCategory      = errors.New("empty category")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")

	ErrNotFound         = errors.New("not found")
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
)

// Constraint violations reported to the user as {success:false, error}.
var (
	ErrCategoryHasHistory = &ConstraintViolation{
		Code:    "has_history",
		Message: "category is used by stored months and cannot be deleted",
	}
	ErrCategorySubcategoryValue = &ConstraintViolation{
		Code:    "has_subcategory_value",
		Message: "category has subcategories with values and cannot be deleted",
	}
	ErrCategoryHasSubcategories = &ConstraintViolation{
		Code:    "has_subcategories",
		Message: "category spend is derived from its subcategories",
	}
	ErrCategoryTracksInvestments = &ConstraintViolation{
		Code:    "tracks_investments",
		Message: "category spend is the month's investments",
	}
)

// ValidationError is a form-level rejection: a missing field, a non-positive
// amount or a malformed date.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConstraintViolation is a business rule that blocked an otherwise valid
// request. The state is left unchanged.
type ConstraintViolation struct {
	Code    string
	Message string
}

func (e *ConstraintViolation) Error() string {
	return e.Message
}
