// services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Workflow error taxonomy. Handlers map these to HTTP statuses; everything
// else surfaces as a 500. Mail transport failures are never in this list;
// they are recorded on the entity, not returned to callers.
var (
	ErrNotFound                     = errors.New("record not found")
	ErrAlreadyReviewed              = errors.New("already reviewed")
	ErrDuplicateEmail               = errors.New("email already registered")
	ErrUnionNotFound                = errors.New("union not found")
	ErrCompetitionNotEligible       = errors.New("competition is not open for registration")
	ErrPlayerNotInUnion             = errors.New("player does not belong to the submitting union")
	ErrDuplicatePendingRegistration = errors.New("a pending registration already exists for this competition")
	ErrValidation                   = errors.New("validation failed")
	ErrImmutableField               = errors.New("field cannot be changed")
)

// validationErr wraps ErrValidation with a field-level message so that
// errors.Is(err, ErrValidation) still matches.
func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// respondErr translates a workflow error into the JSON error body with the
// right status code.
func respondErr(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnionNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrDuplicateEmail), errors.Is(err, ErrDuplicatePendingRegistration), errors.Is(err, ErrAlreadyReviewed):
		status = fiber.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrImmutableField),
		errors.Is(err, ErrCompetitionNotEligible), errors.Is(err, ErrPlayerNotInUnion):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
