package controllers

import (
	"errors"

	"github.com/questdeck/questdeck/internal/domain"
	"github.com/questdeck/questdeck/internal/persistence"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// httpError maps core errors onto HTTP statuses. Anything unmapped is
// logged and surfaced as a 500 without leaking internals.
func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrPathNotFound),
		errors.Is(err, domain.ErrBlobNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, persistence.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, domain.ErrInvalidParent):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionExists):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	log.Error().Err(err).Msg("Request failed")
	return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
}
