package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reelscope/pipeline/pkg/models"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// classifyRowError turns a pgx.ErrNoRows into the domain NotFound kind
// and everything else into Fatal, tagging the entity/key for context.
func classifyRowError(err error, entity, key string) error {
	if isNoRows(err) {
		return fmt.Errorf("%s %q: %w", entity, key, models.NewKindedError(models.ErrorKindNotFound, models.ErrNotFound))
	}
	return fmt.Errorf("%s %q: %w", entity, key, models.NewKindedError(models.ErrorKindFatal, err))
}
