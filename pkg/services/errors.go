// Package services is the business-logic layer behind the HTTP API:
// one service per domain area (reels, profiles, viral analysis),
// translating HTTP-facing requests into pkg/store and workflow-engine
// calls. Errors use the same models.KindedError taxonomy as pkg/store
// and pkg/fetchers rather than a parallel sentinel set, so pkg/api maps
// every layer's errors through the one models.KindOf switch.
package services

import (
	"fmt"

	"github.com/reelscope/pipeline/pkg/models"
)

// validationError builds a caller-facing ErrorKindValidation failure.
func validationError(field, reason string) error {
	return models.NewKindedError(models.ErrorKindValidation, fmt.Errorf("%s: %s", field, reason))
}
