package store

import (
	"context"
	"fmt"

	"github.com/reelscope/pipeline/pkg/models"
)

// IntegrityReport is the outcome of VerifyIntegrity.
type IntegrityReport struct {
	Success        bool
	PrimaryPresent bool
	ContentCount   int
	SecondaryCount int
	Warnings       []string
	Errors         []string
}

// VerifyIntegrity checks that a dual-write landed the expected row
// counts for username/ownerID.
func (s *Store) VerifyIntegrity(ctx context.Context, ownerID int64, expectedContent, expectedSecondary int, username string) (*IntegrityReport, error) {
	report := &IntegrityReport{Success: true}

	present, err := s.PrimaryExists(ctx, username)
	if err != nil {
		return nil, err
	}
	report.PrimaryPresent = present
	if !present {
		report.Success = false
		report.Errors = append(report.Errors, fmt.Sprintf("primary profile %s does not exist", username))
		return report, nil
	}

	contentCount, err := s.ContentCountForOwner(ctx, username)
	if err != nil {
		return nil, err
	}
	report.ContentCount = contentCount

	switch {
	case contentCount == expectedContent:
		// success
	case expectedContent > 0 && contentCount == 0:
		report.Success = false
		report.Errors = append(report.Errors, fmt.Sprintf("expected %d content rows, found 0", expectedContent))
	case contentCount >= minAcceptanceThreshold(expectedContent):
		report.Warnings = append(report.Warnings, fmt.Sprintf("expected %d content rows, found %d (within acceptance threshold)", expectedContent, contentCount))
	default:
		report.Success = false
		report.Errors = append(report.Errors, fmt.Sprintf("expected %d content rows, found %d (below acceptance threshold)", expectedContent, contentCount))
	}

	secondaryCount, err := s.SecondaryCountFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	report.SecondaryCount = secondaryCount

	if expectedSecondary == 0 && secondaryCount > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("expected 0 secondary profiles, found %d (residue from a previous run)", secondaryCount))
	} else if secondaryCount != expectedSecondary && expectedSecondary > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("expected %d secondary profiles, found %d", expectedSecondary, secondaryCount))
	}

	return report, nil
}

// Rollback deletes SecondaryProfile, then Content, then PrimaryProfile
// rows for the given owner, in that order. Idempotent.
func (s *Store) Rollback(ctx context.Context, ownerID int64, username string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rollback tx: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	defer tx.Rollback(ctx)

	normalized := models.NormalizeUsername(username)

	if _, err := tx.Exec(ctx, `DELETE FROM secondary_profiles WHERE discovered_by = $1`, ownerID); err != nil {
		return fmt.Errorf("rollback secondary profiles: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM content WHERE profile_owner = $1`, normalized); err != nil {
		return fmt.Errorf("rollback content: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM primary_profiles WHERE username = $1`, normalized); err != nil {
		return fmt.Errorf("rollback primary profile: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rollback tx: %w", models.NewKindedError(models.ErrorKindFatal, err))
	}
	return nil
}
