package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/baghban/guardian/internal/app/models"
	appRepos "github.com/baghban/guardian/internal/app/repositories"
	"github.com/baghban/guardian/internal/pkg/apperrors"
	"github.com/baghban/guardian/internal/pkg/auth"
)

// CreateDefaultData seeds a demo farmer and a verified expert so a fresh
// install has accounts to exercise the consultation flow with. Existing rows
// are left alone.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)
	expertRepo := appRepos.NewExpertRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data (demo accounts)...")
	var finalErr error

	// --- Demo farmer --- //
	farmerPassword, err := auth.HashPassword("farmer123")
	if err != nil {
		return err
	}
	farmer := &appModels.User{
		Email:     "farmer@baghban.app",
		Password:  farmerPassword,
		FirstName: "Demo",
		LastName:  "Farmer",
		RoleType:  appModels.RoleFarmer,
		IsActive:  true,
	}
	if _, err := userRepo.Create(ctx, farmer); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		lgr.Error().Err(err).Msg("Error creating demo farmer")
		finalErr = errors.Join(finalErr, err)
	}

	// --- Demo expert with a verified profile --- //
	expertPassword, err := auth.HashPassword("expert123")
	if err != nil {
		return err
	}
	expertUser := &appModels.User{
		Email:     "expert@baghban.app",
		Password:  expertPassword,
		FirstName: "Demo",
		LastName:  "Expert",
		RoleType:  appModels.RoleExpert,
		IsActive:  true,
	}

	created, err := userRepo.Create(ctx, expertUser)
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Error().Err(err).Msg("Error creating demo expert account")
			finalErr = errors.Join(finalErr, err)
		} else if existing, errGet := userRepo.GetByEmail(ctx, expertUser.Email); errGet == nil {
			created = existing
		} else {
			lgr.Error().Err(errGet).Msg("Error loading existing demo expert account")
			finalErr = errors.Join(finalErr, errGet)
		}
	}

	if created != nil {
		profile := &appModels.Expert{
			UserID:    created.ID,
			Name:      "Dr. Demo Expert",
			Specialty: "Plant Pathology",
			Region:    "Punjab",
			Available: true,
			Verified:  true,
			Rating:    4.5,
		}
		if _, err := expertRepo.Create(ctx, profile); err != nil && !errors.Is(err, apperrors.ErrExpertAlreadyExists) {
			lgr.Error().Err(err).Msg("Error creating demo expert profile")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if finalErr == nil {
		lgr.Info().Msg("Default data check complete.")
	}
	return finalErr
}
