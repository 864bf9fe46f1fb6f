package services

import (
	"context"
	"testing"

	"crm-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCreateContractValidation(t *testing.T) {
	svc := NewAMSService(nil) // validation fails before the repository is touched
	ctx := context.Background()

	_, err := svc.CreateContract(ctx, 1, &models.CreateAMSRequest{
		Product: "Chiller", StartDate: "2025-01-01", EndDate: "2026-01-01",
	})
	assert.ErrorIs(t, err, ErrValidation) // missing customer

	_, err = svc.CreateContract(ctx, 1, &models.CreateAMSRequest{
		CustomerID: 1, StartDate: "2025-01-01", EndDate: "2026-01-01",
	})
	assert.ErrorIs(t, err, ErrValidation) // missing product

	_, err = svc.CreateContract(ctx, 1, &models.CreateAMSRequest{
		CustomerID: 1, Product: "Chiller", StartDate: "01/01/2025", EndDate: "2026-01-01",
	})
	assert.ErrorIs(t, err, ErrValidation) // bad date format

	_, err = svc.CreateContract(ctx, 1, &models.CreateAMSRequest{
		CustomerID: 1, Product: "Chiller", StartDate: "2026-01-01", EndDate: "2025-01-01",
	})
	assert.ErrorIs(t, err, ErrValidation) // end before start

	_, err = svc.UpdateContract(ctx, 1, &models.UpdateAMSRequest{})
	assert.ErrorIs(t, err, ErrValidation) // missing id

	bad := "paused"
	_, err = svc.UpdateContract(ctx, 1, &models.UpdateAMSRequest{ID: 1, Status: &bad})
	assert.ErrorIs(t, err, ErrValidation) // unknown status
}
