package handlers

import (
	"errors"
	"net/http"

	"corpvox/internal/lifecycle"
	"corpvox/internal/repositories/interfaces"
	"corpvox/internal/services"
	"corpvox/internal/utils"
	"corpvox/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondServiceError translates service and lifecycle errors into the
// response envelope. Unrecognized errors become an opaque 500; their
// detail goes to the log, not the client.
func respondServiceError(c *gin.Context, log *logger.Logger, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		utils.ValidationErrorResponse(c, utils.ValidationErrors(err))
		return
	}

	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		utils.NotFoundResponse(c, "Record")
	case errors.Is(err, interfaces.ErrDuplicateBenefit):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrReferralExpired):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, services.ErrAccountDisabled):
		utils.ErrorResponse(c, http.StatusForbidden, "ACCOUNT_DISABLED", err.Error())
	case errors.Is(err, services.ErrEmailAlreadyUsed):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, lifecycle.ErrReasonRequired),
		errors.Is(err, lifecycle.ErrJustificationRequired),
		errors.Is(err, lifecycle.ErrInvalidAmount),
		errors.Is(err, lifecycle.ErrInvalidContractDate),
		errors.Is(err, lifecycle.ErrInvalidStage),
		errors.Is(err, lifecycle.ErrStageViaContract),
		errors.Is(err, lifecycle.ErrStageViaLost),
		errors.Is(err, lifecycle.ErrInvoiceFileType),
		errors.Is(err, lifecycle.ErrInvoiceFileTooLarge):
		utils.BadRequestResponse(c, err.Error())
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalServerErrorResponse(c)
	}
}
