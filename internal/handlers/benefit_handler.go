package handlers

import (
	"context"
	"strconv"

	"corpvox/internal/lifecycle"
	"corpvox/internal/middleware"
	"corpvox/internal/models"
	"corpvox/internal/services"
	"corpvox/internal/utils"
	"corpvox/internal/validators"
	"corpvox/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BenefitHandler struct {
	benefitService services.BenefitService
	logger         *logger.Logger
}

func NewBenefitHandler(benefitService services.BenefitService, log *logger.Logger) *BenefitHandler {
	return &BenefitHandler{
		benefitService: benefitService,
		logger:         log,
	}
}

func (h *BenefitHandler) Get(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	benefit, err := h.benefitService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Benefit retrieved", benefit)
}

// GetByReferral resolves the benefit opened by a contracted referral.
func (h *BenefitHandler) GetByReferral(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	referralID, err := validators.ParseObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid referral ID")
		return
	}

	benefit, err := h.benefitService.GetByReferral(c.Request.Context(), actor, referralID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Benefit retrieved", benefit)
}

func (h *BenefitHandler) List(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	status, err := validators.ParseBenefitStatus(c.Query("status"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	params := utils.GetPaginationParams(c)

	benefits, total, err := h.benefitService.List(c.Request.Context(), actor, status, params)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Benefits retrieved", benefits, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

func (h *BenefitHandler) ConfirmClientPayment(c *gin.Context) {
	h.transition(c, h.benefitService.ConfirmClientPayment, "Client payment confirmed")
}

// SubmitInvoice receives the invoice document as multipart form data.
// The file size is capped before the body is read into storage.
func (h *BenefitHandler) SubmitInvoice(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid invoice amount")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "Invoice file is required")
		return
	}

	if fileHeader.Size > lifecycle.MaxInvoiceFileSize {
		utils.BadRequestResponse(c, lifecycle.ErrInvoiceFileTooLarge.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read invoice file")
		return
	}
	defer file.Close()

	upload := &services.InvoiceUpload{
		Reader:      file,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Amount:      amount,
	}

	benefit, err := h.benefitService.SubmitInvoice(c.Request.Context(), actor, id, upload)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Invoice submitted successfully", benefit)
}

func (h *BenefitHandler) ApproveInvoice(c *gin.Context) {
	h.transition(c, h.benefitService.ApproveInvoice, "Invoice approved")
}

func (h *BenefitHandler) RejectInvoice(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var request struct {
		Justification string `json:"justification"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	benefit, err := h.benefitService.RejectInvoice(c.Request.Context(), actor, id, request.Justification)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Invoice rejected", benefit)
}

func (h *BenefitHandler) SchedulePayment(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var request struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	date, err := validators.ParseDate(request.Date)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	benefit, err := h.benefitService.SchedulePayment(c.Request.Context(), actor, id, date)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Payment scheduled", benefit)
}

func (h *BenefitHandler) ConfirmPayment(c *gin.Context) {
	h.transition(c, h.benefitService.ConfirmPayment, "Payment confirmed")
}

// InvoiceDownloadURL hands out a short-lived link to the stored invoice.
func (h *BenefitHandler) InvoiceDownloadURL(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	url, err := h.benefitService.InvoiceDownloadURL(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Invoice URL generated", gin.H{
		"url":        url,
		"expires_in": int(utils.InvoiceURLExpiry.Seconds()),
	})
}

type benefitTransition func(ctx context.Context, actor services.Actor, id primitive.ObjectID) (*models.Benefit, error)

func (h *BenefitHandler) transition(c *gin.Context, fn benefitTransition, message string) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	benefit, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, message, benefit)
}

func (h *BenefitHandler) actorAndID(c *gin.Context) (services.Actor, primitive.ObjectID, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return services.Actor{}, primitive.NilObjectID, false
	}

	id, err := validators.ParseObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid benefit ID")
		return services.Actor{}, primitive.NilObjectID, false
	}

	return actor, id, true
}
