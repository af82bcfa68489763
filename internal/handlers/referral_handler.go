package handlers

import (
	"corpvox/internal/middleware"
	"corpvox/internal/services"
	"corpvox/internal/utils"
	"corpvox/internal/validators"
	"corpvox/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralHandler struct {
	referralService services.ReferralService
	logger          *logger.Logger
}

func NewReferralHandler(referralService services.ReferralService, log *logger.Logger) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		logger:          log,
	}
}

// Create accepts a new company referral from the authenticated expert.
func (h *ReferralHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var request services.CreateReferralRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	referral, err := h.referralService.Create(c.Request.Context(), actor, &request)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Referral submitted successfully", referral)
}

func (h *ReferralHandler) Get(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	referral, err := h.referralService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Referral retrieved", referral)
}

// List returns the expert's own referrals, or all referrals for admins
// with an optional status filter.
func (h *ReferralHandler) List(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	status, err := validators.ParseReferralStatus(c.Query("status"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	params := utils.GetPaginationParams(c)

	referrals, total, err := h.referralService.List(c.Request.Context(), actor, status, params)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Referrals retrieved", referrals, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

func (h *ReferralHandler) Approve(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	referral, err := h.referralService.Approve(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Referral approved", referral)
}

func (h *ReferralHandler) Reject(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var request struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	referral, err := h.referralService.Reject(c.Request.Context(), actor, id, request.Reason)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Referral rejected", referral)
}

func (h *ReferralHandler) MoveStage(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var request struct {
		Stage string `json:"stage"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	stage, err := validators.ParseCRMStage(request.Stage)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	referral, err := h.referralService.MoveStage(c.Request.Context(), actor, id, stage)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Pipeline stage updated", referral)
}

func (h *ReferralHandler) MarkLost(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	referral, err := h.referralService.MarkLost(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Referral marked as lost", referral)
}

// MarkContracted records the signed contract and opens the benefit.
func (h *ReferralHandler) MarkContracted(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var request services.ContractRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	referral, benefit, err := h.referralService.MarkContracted(c.Request.Context(), actor, id, &request)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Referral contracted", gin.H{
		"referral": referral,
		"benefit":  benefit,
	})
}

func (h *ReferralHandler) History(c *gin.Context) {
	_, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	history, total, err := h.referralService.History(c.Request.Context(), id, params)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Referral history retrieved", history, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

func (h *ReferralHandler) actorAndID(c *gin.Context) (services.Actor, primitive.ObjectID, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return services.Actor{}, primitive.NilObjectID, false
	}

	id, err := validators.ParseObjectID(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid referral ID")
		return services.Actor{}, primitive.NilObjectID, false
	}

	return actor, id, true
}
