package routes

import (
	"corpvox/internal/handlers"
	"corpvox/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReferralRoutes wires the referral lifecycle. Experts submit and
// read; every state-changing decision sits under /admin.
func SetupReferralRoutes(r *gin.RouterGroup, referralHandler *handlers.ReferralHandler, benefitHandler *handlers.BenefitHandler, jwtSecret string, sessions middleware.SessionChecker) {
	referrals := r.Group("/referrals")
	referrals.Use(middleware.AuthRequired(jwtSecret, sessions))
	{
		referrals.POST("", referralHandler.Create)
		referrals.GET("", referralHandler.List)
		referrals.GET("/:id", referralHandler.Get)
		referrals.GET("/:id/benefit", benefitHandler.GetByReferral)
	}

	admin := r.Group("/admin/referrals")
	admin.Use(middleware.AuthRequired(jwtSecret, sessions), middleware.AdminRequired())
	{
		admin.PUT("/:id/approve", referralHandler.Approve)
		admin.PUT("/:id/reject", referralHandler.Reject)
		admin.PUT("/:id/stage", referralHandler.MoveStage)
		admin.PUT("/:id/lost", referralHandler.MarkLost)
		admin.PUT("/:id/contract", referralHandler.MarkContracted)
		admin.GET("/:id/history", referralHandler.History)
	}
}
