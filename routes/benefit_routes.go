package routes

import (
	"corpvox/internal/handlers"
	"corpvox/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBenefitRoutes wires the benefit payment lifecycle. The expert
// side covers reading, invoice submission and the download link; the
// payment-desk decisions live under /admin.
func SetupBenefitRoutes(r *gin.RouterGroup, benefitHandler *handlers.BenefitHandler, jwtSecret string, sessions middleware.SessionChecker) {
	benefits := r.Group("/benefits")
	benefits.Use(middleware.AuthRequired(jwtSecret, sessions))
	{
		benefits.GET("", benefitHandler.List)
		benefits.GET("/:id", benefitHandler.Get)
		benefits.POST("/:id/invoice", benefitHandler.SubmitInvoice)
		benefits.GET("/:id/invoice/url", benefitHandler.InvoiceDownloadURL)
	}

	admin := r.Group("/admin/benefits")
	admin.Use(middleware.AuthRequired(jwtSecret, sessions), middleware.AdminRequired())
	{
		admin.PUT("/:id/client-payment", benefitHandler.ConfirmClientPayment)
		admin.PUT("/:id/approve-invoice", benefitHandler.ApproveInvoice)
		admin.PUT("/:id/reject-invoice", benefitHandler.RejectInvoice)
		admin.PUT("/:id/schedule", benefitHandler.SchedulePayment)
		admin.PUT("/:id/paid", benefitHandler.ConfirmPayment)
	}
}
