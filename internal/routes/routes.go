package routes

import (
	"github.com/gin-gonic/gin"

	po "sepettakip_back_end/internal/handlers/policies"
	rq "sepettakip_back_end/internal/handlers/requests"
	"sepettakip_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Clients : soumission et consultation de leurs demandes
	customer := api.Group("")
	customer.Use(middleware.AuthRequired())
	{
		customer.POST("/orders/:orderId/cancellation-requests",
			middleware.SubmitRateLimit(), rq.SubmitCancellation)
		customer.POST("/orders/:orderId/refund-requests",
			middleware.SubmitRateLimit(), rq.SubmitRefund)
		customer.GET("/orders/:orderId/active-request", rq.GetActiveRequest)
		customer.POST("/refund-requests/evidence", rq.UploadEvidence)
		customer.GET("/requests", rq.GetMyRequests)
	}

	// Commerçants : décision sur les demandes en attente
	business := api.Group("/requests")
	business.Use(middleware.AuthRequired(), middleware.RequireBusiness)
	{
		business.POST("/:requestId/decision", rq.DecideRequest)
	}

	// Admin : règlement, supervision, politiques
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.POST("/requests/:requestId/settle", rq.SettleRequest)
		admin.GET("/requests", rq.GetAllRequests)
		admin.GET("/requests/search", rq.SearchRequests)

		admin.POST("/businesses/:businessId/refund-policy", po.CreatePolicy)
		admin.GET("/businesses/:businessId/refund-policy", po.GetActivePolicy)
		admin.GET("/businesses/:businessId/refund-policies", po.ListPolicies)
		admin.PATCH("/businesses/:businessId/refund-policy/:policyId/activate", po.ActivatePolicy)
		admin.DELETE("/businesses/:businessId/refund-policy", po.DeactivatePolicy)
	}
}
