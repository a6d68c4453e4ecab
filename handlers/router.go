package handlers

import (
	"finlit-api/auth"
	"finlit-api/middleware"

	"github.com/gin-gonic/gin"
)

// Router builds the HTTP surface: public auth routes, then everything
// else behind JWT with per-route role gates.
func Router(h *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(allowedOrigins))

	// Public routes
	router.POST("/signup", h.Signup)
	router.POST("/token", h.Token)

	// Protected routes
	protected := router.Group("/")
	protected.Use(middleware.JWTAuth(h.Issuer))
	{
		protected.GET("/users/me", h.Me)

		student := protected.Group("/")
		student.Use(middleware.RequireRoles(auth.StudentLevel...))
		{
			// :id is the owning user's id for the portfolio routes and
			// the portfolio's own id for the trades listing.
			student.GET("/portfolios/:id", h.GetPortfolio)
			student.GET("/portfolios/:id/value", h.GetPortfolioValue)
			student.POST("/trades", h.ExecuteTrade)
			student.GET("/portfolios/:id/trades", h.ListTrades)
		}

		protected.GET("/market-events", h.ListMarketEvents)

		protected.POST("/chatbot/ask", h.AskChatbot)
		protected.POST("/chatbot/feedback/:id", h.ChatbotFeedback)
		protected.GET("/chatbot/history", h.ChatbotHistory)

		protected.GET("/webinars", h.ListWebinars)

		instructor := protected.Group("/")
		instructor.Use(middleware.RequireRoles(auth.InstructorLevel...))
		{
			instructor.POST("/webinars", h.CreateWebinar)
		}
	}

	return router
}
