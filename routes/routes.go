package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eliteexplore/handlers"
	"eliteexplore/middleware"
	"eliteexplore/models"
	"eliteexplore/websocket"
)

type Options struct {
	Handler     *handlers.Handler
	Tokens      *middleware.Tokens
	Users       middleware.UserLookup
	Limiter     *middleware.IPRateLimiter
	Hub         *websocket.Hub
	CORSOrigins []string
	Log         *zap.Logger
}

func SetupRouter(o Options) *gin.Engine {
	router := gin.New()
	h := o.Handler

	router.Use(
		middleware.Trace(),
		middleware.RequestLogger(o.Log),
		middleware.Recovery(o.Log),
		cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Trace-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.RateLimit(o.Limiter),
	)

	token := middleware.VerifyToken(o.Tokens)
	admin := middleware.RequireRole(o.Users, models.RoleAdmin, o.Log)
	guide := middleware.RequireRole(o.Users, models.RoleGuide, o.Log)
	self := middleware.SelfOnly("email")

	// Public
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.POST("/jwt", h.IssueToken)
	router.POST("/users", h.CreateUser)
	router.GET("/random-tours", h.RandomTours)
	router.GET("/randomStories", h.RandomStories)
	router.GET("/stories", h.AllStories)
	router.GET("/guides", h.RandomGuides)
	router.GET("/allGuides", h.AllGuides)
	router.GET("/guide/:id", h.GetGuide)
	router.GET("/details/:id", h.TourDetails)
	router.GET("/tours", h.AllTours)
	router.GET("/vapid-public-key", h.VAPIDPublicKey)

	router.GET("/ws", o.Hub.Handler(func(raw string) (string, error) {
		claims, err := o.Tokens.Parse(raw)
		if err != nil {
			return "", err
		}
		return claims.Email, nil
	}))

	// Any signed-in user
	user := router.Group("/", token)
	{
		user.GET("/users/admin/:email", self, h.IsAdmin)
		user.GET("/users/guide/:email", self, h.IsGuide)
		user.GET("/user/:email", h.GetUser)
		user.PATCH("/update-profile/:id", h.UpdateProfile)
		user.POST("/upload-photo", h.UploadPhoto)
		user.POST("/subscribe", h.Subscribe)

		user.POST("/create-payment-intent", h.CreatePaymentIntent)
		user.POST("/payment", h.SavePayment)
		user.GET("/payment/:email", self, h.PaymentsByEmail)

		user.POST("/applications", h.CreateApplication)

		user.GET("/stories/:email", h.StoriesByEmail)
		user.GET("/story/:id", h.GetStory)
		user.DELETE("/stories/:id", h.DeleteStory)
		user.POST("/add-story", h.AddStory)
		user.PUT("/update-story/:id", h.UpdateStory)

		user.POST("/booking", h.CreateBooking)
		user.GET("/bookings/:email", h.BookingsByEmail)
		user.GET("/book/:id", h.GetBooking)
		user.DELETE("/booking/:id", h.DeleteBooking)
	}

	// Admin
	adm := router.Group("/", token, admin)
	{
		adm.GET("/admin-stats", h.AdminStats)
		adm.GET("/admin-total-payment", h.TotalPayment)
		adm.GET("/users", h.ListUsers)
		adm.DELETE("/delete-user/:id", h.DeleteUser)
		adm.GET("/applications", h.ListApplications)
		adm.PATCH("/accept-tour-guide", h.AcceptGuide)
		adm.DELETE("/reject-tour-guide/:email", h.RejectGuide)
		adm.POST("/add-package", h.AddPackage)
	}

	// Guide
	gd := router.Group("/", token, guide)
	{
		gd.GET("/guides-asigned-tours/:email", h.GuideAssignedTours)
		gd.PATCH("/bookings-reject/:id", h.RejectBooking)
		gd.PATCH("/bookings-accept/:id", h.AcceptBooking)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}
