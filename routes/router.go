package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plumekit/plume/config"
	"github.com/plumekit/plume/controllers"
	"github.com/plumekit/plume/middleware"
	"github.com/plumekit/plume/services"
	"github.com/plumekit/plume/utils"
)

// Services bundles the wired service layer handed to the router.
type Services struct {
	Users         *services.UserService
	Posts         *services.PostService
	Comments      *services.CommentService
	Categories    *services.CategoryService
	Subscriptions *services.SubscriptionService
	Broadcaster   *services.Broadcaster
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, svc Services) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if utils.Logger != nil {
		r.Use(utils.Ginzap(utils.Logger))
		r.Use(utils.RecoveryWithZap(utils.Logger))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(svc.Users)
	postController := controllers.NewPostController(svc.Posts, svc.Comments, svc.Broadcaster)
	categoryController := controllers.NewCategoryController(svc.Categories)
	userController := controllers.NewUserController(svc.Users, svc.Subscriptions)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public reads carry the viewer identity when a token is present so feeds
	// and reaction state can personalize.
	public := api.Group("")
	public.Use(middleware.AuthOptional())
	public.GET("/posts", postController.ListPosts)
	public.GET("/posts/:id", postController.GetPost)
	public.GET("/posts/:id/comments", postController.ListComments)
	public.GET("/categories", categoryController.ListCategories)
	public.GET("/categories/:id", categoryController.GetCategory)
	public.GET("/users", userController.ListUsers)
	public.GET("/users/:id", userController.GetUser)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts", postController.CreatePost)
	protected.PATCH("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/reactions", postController.React)
	protected.DELETE("/posts/:id/reactions", postController.Unreact)
	protected.POST("/posts/:id/favorite", postController.ToggleFavorite)
	protected.GET("/users/me/favorites", postController.ListFavorites)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.DELETE("/comments/:commentId", postController.DeleteComment)
	protected.POST("/users/:id/follow", userController.ToggleFollow)
	protected.GET("/users/me/subscriptions", userController.ListSubscriptions)
	protected.DELETE("/users/:id", userController.DeleteUser)

	admin := api.Group("")
	admin.Use(middleware.AuthRequired(), middleware.RequireRole("admin"))
	admin.POST("/categories", categoryController.CreateCategory)
	admin.DELETE("/categories/:id", categoryController.DeleteCategory)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
