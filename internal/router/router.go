package router

import (
	"time"

	"blogapi/internal/auth"
	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/policy"
	"blogapi/internal/services"
	"blogapi/internal/store"
	"blogapi/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// New wires storage, services and handlers onto a fresh engine.
func New(cfg config.Config, gdb *gorm.DB) (*gin.Engine, error) {
	st := store.New(gdb)
	guard := policy.NewGuard(policy.DefaultGrants())
	provider := auth.NewProvider(st, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	cache, err := utils.NewCache(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	users := services.NewUserService(st, provider, cache, cfg.AdminEmails)

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	RegisterRoutes(r, provider,
		handlers.NewAuthHandler(users, provider),
		handlers.NewUserHandler(users),
		handlers.NewPostHandler(services.NewPostService(st, guard, cache)),
		handlers.NewCommentHandler(services.NewCommentService(st, guard)),
		handlers.NewCategoryHandler(services.NewCategoryService(st, guard)),
		handlers.NewLikeHandler(services.NewLikeService(st, guard)),
		handlers.NewPingHandler(st),
	)
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func RegisterRoutes(
	r *gin.Engine,
	provider *auth.Provider,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	postHandler *handlers.PostHandler,
	commentHandler *handlers.CommentHandler,
	categoryHandler *handlers.CategoryHandler,
	likeHandler *handlers.LikeHandler,
	pingHandler *handlers.PingHandler,
) {
	// 公共路由 (Public Routes)
	r.GET("/ping", pingHandler.Ping)
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/posts/:id/likes", likeHandler.Count)

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired(provider))
	{
		authorized.POST("/logout", authHandler.Logout)
		authorized.GET("/user", userHandler.Show)
		authorized.PUT("/user", userHandler.Update)

		authorized.GET("/posts", postHandler.List)
		authorized.POST("/posts", postHandler.Create)
		authorized.GET("/posts/:id", postHandler.Show)
		authorized.PUT("/posts/:id", postHandler.Update)
		authorized.DELETE("/posts/:id", postHandler.Delete)

		authorized.GET("/posts/:id/comments", commentHandler.List)
		authorized.POST("/posts/:id/comments", commentHandler.Create)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.POST("/posts/:id/like", likeHandler.Toggle)
		authorized.POST("/posts/:id/assign-categories", categoryHandler.Assign)
		authorized.GET("/categories/:id/posts", categoryHandler.Posts)
	}

	// 分类管理，需要 categories:manage 权限 (Admin Routes)
	categories := r.Group("/categories")
	categories.Use(middleware.AuthRequired(provider))
	{
		categories.GET("", categoryHandler.List)
		categories.POST("", categoryHandler.Create)
		categories.PUT("/:id", categoryHandler.Update)
		categories.DELETE("/:id", categoryHandler.Delete)
	}
}
