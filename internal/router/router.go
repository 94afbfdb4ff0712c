package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/lastcallsw/trackeats/internal/api"
	"github.com/lastcallsw/trackeats/internal/middleware"
	"github.com/lastcallsw/trackeats/internal/service"
)

// SetupRouter configures the application routes. The redis client may be nil,
// in which case rate limiting is disabled, and corsOrigins may be empty, in
// which case no CORS policy is installed (tests, local development).
func SetupRouter(
	authHandler *api.AuthHandler,
	foodHandler *api.FoodHandler,
	recipeHandler *api.RecipeHandler,
	authService *service.AuthService,
	redisClient *redis.Client,
	corsOrigins []string,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.ErrorHandler())
	// cors.New rejects a config with no origins at all, so with none
	// configured the middleware is left off entirely.
	if len(corsOrigins) > 0 {
		router.Use(middleware.CORS(corsOrigins))
	}

	var loginLimiter, mutationLimiter gin.HandlerFunc
	if redisClient != nil {
		loginLimiter = middleware.NewLoginRateLimiter(redisClient).ByClientMiddleware()
		mutationLimiter = middleware.NewMutationRateLimiter(redisClient).ByUserMiddleware()
	}

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1, loginLimiter)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		authHandler.RegisterProtectedRoutes(protected)
		foodHandler.RegisterRoutes(protected)
		recipeHandler.RegisterRoutes(protected, mutationLimiter)
	}

	return router
}
