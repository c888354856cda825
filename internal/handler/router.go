package handler

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/tasktracker/backend/internal/service"
)

type RouterConfig struct {
	Auth           *service.AuthService
	Tasks          *service.TaskService
	AllowedOrigins []string
	Logger         zerolog.Logger
}

var bindingOnce sync.Once

// configureBinding makes request decoding strict: unknown JSON fields are
// rejected and validation errors are reported with JSON field names.
func configureBinding() {
	bindingOnce.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
				if name == "-" || name == "" {
					return f.Name
				}
				return name
			})
		}
	})
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	configureBinding()

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Logger), CORSMiddleware(cfg.AllowedOrigins, true))

	r.GET("/", Root)
	r.GET("/ping", Ping)
	r.GET("/openapi.json", OpenAPIDoc)

	authHandler := NewAuthHandler(cfg.Auth)
	taskHandler := NewTaskHandler(cfg.Tasks)
	gate := AuthMiddleware(cfg.Auth)

	api := r.Group("/api/v1")

	users := api.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.POST("/refresh", authHandler.Refresh)
	users.POST("/logout", gate, authHandler.Logout)
	users.POST("/change-password", gate, authHandler.ChangePassword)
	users.GET("/me", gate, authHandler.Me)

	tasks := api.Group("/tasks", gate)
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("", taskHandler.ListTasks)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.PUT("/:id", taskHandler.UpdateTask)
	tasks.DELETE("/:id", taskHandler.DeleteTask)

	return r
}
