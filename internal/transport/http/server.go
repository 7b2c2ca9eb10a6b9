package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appsvc "msgboard/internal/app"
	"msgboard/internal/bootstrap"
	"msgboard/internal/transport/http/handler"
	"msgboard/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.Logger(app.Log), middleware.Metrics(), gin.Recovery())

	userService := appsvc.NewUserService(app.Users, app.Config.Auth.BcryptCost, app.Log)
	messageService := appsvc.NewMessageService(app.Messages, app.Log)

	healthHandler := handler.NewHealthHandler(app)
	userHandler := handler.NewUserHandler(userService, app.Log)
	messageHandler := handler.NewMessageHandler(messageService, app.Publisher, app.Log)
	socketHandler := handler.NewSocketHandler(app.Hub, app.Log)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/socket", socketHandler.Serve)

	userGroup := router.Group("/user")
	userGroup.POST("/signup", userHandler.Signup)
	userGroup.POST("/login", userHandler.Login)
	userGroup.PATCH("/resetPassword", userHandler.ResetPassword)
	userGroup.GET("/getUser/", userHandler.GetUser)
	userGroup.GET("/getUser/:username", userHandler.GetUser)
	userGroup.DELETE("/deleteUser/:username", userHandler.DeleteUser)

	messagingGroup := router.Group("/messaging")
	messagingGroup.POST("/addMessage", messageHandler.AddMessage)
	messagingGroup.GET("/getMessages", messageHandler.GetMessages)

	return router
}
