package routes

import (
	"net/http"

	"gymcheckin/constants"
	"gymcheckin/controllers"
	middlewares "gymcheckin/middleware"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Auth     *controllers.AuthController
	CheckIn  *controllers.CheckInController
	LiveFeed *controllers.LiveFeedController
}

func SetupRoutes(router *gin.Engine, tokens middlewares.TokenParser, ctl Controllers) {
	router.Use(middlewares.RequestIDMiddleware())
	router.Use(middlewares.ErrorHandler())

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", ctl.Auth.Login)

	desk := v1.Group("", middlewares.AuthMiddleware(tokens), middlewares.RoleMiddleware(constants.RoleAdmin, constants.RoleStaff))
	desk.POST("/checkin/scan", ctl.CheckIn.Scan)
	desk.GET("/attendance", ctl.CheckIn.ListAttendance)

	member := v1.Group("/members/me", middlewares.AuthMiddleware(tokens), middlewares.RoleMiddleware(constants.RoleMember))
	member.GET("/checkin-token", ctl.CheckIn.IssueMemberToken)

	router.GET("/ws", middlewares.AuthMiddleware(tokens), middlewares.RoleMiddleware(constants.RoleAdmin, constants.RoleStaff), ctl.LiveFeed.HandleWS)
}
