package web

import (
	"github.com/gin-gonic/gin"
)

// DepositActions are the handlers behind the deposit routes.
type DepositActions interface {
	CheckDeposit(c *gin.Context)
	UseDefend(c *gin.Context)
	DeleteDefend(c *gin.Context)
	AddDefend(c *gin.Context)
	InsertAssignment(c *gin.Context)
	UpdateAssignment(c *gin.Context)
}

// Gates run before the actions, in order. A gate that aborts the context
// stops the chain.
type Gates struct {
	Authenticate gin.HandlerFunc
	RequireAdmin gin.HandlerFunc
}

func MountDepositRoutes(r gin.IRouter, gates Gates, actions DepositActions) {
	r.GET("/deposit/:userId", gates.Authenticate, actions.CheckDeposit)
	r.POST("/deposit/:userId/defend/use", gates.Authenticate, actions.UseDefend)

	admin := r.Group("", gates.Authenticate, gates.RequireAdmin)
	admin.POST("/:userId/defend/delete", actions.DeleteDefend)
	admin.POST("/:userId/defend/add", actions.AddDefend)
	admin.POST("/assignment/insert", actions.InsertAssignment)
	admin.POST("/:userId/assignment/update", actions.UpdateAssignment)
}
