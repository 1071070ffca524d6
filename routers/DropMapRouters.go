package routers

import (
	"github.com/GrainArc/DropMap/views"
	"github.com/gin-gonic/gin"
)

// DropMapRouters 注册页面、交互通道和查询接口
func DropMapRouters(r *gin.Engine, page *views.PageController) {
	r.SetHTMLTemplate(views.Templates())
	r.StaticFS("/static", views.StaticFS())
	r.GET("/healthz", page.Health)

	pageRouter := r.Group("/", views.SessionMiddleware())
	{
		pageRouter.GET("", page.Index)
	}
	apiRouter := r.Group("/api", views.SessionMiddleware())
	{
		apiRouter.POST("/pass", page.Pass)
		apiRouter.GET("/ws", page.Socket)
		apiRouter.GET("/items", page.SearchItems)
		apiRouter.POST("/items", page.SubmitItem)
		apiRouter.GET("/items.geojson", page.ItemsGeoJSON)
	}
}
