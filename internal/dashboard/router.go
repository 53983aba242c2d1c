package dashboard

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(router *gin.Engine, handler *Handler, templates *template.Template) {
	router.SetHTMLTemplate(templates)

	router.GET("/", handler.Home)
	router.GET(productsPath, handler.Products)
	router.POST(productsPath+"/quick", handler.QuickCreate)
	router.GET(productsEventsPath, handler.ProductEvents)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", handler.Health)
}
