package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktracker/backend/docs"
)

// OpenAPIDoc returns the OpenAPI document.
// @Summary OpenAPI document
// @Tags health
// @Produce json
// @Success 200
// @Router /openapi.json [get]
func OpenAPIDoc(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(docs.SwaggerInfo.ReadDoc()))
}
