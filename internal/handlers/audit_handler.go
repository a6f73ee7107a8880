package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/hospital-api/internal/middleware"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	logs, err := h.Audit.List(c.Request.Context(), middleware.CallerFrom(c), c.Query("resource"), c.Query("resourceId"), page)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Audit logs fetched successfully", logs)
}

func (h *Handler) Health(c *gin.Context) {
	utils.Success(c, http.StatusOK, "OK", gin.H{"status": "ok"})
}
