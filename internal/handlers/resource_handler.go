package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/middleware"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/services"
	"github.com/harentsoaR/hospital-api/internal/store"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

// ResourceHandler exposes one lifecycle manager as five REST endpoints.
type ResourceHandler[T any, P interface {
	*T
	Meta() *models.Record
}] struct {
	manager  *services.Manager[T, P]
	name     string
	newInput func() models.Input[T]
	newPatch func() models.Patch
}

func NewResourceHandler[T any, P interface {
	*T
	Meta() *models.Record
}](m *services.Manager[T, P], name string, newInput func() models.Input[T], newPatch func() models.Patch) *ResourceHandler[T, P] {
	return &ResourceHandler[T, P]{manager: m, name: name, newInput: newInput, newPatch: newPatch}
}

func (h *ResourceHandler[T, P]) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *ResourceHandler[T, P]) Create(c *gin.Context) {
	in := h.newInput()
	if err := bind(c, in); err != nil {
		utils.Fail(c, err)
		return
	}

	doc, err := h.manager.Create(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, h.name+" created successfully", doc)
}

func (h *ResourceHandler[T, P]) GetByID(c *gin.Context) {
	populate := c.Query("populate") == "true"
	doc, err := h.manager.GetByID(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), populate)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, h.name+" fetched successfully", doc)
}

func (h *ResourceHandler[T, P]) List(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	query := map[string]string{}
	for k, vs := range c.Request.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}

	docs, err := h.manager.List(c.Request.Context(), middleware.CallerFrom(c), query, page)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, h.name+"s fetched successfully", docs)
}

func (h *ResourceHandler[T, P]) Update(c *gin.Context) {
	patch := h.newPatch()
	if err := bind(c, patch); err != nil {
		utils.Fail(c, err)
		return
	}

	doc, err := h.manager.Update(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), patch)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, h.name+" updated successfully", doc)
}

func (h *ResourceHandler[T, P]) Delete(c *gin.Context) {
	if err := h.manager.SoftDelete(c.Request.Context(), middleware.CallerFrom(c), c.Param("id")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, h.name+" deleted successfully", nil)
}

func pageFrom(c *gin.Context) (store.Page, error) {
	var skip, limit int64
	for _, p := range []struct {
		key string
		dst *int64
	}{{"skip", &skip}, {"limit", &limit}} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return store.Page{}, &apperrors.FieldError{
				Field:  p.key,
				Err:    apperrors.ErrInvalidField,
				Detail: fmt.Sprintf("%s must be an integer", p.key),
			}
		}
		*p.dst = n
	}
	return services.NewPage(skip, limit), nil
}
