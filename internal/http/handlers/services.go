package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fadebook/fadebook/internal/cache"
	"github.com/fadebook/fadebook/internal/config"
	"github.com/fadebook/fadebook/internal/domain/catalog"
)

type ServiceStore interface {
	Create(ctx context.Context, req catalog.CreateServiceRequest) (catalog.Service, error)
	ListActive(ctx context.Context) ([]catalog.Service, error)
	GetByID(ctx context.Context, id string) (catalog.Service, error)
	Update(ctx context.Context, id string, req catalog.UpdateServiceRequest) (catalog.Service, error)
	Delete(ctx context.Context, id string) error
}

type ServicesHandler struct {
	repo  ServiceStore
	cache *cache.Catalog
}

func NewServicesHandler(repo ServiceStore, c *cache.Catalog) *ServicesHandler {
	return &ServicesHandler{repo: repo, cache: c}
}

func (h *ServicesHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if items, ok := h.cache.GetServices(cctx); ok {
		ctx.JSON(http.StatusOK, gin.H{
			"items": items,
			"count": len(items),
		})
		return
	}

	items, err := h.repo.ListActive(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list services")
		return
	}

	h.cache.SetServices(cctx, items)

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *ServicesHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	s, err := h.repo.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if err == catalog.ErrServiceNotFound {
			RespondNotFound(ctx, "Service not found")
			return
		}
		RespondInternal(ctx, "Could not fetch service")
		return
	}

	ctx.JSON(http.StatusOK, s)
}

func (h *ServicesHandler) Create(ctx *gin.Context) {
	var req catalog.CreateServiceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.repo.Create(cctx, req)

	if err != nil {
		if err == catalog.ErrCategoryNotFound {
			RespondNotFound(ctx, "Service Category not found")
			return
		}
		RespondInternal(ctx, "Could not create service")
		return
	}

	h.cache.Invalidate(cctx)

	ctx.JSON(http.StatusCreated, s)
}

func (h *ServicesHandler) Update(ctx *gin.Context) {
	var req catalog.UpdateServiceRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.repo.Update(cctx, ctx.Param("id"), req)

	if err != nil {
		switch err {
		case catalog.ErrServiceNotFound:
			RespondNotFound(ctx, "Service not found")
		case catalog.ErrCategoryNotFound:
			RespondNotFound(ctx, "Service Category not found")
		default:
			RespondInternal(ctx, "Could not update service")
		}
		return
	}

	h.cache.Invalidate(cctx)

	ctx.JSON(http.StatusOK, s)
}

func (h *ServicesHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, ctx.Param("id"))

	if err != nil {
		if err == catalog.ErrServiceNotFound {
			RespondNotFound(ctx, "Service not found")
			return
		}
		RespondInternal(ctx, "Could not delete service")
		return
	}

	h.cache.Invalidate(cctx)

	ctx.Status(http.StatusNoContent)
}
