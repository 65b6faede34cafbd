package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fadebook/fadebook/internal/config"
	"github.com/fadebook/fadebook/internal/domain/catalog"
)

type CategoryStore interface {
	Create(ctx context.Context, req catalog.CreateCategoryRequest) (catalog.ServiceCategory, error)
	List(ctx context.Context) ([]catalog.ServiceCategory, error)
	GetByID(ctx context.Context, id string) (catalog.ServiceCategory, error)
}

type CategoriesHandler struct {
	repo CategoryStore
}

func NewCategoriesHandler(repo CategoryStore) *CategoriesHandler {
	return &CategoriesHandler{repo: repo}
}

func (h *CategoriesHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list service categories")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *CategoriesHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.repo.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if err == catalog.ErrCategoryNotFound {
			RespondNotFound(ctx, "Service Category not found")
			return
		}
		RespondInternal(ctx, "Could not fetch service category")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CategoriesHandler) Create(ctx *gin.Context) {
	var req catalog.CreateCategoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, req)

	if err != nil {
		if err == catalog.ErrCategoryTaken {
			RespondConflict(ctx, "category_taken", "Service category already exists")
			return
		}
		RespondInternal(ctx, "Could not create service category")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}
