package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plumekit/plume/services"
	"github.com/plumekit/plume/utils"
)

// CategoryController manages the category taxonomy. Mutations are admin only,
// enforced at the route level.
type CategoryController struct {
	categories *services.CategoryService
}

// NewCategoryController creates a CategoryController.
func NewCategoryController(categories *services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

// ListCategories returns all categories ordered by name.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	categories, err := c.categories.List()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list categories")
		return
	}
	utils.Success(ctx, gin.H{"items": categories})
}

// GetCategory returns a single category by id.
func (c *CategoryController) GetCategory(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	category, err := c.categories.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load category")
		return
	}
	utils.Success(ctx, category)
}

// CreateCategory adds a category with a unique name and slug.
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=100"`
		Slug        string `json:"slug" binding:"required,min=1,max=100"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	category, err := c.categories.Create(strings.TrimSpace(req.Name), slug, req.Description, req.Color)
	if err != nil {
		if errors.Is(err, services.ErrCategoryExists) {
			utils.Error(ctx, http.StatusConflict, 40903, "category name or slug already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to create category")
		return
	}
	utils.Success(ctx, category)
}

// DeleteCategory removes a category and its post assignments.
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.categories.Delete(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to delete category")
		return
	}
	utils.Success(ctx, gin.H{"message": "category deleted"})
}
