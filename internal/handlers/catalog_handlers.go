package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restropos_backend/internal/repositories"
	"restropos_backend/pkg/utils"
)

// CatalogHandler exposes the read-only menu item and deal catalogs to POS
// clients. Catalog editing lives in the back-office system, not here.
type CatalogHandler struct {
	catalogRepo repositories.CatalogRepository
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogRepo repositories.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{catalogRepo: catalogRepo}
}

// GetMenuItems lists menu items, by default only active ones.
func (h *CatalogHandler) GetMenuItems(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") != "false"
	items, err := h.catalogRepo.GetMenuItems(activeOnly)
	if err != nil {
		utils.LogError(err, "GetMenuItems: query failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeStoreUnavailable, "The data store is temporarily unavailable. Safe to retry.", ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_items": items})
}

// GetDeals lists deals. Validity windows are evaluated again at order time;
// this listing only applies the active flag.
func (h *CatalogHandler) GetDeals(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") != "false"
	deals, err := h.catalogRepo.GetDeals(activeOnly)
	if err != nil {
		utils.LogError(err, "GetDeals: query failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeStoreUnavailable, "The data store is temporarily unavailable. Safe to retry.", ""))
		return
	}
	for i := range deals {
		deals[i].RecomputeSavings()
	}
	c.JSON(http.StatusOK, gin.H{"deals": deals})
}
