package api

import (
	"net/http"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	hierarchy *domain.RoleHierarchy
}

func NewRoleHandler(hierarchy *domain.RoleHierarchy) *RoleHandler {
	return &RoleHandler{hierarchy: hierarchy}
}

func (h *RoleHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:value", h.get)
	router.GET("/:value/manageable", h.manageable)
}

func (h *RoleHandler) list(c *gin.Context) {
	roles := h.hierarchy.All()
	hierarchy := make([]string, 0, len(roles))
	for _, r := range roles {
		hierarchy = append(hierarchy, r.Value)
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles, "hierarchy": hierarchy})
}

func (h *RoleHandler) get(c *gin.Context) {
	role, ok := h.hierarchy.ByValue(c.Param("value"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
		return
	}
	c.JSON(http.StatusOK, role)
}

func (h *RoleHandler) manageable(c *gin.Context) {
	if _, ok := h.hierarchy.ByValue(c.Param("value")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
		return
	}
	c.JSON(http.StatusOK, h.hierarchy.ManageableRoles(c.Param("value")))
}
