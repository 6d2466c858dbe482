package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	materialdomain "github.com/smallbiznis/medbill/internal/material/domain"
)

type lookupMaterialResponse struct {
	materialdomain.Record
	UnitRate decimal.Decimal `json:"unit_rate"`
}

func (s *Server) CreateMaterial(c *gin.Context) {
	var req materialdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.materialSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMaterials(c *gin.Context) {
	var query struct {
		SurgicalCategory string `form:"surgical_category"`
		Active           string `form:"active"`
		SortBy           string `form:"sort_by"`
		OrderBy          string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.materialSvc.List(c.Request.Context(), materialdomain.ListRequest{
		SurgicalCategory: strings.TrimSpace(query.SurgicalCategory),
		Active:           active,
		SortBy:           strings.TrimSpace(query.SortBy),
		OrderBy:          strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMaterialByID(c *gin.Context) {
	resp, err := s.materialSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateMaterial(c *gin.Context) {
	var req materialdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.materialSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AssignMaterial(c *gin.Context) {
	var req materialdomain.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.materialSvc.Assign(c.Request.Context(), c.Param("hospital_id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SearchMaterials(c *gin.Context) {
	var query struct {
		lineitemdomain.Scope
		Limit string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit, err := parseOptionalInt64(query.Limit)
	if err != nil || (limit != nil && *limit <= 0) {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	req := materialdomain.SearchRequest{Scope: scopeFrom(c, query.Scope)}
	if limit != nil {
		req.Limit = int(*limit)
	}

	resp, err := s.materialSvc.Search(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) LookupMaterial(c *gin.Context) {
	number := strings.TrimSpace(c.Query("material_number"))
	if number == "" {
		AbortWithError(c, newValidationError("material_number", "required", "material_number is required"))
		return
	}

	record, err := s.materialSvc.LookupByNumber(c.Request.Context(), c.Param("hospital_id"), number)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lookupMaterialResponse{
		Record:   *record,
		UnitRate: record.ScopedPrice(),
	}})
}

// ListMaterialOptions serves one step of the classification cascade: the
// values available at level given the choices already made above it.
func (s *Server) ListMaterialOptions(c *gin.Context) {
	var query struct {
		lineitemdomain.Scope
		Level string `form:"level"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	level, err := materialdomain.ParseLevel(query.Level)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	scope := scopeFrom(c, query.Scope)
	values, err := s.materialSvc.ListOptions(c.Request.Context(), scope, level)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"level":   level,
		"options": values,
	}})
}

func scopeFrom(c *gin.Context, scope lineitemdomain.Scope) lineitemdomain.Scope {
	scope.HospitalID = strings.TrimSpace(c.Param("hospital_id"))
	scope.SurgicalCategory = strings.TrimSpace(scope.SurgicalCategory)
	scope.ImplantType = strings.TrimSpace(scope.ImplantType)
	scope.SubCategory = strings.TrimSpace(scope.SubCategory)
	scope.LengthMM = strings.TrimSpace(scope.LengthMM)
	return scope
}
