package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/medbill/internal/export"
	inquirydomain "github.com/smallbiznis/medbill/internal/inquiry/domain"
	"github.com/smallbiznis/medbill/pkg/db/pagination"
)

func (s *Server) CreateInquiry(c *gin.Context) {
	var req inquirydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inquirySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListInquiries(c *gin.Context) {
	var query struct {
		HospitalID string `form:"hospital_id"`
		Status     string `form:"status"`
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inquirySvc.List(c.Request.Context(), inquirydomain.ListRequest{
		HospitalID: strings.TrimSpace(query.HospitalID),
		Status:     strings.TrimSpace(query.Status),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInquiryByID(c *gin.Context) {
	resp, err := s.inquirySvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInquiry(c *gin.Context) {
	var req inquirydomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inquirySvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInquiry(c *gin.Context) {
	if err := s.inquirySvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ExportInquiry(c *gin.Context) {
	resp, err := s.inquirySvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.writeQuotation(c, export.Quotation{
		Title:      "Inquiry",
		Reference:  resp.InquiryNumber,
		HospitalID: resp.HospitalID,
		Currency:   resp.Currency,
		Date:       resp.UpdatedAt,
		Items:      resp.Items,
		Total:      resp.TotalInquiryAmount,
	})
}

// writeQuotation renders q as xlsx, or as pdf when ?format=pdf.
func (s *Server) writeQuotation(c *gin.Context, q export.Quotation) {
	letterhead := s.quotation.Get()
	q.Letterhead = export.Letterhead{
		CompanyName: letterhead.CompanyName,
		GSTIN:       letterhead.GSTIN,
		Address:     letterhead.Address,
		Terms:       letterhead.Terms,
	}

	render, contentType, fileName := export.Render, export.ContentType, export.FileName(q)
	switch strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "xlsx"))) {
	case "xlsx":
	case "pdf":
		render, contentType, fileName = export.RenderPDF, export.PDFContentType, export.PDFFileName(q)
	default:
		AbortWithError(c, newValidationError("format", "invalid_format", "format must be xlsx or pdf"))
		return
	}

	body, err := render(q)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, contentType, body)
}
