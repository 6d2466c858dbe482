package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/lineitem/calculator"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/pkg/validation"
)

// calculateLineRequest accepts numbers or loosely formatted strings such as
// "1,250.00" or "INR 90"; anything unparsable counts as zero. Values beyond
// the amount bounds are rejected.
type calculateLineRequest struct {
	MaterialNumber     string `json:"material_number"`
	Description        string `json:"material_description"`
	HSNCode            string `json:"hsn_code"`
	Unit               string `json:"unit"`
	UnitRate           any    `json:"unit_rate"`
	Quantity           any    `json:"quantity"`
	GSTPercentage      any    `json:"gst_percentage"`
	DiscountPercentage any    `json:"discount_percentage"`
	DiscountAmount     any    `json:"discount_amount"`
	Currency           string `json:"currency"`
	CustomerStateCode  string `json:"customer_state_code"`
}

type previewRequest struct {
	HospitalID        string                     `json:"hospital_id"`
	SurgicalCategory  string                     `json:"surgical_category"`
	ImplantType       string                     `json:"implant_type"`
	SubCategory       string                     `json:"sub_category"`
	LengthMM          string                     `json:"length_mm"`
	CustomerStateCode string                     `json:"customer_state_code" validate:"max=8"`
	Resolve           *bool                      `json:"resolve"`
	Items             []lineitemdomain.LineInput `json:"items" validate:"dive"`
}

// CalculateLine recomputes one line without touching the catalog.
func (s *Server) CalculateLine(c *gin.Context) {
	var req calculateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	in := lineitemdomain.LineInput{
		MaterialNumber: req.MaterialNumber,
		Description:    req.Description,
		HSNCode:        req.HSNCode,
		Unit:           req.Unit,
		Currency:       req.Currency,
	}
	for _, field := range []struct {
		name  string
		value any
		dst   *decimal.Decimal
	}{
		{"unit_rate", req.UnitRate, &in.UnitRate},
		{"quantity", req.Quantity, &in.Quantity},
		{"gst_percentage", req.GSTPercentage, &in.GSTPercentage},
		{"discount_percentage", req.DiscountPercentage, &in.DiscountPercentage},
		{"discount_amount", req.DiscountAmount, &in.DiscountAmount},
	} {
		value, err := calculator.CoerceAmount(field.value)
		if err != nil {
			AbortWithError(c, newValidationError(field.name, "money", field.name+" is out of range"))
			return
		}
		*field.dst = value
	}
	item := in.LineItem()

	resp := s.pricer.RecalculateLine(item, taxContext(req.CustomerStateCode))
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// PreviewDocument prices a whole document as it would be saved, without
// storing it. Lines are resolved against the hospital catalog unless resolve
// is false.
func (s *Server) PreviewDocument(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := validation.Struct(s.validate, req); err != nil {
		AbortWithError(c, err)
		return
	}

	resolve := strings.TrimSpace(req.HospitalID) != ""
	if req.Resolve != nil {
		resolve = *req.Resolve
	}

	resp, err := s.pricer.Price(c.Request.Context(), lineitemdomain.PriceRequest{
		Scope: lineitemdomain.Scope{
			HospitalID:       strings.TrimSpace(req.HospitalID),
			SurgicalCategory: strings.TrimSpace(req.SurgicalCategory),
			ImplantType:      strings.TrimSpace(req.ImplantType),
			SubCategory:      strings.TrimSpace(req.SubCategory),
			LengthMM:         strings.TrimSpace(req.LengthMM),
		},
		Tax:     taxContext(req.CustomerStateCode),
		Items:   lineitemdomain.LineItems(req.Items),
		Resolve: resolve,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if resp.Items == nil {
		resp.Items = []lineitemdomain.LineItem{}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// taxContext enables the GST split when a customer state is given. The
// company state is filled in by the pricer.
func taxContext(customerStateCode string) *lineitemdomain.TaxContext {
	code := strings.ToUpper(strings.TrimSpace(customerStateCode))
	if code == "" {
		return nil
	}
	return &lineitemdomain.TaxContext{CustomerStateCode: code}
}
