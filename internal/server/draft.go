package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/lineitem/draft"
	"github.com/smallbiznis/medbill/pkg/validation"
)

type openDraftRequest struct {
	HospitalID        string                     `json:"hospital_id"`
	SurgicalCategory  string                     `json:"surgical_category"`
	ImplantType       string                     `json:"implant_type"`
	SubCategory       string                     `json:"sub_category"`
	LengthMM          string                     `json:"length_mm"`
	CustomerStateCode string                     `json:"customer_state_code" validate:"max=8"`
	Items             []lineitemdomain.LineInput `json:"items" validate:"dive"`
}

// editRowRequest carries the fields a client changed. Catalog-derived fields
// of a MASTER line are ignored.
type editRowRequest struct {
	Description        *string          `json:"material_description"`
	HSNCode            *string          `json:"hsn_code" validate:"omitempty,max=16"`
	Unit               *string          `json:"unit"`
	GSTPercentage      *decimal.Decimal `json:"gst_percentage" validate:"omitempty,money,gte=0,lte=100"`
	UnitRate           *decimal.Decimal `json:"unit_rate" validate:"omitempty,money,gte=0"`
	Quantity           *decimal.Decimal `json:"quantity" validate:"omitempty,money,gte=1"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage" validate:"omitempty,money,gte=0,lte=100"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount" validate:"omitempty,money,gte=0"`
	Currency           *string          `json:"currency" validate:"omitempty,len=3"`
}

func (r editRowRequest) edit() lineitemdomain.Edit {
	edit := lineitemdomain.Edit{
		Description:        r.Description,
		HSNCode:            r.HSNCode,
		Unit:               r.Unit,
		GSTPercentage:      r.GSTPercentage,
		UnitRate:           r.UnitRate,
		Quantity:           r.Quantity,
		DiscountPercentage: r.DiscountPercentage,
		DiscountAmount:     r.DiscountAmount,
	}
	if r.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*r.Currency))
		edit.Currency = &currency
	}
	return edit
}

type materialNumberRequest struct {
	MaterialNumber string `json:"material_number" validate:"max=64"`
}

type moveRowRequest struct {
	From int `json:"from" validate:"gte=1"`
	To   int `json:"to" validate:"gte=1"`
}

type draftResponse struct {
	ID                string                    `json:"id"`
	Scope             lineitemdomain.Scope      `json:"scope"`
	CustomerStateCode string                    `json:"customer_state_code,omitempty"`
	Items             []lineitemdomain.LineItem `json:"items"`
	Total             decimal.Decimal           `json:"total"`
}

// lineResponse reports a line after a row mutation together with the
// document total. Resolution names why a typed material number stayed MANUAL.
type lineResponse struct {
	Line       lineitemdomain.LineItem `json:"line"`
	Total      decimal.Decimal         `json:"total"`
	Resolution string                  `json:"resolution,omitempty"`
}

func newDraftResponse(id string, snap draft.Snapshot) draftResponse {
	resp := draftResponse{
		ID:    id,
		Scope: snap.Scope,
		Items: snap.Items,
		Total: snap.Total,
	}
	if resp.Items == nil {
		resp.Items = []lineitemdomain.LineItem{}
	}
	if snap.Tax != nil {
		resp.CustomerStateCode = snap.Tax.CustomerStateCode
	}
	return resp
}

func (s *Server) OpenDraft(c *gin.Context) {
	var req openDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := validation.Struct(s.validate, req); err != nil {
		AbortWithError(c, err)
		return
	}

	id, d, err := s.drafts.Open(c.Request.Context(), draft.OpenRequest{
		Scope: lineitemdomain.Scope{
			HospitalID:       req.HospitalID,
			SurgicalCategory: strings.TrimSpace(req.SurgicalCategory),
			ImplantType:      strings.TrimSpace(req.ImplantType),
			SubCategory:      strings.TrimSpace(req.SubCategory),
			LengthMM:         strings.TrimSpace(req.LengthMM),
		},
		CustomerStateCode: req.CustomerStateCode,
		Items:             lineitemdomain.LineItems(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newDraftResponse(id, d.Snapshot())})
}

func (s *Server) GetDraft(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	d, err := s.drafts.Get(id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newDraftResponse(id, d.Snapshot())})
}

func (s *Server) CloseDraft(c *gin.Context) {
	if err := s.drafts.Close(strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddDraftRow appends a line. A material number on the new line is resolved
// right away.
func (s *Server) AddDraftRow(c *gin.Context) {
	d, ok := s.lookupDraft(c)
	if !ok {
		return
	}

	var req lineitemdomain.LineInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := validation.Struct(s.validate, req); err != nil {
		AbortWithError(c, err)
		return
	}

	item := req.LineItem()
	number := item.MaterialNumber
	item.MaterialNumber = ""
	line, err := d.AddRow(item)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var reason string
	if number != "" {
		line, reason, err = setMaterialNumber(c, d, line.RowID, number)
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"data": lineResponse{Line: line, Total: d.Total(), Resolution: reason}})
}

func (s *Server) EditDraftRow(c *gin.Context) {
	d, ok := s.lookupDraft(c)
	if !ok {
		return
	}

	var req editRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := validation.Struct(s.validate, req); err != nil {
		AbortWithError(c, err)
		return
	}

	line, err := d.Edit(strings.TrimSpace(c.Param("row_id")), req.edit())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lineResponse{Line: line, Total: d.Total()}})
}

func (s *Server) RemoveDraftRow(c *gin.Context) {
	d, ok := s.lookupDraft(c)
	if !ok {
		return
	}

	if err := d.RemoveRow(strings.TrimSpace(c.Param("row_id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newDraftResponse(strings.TrimSpace(c.Param("id")), d.Snapshot())})
}

func (s *Server) MoveDraftRow(c *gin.Context) {
	d, ok := s.lookupDraft(c)
	if !ok {
		return
	}

	var req moveRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := validation.Struct(s.validate, req); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := d.Move(req.From, req.To); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newDraftResponse(strings.TrimSpace(c.Param("id")), d.Snapshot())})
}

// SetDraftMaterialNumber resolves a typed material number for a line. A miss
// keeps the line MANUAL and is reported in the resolution field. A lookup
// overtaken by a newer one for the same row answers 409.
func (s *Server) SetDraftMaterialNumber(c *gin.Context) {
	d, ok := s.lookupDraft(c)
	if !ok {
		return
	}

	var req materialNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := validation.Struct(s.validate, req); err != nil {
		AbortWithError(c, err)
		return
	}

	line, reason, err := setMaterialNumber(c, d, strings.TrimSpace(c.Param("row_id")), req.MaterialNumber)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lineResponse{Line: line, Total: d.Total(), Resolution: reason}})
}

func (s *Server) lookupDraft(c *gin.Context) (*draft.Draft, bool) {
	d, err := s.drafts.Get(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	return d, true
}

// setMaterialNumber turns catalog misses into a reason code so the caller can
// still return the MANUAL line.
func setMaterialNumber(c *gin.Context, d *draft.Draft, rowID, number string) (lineitemdomain.LineItem, string, error) {
	line, err := d.SetMaterialNumber(c.Request.Context(), rowID, number)
	for _, miss := range []error{
		lineitemdomain.ErrCatalogUnavailable,
		lineitemdomain.ErrAmbiguousMatch,
		lineitemdomain.ErrResolutionNotFound,
	} {
		if errors.Is(err, miss) {
			return line, miss.Error(), nil
		}
	}
	return line, "", err
}
