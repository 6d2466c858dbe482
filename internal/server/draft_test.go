package server

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDraft(t *testing.T, engine *gin.Engine, body map[string]any) draftResponse {
	t.Helper()
	w := do(t, engine, http.MethodPost, "/api/drafts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[draftResponse](t, w)
}

func TestDraft_RowLifecycle(t *testing.T) {
	engine := newTestServer(t)
	seedPlate(t, engine)

	opened := openDraft(t, engine, map[string]any{
		"hospital_id":         "H1",
		"customer_state_code": "27",
		"items": []map[string]any{
			{"material_description": "Gauze", "unit_rate": "10", "quantity": "2"},
		},
	})
	require.NotEmpty(t, opened.ID)
	require.Len(t, opened.Items, 1)
	assert.Equal(t, "20.00", opened.Total.StringFixed(2))
	base := "/api/drafts/" + opened.ID

	w := do(t, engine, http.MethodPost, base+"/rows", map[string]any{
		"material_number": "plate-01", "unit_rate": "1", "quantity": "1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decodeData[lineResponse](t, w)
	assert.Empty(t, added.Resolution)
	assert.True(t, added.Line.IsFromMaster())
	assert.Equal(t, 2, added.Line.SerialNumber)
	assert.True(t, added.Line.UnitRate.Equal(dec("4500")))
	require.NotNil(t, added.Line.Split)
	assert.True(t, added.Line.Split.SGSTAmount.Equal(dec("270")))
	assert.Equal(t, "5060.00", added.Total.StringFixed(2))

	w = do(t, engine, http.MethodPatch, base+"/rows/"+added.Line.RowID, map[string]any{
		"unit_rate": "1", "material_description": "Renamed", "quantity": "2", "discount_percentage": "10",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edited := decodeData[lineResponse](t, w)
	assert.True(t, edited.Line.UnitRate.Equal(dec("4500")))
	assert.Equal(t, "Locking Compression Plate", edited.Line.Description)
	assert.Equal(t, "9180.00", edited.Line.Amounts.TotalAmount.StringFixed(2))
	assert.Equal(t, "9200.00", edited.Total.StringFixed(2))

	w = do(t, engine, http.MethodPatch, base+"/rows/"+added.Line.RowID, map[string]any{"discount_amount": "100"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edited = decodeData[lineResponse](t, w)
	assert.True(t, edited.Line.DiscountPercentage.IsZero())
	assert.Equal(t, "9980.00", edited.Line.Amounts.TotalAmount.StringFixed(2))

	w = do(t, engine, http.MethodPost, base+"/move", map[string]any{"from": 2, "to": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decodeData[draftResponse](t, w)
	require.Len(t, moved.Items, 2)
	assert.Equal(t, added.Line.RowID, moved.Items[0].RowID)
	assert.Equal(t, 1, moved.Items[0].SerialNumber)

	w = do(t, engine, http.MethodDelete, base+"/rows/"+added.Line.RowID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	removed := decodeData[draftResponse](t, w)
	require.Len(t, removed.Items, 1)
	assert.Equal(t, "Gauze", removed.Items[0].Description)
	assert.Equal(t, 1, removed.Items[0].SerialNumber)
	assert.Equal(t, "20.00", removed.Total.StringFixed(2))

	w = do(t, engine, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "27", decodeData[draftResponse](t, w).CustomerStateCode)

	w = do(t, engine, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, engine, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraft_SetMaterialNumber(t *testing.T) {
	engine := newTestServer(t)
	seedPlate(t, engine)

	opened := openDraft(t, engine, map[string]any{
		"hospital_id": "H1",
		"items": []map[string]any{
			{"material_description": "Custom", "unit_rate": "50", "quantity": "1"},
		},
	})
	row := opened.Items[0].RowID
	path := "/api/drafts/" + opened.ID + "/rows/" + row + "/material_number"

	w := do(t, engine, http.MethodPut, path, map[string]any{"material_number": "NOPE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	missed := decodeData[lineResponse](t, w)
	assert.Equal(t, "resolution_not_found", missed.Resolution)
	assert.Equal(t, lineitemdomain.SourceManual, missed.Line.Source)
	assert.Equal(t, "Custom", missed.Line.Description)
	assert.Equal(t, "50.00", missed.Total.StringFixed(2))

	w = do(t, engine, http.MethodPut, path, map[string]any{"material_number": " plate-01 "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	found := decodeData[lineResponse](t, w)
	assert.Empty(t, found.Resolution)
	assert.True(t, found.Line.IsFromMaster())
	assert.Equal(t, "PLATE-01", found.Line.MaterialNumber)
	assert.Equal(t, "5040.00", found.Total.StringFixed(2))

	w = do(t, engine, http.MethodPut, path, map[string]any{"material_number": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := decodeData[lineResponse](t, w)
	assert.Equal(t, lineitemdomain.SourceManual, cleared.Line.Source)
	assert.Empty(t, cleared.Line.MaterialNumber)
}

func TestDraft_Errors(t *testing.T) {
	engine := newTestServer(t)

	w := do(t, engine, http.MethodPost, "/api/drafts", map[string]any{"hospital_id": " "})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "invalid_hospital", decodeError(t, w).Errors[0].Code)

	w = do(t, engine, http.MethodGet, "/api/drafts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	opened := openDraft(t, engine, map[string]any{
		"hospital_id": "H1",
		"items": []map[string]any{
			{"row_id": "r1", "material_description": "Gauze", "unit_rate": "10", "quantity": "1"},
		},
	})
	base := "/api/drafts/" + opened.ID

	w = do(t, engine, http.MethodPost, base+"/rows", map[string]any{
		"row_id": "r1", "material_description": "Again", "unit_rate": "1", "quantity": "1",
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "conflict", decodeError(t, w).Type)

	w = do(t, engine, http.MethodPatch, base+"/rows/missing", map[string]any{"quantity": "2"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, engine, http.MethodPatch, base+"/rows/r1", map[string]any{"unit_rate": "1e20000000"})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "money", decodeError(t, w).Errors[0].Code)

	w = do(t, engine, http.MethodPost, base+"/move", map[string]any{"from": 1, "to": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
