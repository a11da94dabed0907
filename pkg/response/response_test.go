package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	return e.NewContext(req, rec), rec
}

func TestPaginated_ComputesTotalPagesCorrectly(t *testing.T) {
	c, rec := newContext(t)

	// totalCount=45, pageSize=20 -> totalPages = 3
	data := []string{"639171234567", "639281234567"}
	page := 2
	pageSize := 20
	var totalCount int64 = 45

	if err := Paginated(c, data, page, pageSize, totalCount); err != nil {
		t.Fatalf("Paginated returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if !body.Success {
		t.Errorf("expected Success=true, got false")
	}
	if body.Page != page {
		t.Errorf("expected Page=%d, got %d", page, body.Page)
	}
	if body.PageSize != pageSize {
		t.Errorf("expected PageSize=%d, got %d", pageSize, body.PageSize)
	}
	if body.TotalCount != totalCount {
		t.Errorf("expected TotalCount=%d, got %d", totalCount, body.TotalCount)
	}
	if body.TotalPages != 3 {
		t.Errorf("expected TotalPages=3, got %d", body.TotalPages)
	}
}

func TestNotFound_ReturnsErrorEnvelope(t *testing.T) {
	c, rec := newContext(t)

	if err := NotFound(c, "appointment 99: not found"); err != nil {
		t.Fatalf("NotFound returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body.Success {
		t.Errorf("expected Success=false, got true")
	}
	if body.Error != "appointment 99: not found" {
		t.Errorf("unexpected error message %q", body.Error)
	}
}
