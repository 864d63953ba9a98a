package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("unexpected defaults %+v", p)
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := paramsFor(t, "limit=10&offset=30")
	if p.Limit != 10 || p.Offset != 30 {
		t.Errorf("unexpected params %+v", p)
	}
}

func TestFromContext_Clamped(t *testing.T) {
	p := paramsFor(t, "limit=9999&offset=-5")
	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset clamped to 0, got %d", p.Offset)
	}
}

func TestWindow(t *testing.T) {
	cases := []struct {
		p              Params
		total          int
		wantLo, wantHi int
	}{
		{Params{Limit: 10, Offset: 0}, 25, 0, 10},
		{Params{Limit: 10, Offset: 20}, 25, 20, 25},
		{Params{Limit: 10, Offset: 40}, 25, 25, 25},
	}
	for _, tc := range cases {
		lo, hi := tc.p.Window(tc.total)
		if lo != tc.wantLo || hi != tc.wantHi {
			t.Errorf("%+v over %d: got [%d,%d), want [%d,%d)", tc.p, tc.total, lo, hi, tc.wantLo, tc.wantHi)
		}
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	r := NewResponse([]int{1, 2}, 10, Params{Limit: 2, Offset: 0})
	if !r.HasMore {
		t.Error("expected has_more")
	}
	r = NewResponse([]int{1, 2}, 10, Params{Limit: 2, Offset: 8})
	if r.HasMore {
		t.Error("expected no more past the end")
	}
}
