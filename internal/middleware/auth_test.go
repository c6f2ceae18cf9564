package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/zeroup-initiative/partner-backend/internal/reqctx"
)

type stubVerifier map[string]*auth.Token

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("bad token")
}

func TestRequireAuthAndAdmin(t *testing.T) {
	mw := NewAuthMiddlewareWithVerifier(stubVerifier{
		"partner": {UID: "u1", Claims: map[string]interface{}{}},
		"admin":   {UID: "a1", Claims: map[string]interface{}{"admin": true}},
	})
	ok := func(c echo.Context) error {
		if reqctx.UID(c.Request().Context()) == "" {
			t.Errorf("uid missing from request context")
		}
		return c.String(http.StatusOK, c.Get("uid").(string))
	}
	tests := []struct {
		name   string
		header string
		admin  bool
		want   int
	}{
		{"no header", "", false, http.StatusUnauthorized},
		{"not bearer", "Basic x", false, http.StatusUnauthorized},
		{"bad token", "Bearer nope", false, http.StatusUnauthorized},
		{"partner", "Bearer partner", false, http.StatusOK},
		{"partner on admin route", "Bearer partner", true, http.StatusForbidden},
		{"admin on admin route", "Bearer admin", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			h := mw.RequireAuth(ok)
			if tt.admin {
				h = mw.RequireAuth(mw.RequireAdmin(ok))
			}
			if err := h(c); err != nil {
				t.Fatalf("err=%v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("got=%d want=%d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var seen string
	h := RequestID(func(c echo.Context) error {
		seen = reqctx.RID(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("err=%v", err)
	}
	if seen != "abc" || rec.Header().Get(echo.HeaderXRequestID) != "abc" {
		t.Fatalf("seen=%q header=%q", seen, rec.Header().Get(echo.HeaderXRequestID))
	}
}
