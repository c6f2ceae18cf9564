package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/zeroup-initiative/partner-backend/internal/app"
	"github.com/zeroup-initiative/partner-backend/internal/config"
	"github.com/zeroup-initiative/partner-backend/internal/dbtest"
	appmw "github.com/zeroup-initiative/partner-backend/internal/middleware"
)

type tokens map[string]*auth.Token

func (t tokens) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := t[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("bad token")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	a := app.New(app.Options{DB: dbtest.Open(t), Location: time.UTC})
	mw := appmw.NewAuthMiddlewareWithVerifier(tokens{
		"partner": {UID: "u1", Claims: map[string]interface{}{}},
		"admin":   {UID: "a1", Claims: map[string]interface{}{"admin": true}},
	})
	cfg := &config.Config{AllowedOriginSuffix: "vercel.app", LeaderboardSize: 10}
	return New(cfg, a, mw, "abc123", "now")
}

func do(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/me/ledger", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/notifications", "nope", http.StatusUnauthorized},
		{"partner on admin route", http.MethodPost, "/api/admin/contributions/x/approve", "partner", http.StatusForbidden},
		{"admin unknown contribution", http.MethodPost, "/api/admin/contributions/x/approve", "admin", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.token, "")
			if rec.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestSubmitApproveFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/contributions", "partner", `{"amount":"5000","projectName":"Clean Water","fullName":"Ada"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &created)
	if created.ID == "" || created.Status != "pending" {
		t.Fatalf("created=%+v", created)
	}

	rec = do(t, s, http.MethodPost, "/api/admin/contributions/"+created.ID+"/approve", "admin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status=%d body=%s", rec.Code, rec.Body.String())
	}
	var approved struct {
		Award struct {
			CoinsEarned int64 `json:"coinsEarned"`
			Balance     int64 `json:"balance"`
			Unlocked    []struct {
				ID string `json:"id"`
			} `json:"unlocked"`
		} `json:"award"`
		Notified bool `json:"notified"`
	}
	decode(t, rec, &approved)
	if approved.Award.CoinsEarned != 50 {
		t.Fatalf("coinsEarned=%d want 50", approved.Award.CoinsEarned)
	}
	if len(approved.Award.Unlocked) != 1 || approved.Award.Unlocked[0].ID != "first_contribution" {
		t.Fatalf("unlocked=%+v", approved.Award.Unlocked)
	}
	if !approved.Notified {
		t.Fatalf("expected notifications to be written")
	}

	rec = do(t, s, http.MethodPost, "/api/admin/contributions/"+created.ID+"/approve", "admin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second approve status=%d body=%s", rec.Code, rec.Body.String())
	}
	var again struct {
		Award struct {
			AlreadyRewarded bool  `json:"alreadyRewarded"`
			CoinsEarned     int64 `json:"coinsEarned"`
			Balance         int64 `json:"balance"`
		} `json:"award"`
	}
	decode(t, rec, &again)
	if !again.Award.AlreadyRewarded || again.Award.CoinsEarned != 0 || again.Award.Balance != 100 {
		t.Fatalf("second approve award=%+v", again.Award)
	}

	rec = do(t, s, http.MethodGet, "/api/me/ledger", "partner", "")
	var snap struct {
		Balance     int64 `json:"balance"`
		TotalEarned int64 `json:"totalEarned"`
		Rank        int64 `json:"rank"`
	}
	decode(t, rec, &snap)
	if snap.Balance != 100 || snap.TotalEarned != 100 || snap.Rank != 1 {
		t.Fatalf("snapshot=%+v", snap)
	}

	rec = do(t, s, http.MethodGet, "/api/notifications", "partner", "")
	var notes struct {
		Notifications []struct {
			Type string `json:"type"`
		} `json:"notifications"`
		UnreadCount int64 `json:"unreadCount"`
	}
	decode(t, rec, &notes)
	if len(notes.Notifications) != 2 || notes.UnreadCount != 2 {
		t.Fatalf("notifications=%+v", notes)
	}

	rec = do(t, s, http.MethodPost, "/api/notifications/read", "partner", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("mark all status=%d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/notifications?unread_only=true", "partner", "")
	decode(t, rec, &notes)
	if len(notes.Notifications) != 0 || notes.UnreadCount != 0 {
		t.Fatalf("after mark all=%+v", notes)
	}

	rec = do(t, s, http.MethodGet, "/api/leaderboard", "partner", "")
	var board struct {
		Entries []struct {
			UID  string `json:"uid"`
			Rank int64  `json:"rank"`
		} `json:"entries"`
	}
	decode(t, rec, &board)
	if len(board.Entries) != 1 || board.Entries[0].UID != "u1" {
		t.Fatalf("leaderboard=%+v", board)
	}
}

func TestDeclineThenEditReason(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/contributions", "partner", `{"amount":"1000"}`)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)

	rec = do(t, s, http.MethodPut, "/api/admin/contributions/"+created.ID+"/reason", "admin", `{"reason":"blurry"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("reason on pending status=%d want 409", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/api/admin/contributions/"+created.ID+"/decline", "admin", `{"reason":"no receipt"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("decline status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodPut, "/api/admin/contributions/"+created.ID+"/reason", "admin", `{"reason":"receipt unreadable"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reason status=%d body=%s", rec.Code, rec.Body.String())
	}
	var updated struct {
		RejectionReason string `json:"rejectionReason"`
	}
	decode(t, rec, &updated)
	if updated.RejectionReason != "receipt unreadable" {
		t.Fatalf("reason=%q", updated.RejectionReason)
	}
}

func TestAllowOrigin(t *testing.T) {
	allow := allowOrigin("vercel.app")
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"https://zeroup.vercel.app", true},
		{"https://evil.example.com", false},
		{"ftp://zeroup.vercel.app", false},
	}
	for _, tt := range tests {
		got, _ := allow(tt.origin)
		if got != tt.want {
			t.Errorf("allowOrigin(%q)=%v want %v", tt.origin, got, tt.want)
		}
	}
}

func TestDecisionsAfterPurgeAreGone(t *testing.T) {
	s := newTestServer(t)
	var ids []string
	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodPost, "/api/contributions", "partner", `{"amount":"1000","fullName":"Ada"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit status=%d body=%s", rec.Code, rec.Body.String())
		}
		var created struct {
			ID string `json:"id"`
		}
		decode(t, rec, &created)
		ids = append(ids, created.ID)
	}
	if rec := do(t, s, http.MethodDelete, "/api/admin/users/u1", "admin", ""); rec.Code != http.StatusOK {
		t.Fatalf("purge status=%d body=%s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name string
		path string
		body string
	}{
		{"approve", "/api/admin/contributions/" + ids[0] + "/approve", ""},
		{"decline", "/api/admin/contributions/" + ids[1] + "/decline", `{"reason":"late"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, "admin", tt.body)
			if rec.Code != http.StatusGone {
				t.Fatalf("status=%d want 410 body=%s", rec.Code, rec.Body.String())
			}
		})
	}
}
