package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cimillas/flashsale/internal/app"
	"github.com/cimillas/flashsale/internal/domain"
)

func TestHandleCreateHold(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	successResult := app.CreateHoldResult{HoldID: "hold-123", ExpiresAt: now.Add(30 * time.Second)}

	tests := []struct {
		name           string
		method         string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			method:         http.MethodPost,
			body:           `{"product_id":"p1","qty":2}`,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"hold_id":"hold-123"`,
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			body:           `{}`,
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "invalid json",
			method:         http.MethodPost,
			body:           `{"product_id":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid quantity",
			method:         http.MethodPost,
			body:           `{"product_id":"p1","qty":1}`,
			serviceErr:     domain.ErrInvalidQuantity,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "product not found",
			method:         http.MethodPost,
			body:           `{"product_id":"p1","qty":1}`,
			serviceErr:     domain.ErrProductNotFound,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "insufficient stock",
			method:         http.MethodPost,
			body:           `{"product_id":"p1","qty":1}`,
			serviceErr:     domain.ErrInsufficientStock,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "internal error",
			method:         http.MethodPost,
			body:           `{"product_id":"p1","qty":1}`,
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubHoldCreator{result: successResult, err: tt.serviceErr}
			req := httptest.NewRequest(tt.method, "/api/holds", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleCreateHold(svc).ServeHTTP(rec, req)

			res := rec.Result()
			if res.StatusCode != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (body %s)", tt.expectedStatus, res.StatusCode, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

type stubHoldCreator struct {
	result app.CreateHoldResult
	err    error
}

func (s *stubHoldCreator) CreateHold(_ context.Context, _ app.CreateHoldInput) (app.CreateHoldResult, error) {
	return s.result, s.err
}
