package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

type ContributionHandler struct {
	svc service.ContributionService
}

func NewContributionHandler(svc service.ContributionService) *ContributionHandler {
	return &ContributionHandler{svc: svc}
}

type submitContributionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	ProofRef    string          `json:"proofRef"`
	ProjectName string          `json:"projectName"`
	FullName    string          `json:"fullName"`
	Email       string          `json:"email"`
}

func (h *ContributionHandler) Submit(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req submitContributionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	var date time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "date must be YYYY-MM-DD"))
		}
		date = d
	}
	contribution, err := h.svc.Submit(c.Request().Context(), uid, service.SubmitInput{
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
		ProofRef:    req.ProofRef,
		ProjectName: req.ProjectName,
		FullName:    req.FullName,
		Email:       req.Email,
	})
	if err != nil {
		return serviceError(c, err, "failed to submit contribution")
	}
	return c.JSON(http.StatusCreated, contribution)
}

func (h *ContributionHandler) ListMine(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	ctx := c.Request().Context()
	list, err := h.svc.ListMine(ctx, uid)
	if err != nil {
		return serviceError(c, err, "failed to fetch contributions")
	}
	summary, err := h.svc.Summary(ctx, uid)
	if err != nil {
		return serviceError(c, err, "failed to summarise contributions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"contributions": list,
		"summary":       summary,
	})
}

func (h *ContributionHandler) ExportCSV(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="contributions.csv"`)
	res.WriteHeader(http.StatusOK)
	return h.svc.ExportCSV(c.Request().Context(), uid, res)
}
