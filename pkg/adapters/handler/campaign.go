package handler

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/ports"
)

const maxCampaignPageSize = 500

type CampaignHandler struct {
	service  ports.CampaignService
	validate *validator.Validate
}

func NewCampaignHandler(service ports.CampaignService) *CampaignHandler {
	v := validator.New()
	// report json names in validation errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &CampaignHandler{service: service, validate: v}
}

type createCampaignRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	Description      string `json:"description"`
	TargetURL        string `json:"target_url" validate:"omitempty,url"`
	IsActive         *bool  `json:"is_active"`
	GenerateID       bool   `json:"generate_id"`
	CustomTrackingID string `json:"custom_tracking_id" validate:"omitempty,max=100,excludesall=/?#%"`
}

type updateCampaignRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	TargetURL   *string `json:"target_url" validate:"omitempty,url"`
	IsActive    *bool   `json:"is_active"`
}

func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	campaign, err := h.service.CreateCampaign(r.Context(), domain.CampaignInput{
		Name:             req.Name,
		Description:      req.Description,
		TargetURL:        req.TargetURL,
		IsActive:         active,
		GenerateID:       req.GenerateID,
		CustomTrackingID: req.CustomTrackingID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > maxCampaignPageSize {
		limit = 10
	}

	campaigns, total, err := h.service.ListCampaigns(r.Context(), page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  campaigns,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	campaign, err := h.service.GetCampaign(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var req updateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return
	}

	campaign, err := h.service.UpdateCampaign(r.Context(), id, domain.CampaignUpdate{
		Name:        req.Name,
		Description: req.Description,
		TargetURL:   req.TargetURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCampaign(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return "invalid " + strings.Join(parts, ", ")
}
