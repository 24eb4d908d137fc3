package shipping

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type rateConfigRequest struct {
	OriginState   string  `json:"originState"`
	OriginCity    string  `json:"originCity"`
	LocalMin      float64 `json:"localMin"`
	LocalMax      float64 `json:"localMax"`
	InterstateMin float64 `json:"interstateMin"`
	InterstateMax float64 `json:"interstateMax"`
}

// GetRates returns the active shipping rate table.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Q.GetShippingRateConfig(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "no rate table configured", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load rate table", nil)
		return
	}
	common.JSONData(w, http.StatusOK, serialiseRateConfig(cfg))
}

// UpdateRates replaces the active shipping rate table. The estimator picks the
// new rates up on the next process restart.
func (h *Handler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	var req rateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if details := validateRateConfig(req); len(details) > 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid rate table", details)
		return
	}
	cfg, err := h.Q.UpsertShippingRateConfig(r.Context(), store.ShippingRateConfig{
		OriginState:   strings.TrimSpace(req.OriginState),
		OriginCity:    strings.TrimSpace(req.OriginCity),
		LocalMin:      req.LocalMin,
		LocalMax:      req.LocalMax,
		InterstateMin: req.InterstateMin,
		InterstateMax: req.InterstateMax,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save rate table", nil)
		return
	}
	common.JSONData(w, http.StatusOK, serialiseRateConfig(cfg))
}

func validateRateConfig(req rateConfigRequest) map[string]string {
	details := map[string]string{}
	if strings.TrimSpace(req.OriginState) == "" {
		details["originState"] = "required"
	}
	if strings.TrimSpace(req.OriginCity) == "" {
		details["originCity"] = "required"
	}
	if req.LocalMin <= 0 || req.LocalMax <= 0 || req.InterstateMin <= 0 || req.InterstateMax <= 0 {
		details["rates"] = "must be positive"
	}
	if req.LocalMin > req.LocalMax {
		details["localMin"] = "must not exceed localMax"
	}
	if req.InterstateMin > req.InterstateMax {
		details["interstateMin"] = "must not exceed interstateMax"
	}
	return details
}

func serialiseRateConfig(cfg store.ShippingRateConfig) map[string]any {
	return map[string]any{
		"originState":   cfg.OriginState,
		"originCity":    cfg.OriginCity,
		"localMin":      cfg.LocalMin,
		"localMax":      cfg.LocalMax,
		"interstateMin": cfg.InterstateMin,
		"interstateMax": cfg.InterstateMax,
		"updatedAt":     nullableTime(cfg.UpdatedAt),
	}
}
