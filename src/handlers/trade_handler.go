package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/services"
	"github.com/username/tradevault/backend/src/utils"
)

type TradeHandler struct {
	importService services.ImportService
}

func NewTradeHandler(service services.ImportService) *TradeHandler {
	return &TradeHandler{importService: service}
}

func accountIDFromQuery(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *TradeHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromQuery(r)
	if !ok {
		utils.SendJSONError(w, "account_id query parameter is required", http.StatusBadRequest)
		return
	}

	trades, err := h.importService.GetTrades(accountID)
	if err != nil {
		logger.L.Error("Error retrieving trades", "accountID", accountID, "error", err)
		utils.SendJSONError(w, "Error retrieving trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []models.CanonicalTrade{}
	}

	currentETag, etagErr := utils.GenerateETag(trades)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for trades", "accountID", accountID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(trades); err != nil {
		logger.L.Error("Error generating JSON response for trades", "accountID", accountID, "error", err)
	}
}

func (h *TradeHandler) HandleDeleteAllTrades(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromQuery(r)
	if !ok {
		utils.SendJSONError(w, "account_id query parameter is required", http.StatusBadRequest)
		return
	}

	if err := h.importService.DeleteAllTrades(accountID); err != nil {
		logger.L.Error("Error deleting trades", "accountID", accountID, "error", err)
		utils.SendJSONError(w, "Error deleting trades", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TradeHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromQuery(r)
	if !ok {
		utils.SendJSONError(w, "account_id query parameter is required", http.StatusBadRequest)
		return
	}

	stats, err := h.importService.GetStats(accountID)
	if err != nil {
		logger.L.Error("Error computing stats", "accountID", accountID, "error", err)
		utils.SendJSONError(w, "Error computing stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		logger.L.Error("Error generating JSON response for stats", "accountID", accountID, "error", err)
	}
}

func (h *TradeHandler) HandleGetPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.importService.GetPairs()
	if err != nil {
		logger.L.Error("Error retrieving pairs", "error", err)
		utils.SendJSONError(w, "Error retrieving pairs", http.StatusInternalServerError)
		return
	}
	if pairs == nil {
		pairs = []models.PairRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(pairs); err != nil {
		logger.L.Error("Error generating JSON response for pairs", "error", err)
	}
}
