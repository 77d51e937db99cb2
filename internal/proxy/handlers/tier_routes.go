package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/claude-nexus/internal/catalog"
	"github.com/pysugar/claude-nexus/internal/db/models"
	"gorm.io/gorm"
)

func isKnownTier(tier string) bool {
	for _, t := range catalog.AllTiers() {
		if string(t) == tier {
			return true
		}
	}
	return false
}

// TierRoutesHandler lists persisted tier pins.
func TierRoutesHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var routes []models.TierRoute
		database.Order("tier ASC").Find(&routes)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(routes)
	}
}

// SetTierRouteHandler creates or updates the pin for one tier.
func SetTierRouteHandler(database *gorm.DB) http.HandlerFunc {
	type request struct {
		TargetModel string `json:"target_model"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tier := chi.URLParam(r, "tier")
		if !isKnownTier(tier) {
			http.Error(w, "Unknown tier: "+tier, http.StatusBadRequest)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetModel == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var route models.TierRoute
		err := database.Where("tier = ?", tier).First(&route).Error
		if err != nil {
			route = models.TierRoute{Tier: tier}
		}
		route.TargetModel = req.TargetModel
		route.IsActive = true

		if err := database.Save(&route).Error; err != nil {
			http.Error(w, "Failed to save tier route", http.StatusInternalServerError)
			return
		}
		log.Printf("📌 Pinned tier %s -> %s", tier, req.TargetModel)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(route)
	}
}

// DeleteTierRouteHandler removes the pin for one tier.
func DeleteTierRouteHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tier := chi.URLParam(r, "tier")

		result := database.Where("tier = ?", tier).Delete(&models.TierRoute{})
		if result.Error != nil {
			http.Error(w, "Failed to delete tier route", http.StatusInternalServerError)
			return
		}
		if result.RowsAffected == 0 {
			http.Error(w, "Tier route not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
