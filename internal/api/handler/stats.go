package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/talentdesk/expiry-engine/internal/api/respond"
	"github.com/talentdesk/expiry-engine/internal/cache"
	"github.com/talentdesk/expiry-engine/internal/notify"
)

type companyOverview struct {
	CompanyID         int64  `json:"companyId"`
	CompanyName       string `json:"companyName"`
	ActiveEmployees   int    `json:"activeEmployees"`
	InactiveEmployees int    `json:"inactiveEmployees"`
}

type documentExpiryStats struct {
	DocumentType string `json:"documentType"`
	Expired      int    `json:"expired"`
	Expiring7    int    `json:"expiring7"`
	Expiring30   int    `json:"expiring30"`
	Expiring60   int    `json:"expiring60"`
}

type statsResponse struct {
	Companies      []companyOverview        `json:"companies"`
	DocumentExpiry []documentExpiryStats    `json:"documentExpiry"`
	Notifications  statsNotificationSection `json:"notifications"`
	GeneratedAt    string                   `json:"generatedAt"`
}

type statsNotificationSection struct {
	ByStatus   map[notify.Status]int   `json:"byStatus"`
	ByCategory map[notify.Category]int `json:"byCategory"`
	Last24h    int                     `json:"last24h"`
}

// GetStats returns current dashboard counts without triggering any sends.
// Snapshot counts come from the materialized views; audit counts are live.
// @Summary Dashboard stats
// @Description Returns per-company employee counts, per-document expiry breakdowns from the aggregate snapshots, and notification audit counts. Never sends notifications.
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} respond.ErrorResponse
// @Router /stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "stats"
	ttl := cache.TTLStats

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	ctx := r.Context()
	resp := statsResponse{GeneratedAt: time.Now().UTC().Format(time.RFC3339)}

	rows, err := h.pool.Query(ctx, "snapshot_company_overview")
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
		return
	}
	for rows.Next() {
		var c companyOverview
		if err := rows.Scan(&c.CompanyID, &c.CompanyName, &c.ActiveEmployees, &c.InactiveEmployees); err != nil {
			rows.Close()
			respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
			return
		}
		resp.Companies = append(resp.Companies, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
		return
	}

	rows, err = h.pool.Query(ctx, "snapshot_expiry_stats")
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
		return
	}
	for rows.Next() {
		var d documentExpiryStats
		if err := rows.Scan(&d.DocumentType, &d.Expired, &d.Expiring7, &d.Expiring30, &d.Expiring60); err != nil {
			rows.Close()
			respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
			return
		}
		resp.DocumentExpiry = append(resp.DocumentExpiry, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
		return
	}

	byStatus, err := h.audit.CountByStatus(ctx)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
		return
	}
	byCategory, err := h.audit.CountByCategory(ctx)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
		return
	}
	now := time.Now().UTC()
	last24h, err := h.audit.CountInRange(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
		return
	}
	resp.Notifications = statsNotificationSection{
		ByStatus:   byStatus,
		ByCategory: byCategory,
		Last24h:    last24h,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "STATS_FAILED", err.Error())
		return
	}

	etag := h.cache.Set(cacheKey, data, ttl)
	respond.WriteJSON(w, data, etag, ttl, false)
}
