package services

import (
	"time"

	"nexus-admin-backend/internal/models"
)

const (
	recentUsersLimit = 3
	promoOverview    = 2
)

// DashboardStats is computed on demand from current state and never stored
type DashboardStats struct {
	TotalUsers         int             `json:"total_users"`
	ActivePromos       int             `json:"active_promos"`
	PendingPayments    int             `json:"pending_payments"`
	RecentUsers        []models.User   `json:"recent_users"`
	PromotionsOverview []PromoOverview `json:"promotions_overview"`
}

// PromoOverview is a promo code card on the dashboard
type PromoOverview struct {
	UserID    string           `json:"user_id"`
	FirstName string           `json:"first_name"`
	PromoCode models.PromoCode `json:"promo_code"`
	Active    bool             `json:"active"`
}

// ComputeDashboard derives dashboard statistics as of now
func ComputeDashboard(users []models.User, payments []models.PaymentRequest, now time.Time) DashboardStats {
	stats := DashboardStats{
		TotalUsers:         len(users),
		RecentUsers:        []models.User{},
		PromotionsOverview: []PromoOverview{},
	}

	for i, u := range users {
		active := u.PromoCode.IsActive(now)
		if active {
			stats.ActivePromos++
		}
		if i < recentUsersLimit {
			stats.RecentUsers = append(stats.RecentUsers, u)
		}
		if i < promoOverview {
			stats.PromotionsOverview = append(stats.PromotionsOverview, PromoOverview{
				UserID:    u.ID,
				FirstName: u.FirstName,
				PromoCode: u.PromoCode,
				Active:    active,
			})
		}
	}

	for _, p := range payments {
		if p.Status == models.StatusPending {
			stats.PendingPayments++
		}
	}

	return stats
}
