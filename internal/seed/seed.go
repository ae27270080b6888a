package seed

import (
	"nexus-admin-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Users returns the demo users the console starts with
func Users() []models.User {
	return []models.User{
		{
			ID:        "1",
			FirstName: "Alex",
			LastName:  "Johnson",
			Email:     "alex.j@example.com",
			SocialMedia: models.SocialMedia{
				Twitter:  models.StringPtr("@alexj"),
				LinkedIn: models.StringPtr("linkedin.com/in/alexj"),
			},
			PromoCode: models.PromoCode{
				Code:               "NEXUS50",
				DiscountPercentage: 50,
				StartDate:          "2024-01-01",
				EndDate:            "2024-12-31",
			},
		},
		{
			ID:        "2",
			FirstName: "Sarah",
			LastName:  "Miller",
			Email:     "sarah.m@example.com",
			SocialMedia: models.SocialMedia{
				Instagram: models.StringPtr("@sarahpics"),
			},
			PromoCode: models.PromoCode{
				Code:               "WELCOME10",
				DiscountPercentage: 10,
				StartDate:          "2024-03-15",
				EndDate:            "2024-04-15",
			},
		},
	}
}

// Payments returns the demo payment requests. UserName is copied from the user at creation.
func Payments() []models.PaymentRequest {
	return []models.PaymentRequest{
		{
			ID:       "pay1",
			UserID:   "1",
			UserName: "Alex Johnson",
			Amount:   decimal.NewFromInt(1500),
			Status:   models.StatusPending,
			Date:     "2024-05-10",
		},
		{
			ID:       "pay2",
			UserID:   "2",
			UserName: "Sarah Miller",
			Amount:   decimal.NewFromInt(450),
			Status:   models.StatusPaid,
			Date:     "2024-05-08",
		},
	}
}
