package models

import (
	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date format used by promo codes and payments
const DateLayout = "2006-01-02"

// SocialMedia holds the optional handles a user may publish
type SocialMedia struct {
	Twitter   *string `json:"twitter,omitempty"`
	LinkedIn  *string `json:"linkedin,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
}

// PromoCode represents a discount code with a validity window
type PromoCode struct {
	Code               string  `json:"code" validate:"required"`
	DiscountPercentage float64 `json:"discount_percentage"`
	StartDate          string  `json:"start_date" validate:"required"`
	EndDate            string  `json:"end_date" validate:"required"`
}

// User represents a managed user. A user exclusively owns its promo code.
type User struct {
	ID          string      `json:"id"`
	FirstName   string      `json:"first_name" validate:"required"`
	LastName    string      `json:"last_name" validate:"required"`
	Email       string      `json:"email" validate:"required"`
	SocialMedia SocialMedia `json:"social_media"`
	PromoCode   PromoCode   `json:"promo_code"`
}

// FullName returns the display name used when denormalizing a user
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Clone returns a deep copy so callers never share handle pointers
func (u User) Clone() User {
	u.SocialMedia = SocialMedia{
		Twitter:   cloneString(u.SocialMedia.Twitter),
		LinkedIn:  cloneString(u.SocialMedia.LinkedIn),
		Instagram: cloneString(u.SocialMedia.Instagram),
	}
	return u
}

// PaymentRequest represents money owed by a user awaiting a decision.
//
// UserID is a non-owning reference and may dangle once the user is deleted.
// UserName is a snapshot taken when the request was created and is never
// resynced with later user edits.
type PaymentRequest struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name"`
	Amount       decimal.Decimal `json:"amount"`
	Status       PaymentStatus   `json:"status"`
	Date         string          `json:"date"`
	ReceiptImage *string         `json:"receipt_image,omitempty"`
}

// Clone returns a deep copy of the payment request
func (p PaymentRequest) Clone() PaymentRequest {
	p.ReceiptImage = cloneString(p.ReceiptImage)
	return p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to a copy of s
func StringPtr(s string) *string {
	return &s
}
