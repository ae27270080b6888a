package models

import "time"

// promoValidityDays is the default window of a freshly drafted promo code
const promoValidityDays = 30

// IsActive reports whether the promo code is still valid on the calendar day of now.
// The end date is inclusive. An end date that does not parse is never active.
func (p PromoCode) IsActive(now time.Time) bool {
	end, err := time.Parse(DateLayout, p.EndDate)
	if err != nil {
		return false
	}
	today, _ := time.Parse(DateLayout, now.UTC().Format(DateLayout))
	return !today.After(end)
}

// DefaultPromoCode returns the blank promo code offered for a new user
func DefaultPromoCode(now time.Time) PromoCode {
	today := now.UTC()
	return PromoCode{
		StartDate: today.Format(DateLayout),
		EndDate:   today.AddDate(0, 0, promoValidityDays).Format(DateLayout),
	}
}

// ValidDate reports whether s is an ISO calendar date
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
