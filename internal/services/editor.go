package services

import (
	"fmt"
	"strconv"
	"strings"

	"nexus-admin-backend/internal/models"
)

// BasicField names a top-level user field
type BasicField string

const (
	FieldFirstName BasicField = "first_name"
	FieldLastName  BasicField = "last_name"
	FieldEmail     BasicField = "email"
)

// SocialPlatform names a social network a user may have a handle on
type SocialPlatform string

const (
	PlatformTwitter   SocialPlatform = "twitter"
	PlatformLinkedIn  SocialPlatform = "linkedin"
	PlatformInstagram SocialPlatform = "instagram"
)

// PromoField names a promo code field
type PromoField string

const (
	PromoFieldCode               PromoField = "code"
	PromoFieldDiscountPercentage PromoField = "discount_percentage"
	PromoFieldStartDate          PromoField = "start_date"
	PromoFieldEndDate            PromoField = "end_date"
)

// FieldUpdate is one edit to the user editor draft.
// The set of implementations is closed: UpdateBasicInfo, UpdateSocial, UpdatePromo.
type FieldUpdate interface {
	fieldUpdate()
}

// UpdateBasicInfo sets a name or email field
type UpdateBasicInfo struct {
	Field BasicField
	Value string
}

// UpdateSocial sets a social handle; an empty value removes it
type UpdateSocial struct {
	Platform SocialPlatform
	Value    string
}

// UpdatePromo sets a promo code field
type UpdatePromo struct {
	Field PromoField
	Value string
}

func (UpdateBasicInfo) fieldUpdate() {}
func (UpdateSocial) fieldUpdate()    {}
func (UpdatePromo) fieldUpdate()     {}

// ApplyFieldUpdate applies cmd to user and returns the edited copy
func ApplyFieldUpdate(user models.User, cmd FieldUpdate) (models.User, error) {
	user = user.Clone()

	switch c := cmd.(type) {
	case UpdateBasicInfo:
		switch c.Field {
		case FieldFirstName:
			user.FirstName = c.Value
		case FieldLastName:
			user.LastName = c.Value
		case FieldEmail:
			user.Email = c.Value
		default:
			return user, fmt.Errorf("%w: unknown field %q", models.ErrInvalidField, c.Field)
		}

	case UpdateSocial:
		var handle *string
		if strings.TrimSpace(c.Value) != "" {
			handle = models.StringPtr(c.Value)
		}
		switch c.Platform {
		case PlatformTwitter:
			user.SocialMedia.Twitter = handle
		case PlatformLinkedIn:
			user.SocialMedia.LinkedIn = handle
		case PlatformInstagram:
			user.SocialMedia.Instagram = handle
		default:
			return user, fmt.Errorf("%w: unknown platform %q", models.ErrInvalidField, c.Platform)
		}

	case UpdatePromo:
		switch c.Field {
		case PromoFieldCode:
			user.PromoCode.Code = c.Value
		case PromoFieldDiscountPercentage:
			pct, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
			if err != nil {
				return user, fmt.Errorf("%w: discount_percentage %q is not a number", models.ErrInvalidField, c.Value)
			}
			user.PromoCode.DiscountPercentage = pct
		case PromoFieldStartDate, PromoFieldEndDate:
			if c.Value != "" && !models.ValidDate(c.Value) {
				return user, fmt.Errorf("%w: %s %q is not a YYYY-MM-DD date", models.ErrInvalidField, c.Field, c.Value)
			}
			if c.Field == PromoFieldStartDate {
				user.PromoCode.StartDate = c.Value
			} else {
				user.PromoCode.EndDate = c.Value
			}
		default:
			return user, fmt.Errorf("%w: unknown promo field %q", models.ErrInvalidField, c.Field)
		}

	default:
		return user, fmt.Errorf("%w: unsupported update %T", models.ErrInvalidField, cmd)
	}

	return user, nil
}
