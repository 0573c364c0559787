package lifecycle

import "errors"

var (
	ErrRoleMismatch        = errors.New("actor is not the required participant")
	ErrAlreadyOffered      = errors.New("offer already made")
	ErrAlreadyAccepted     = errors.New("offer already accepted")
	ErrAlreadyReviewed     = errors.New("participant already reviewed")
	ErrOfferNotYetMade     = errors.New("offer not yet made")
	ErrOfferNotAccepted    = errors.New("offer not accepted")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrIdentityUnavailable = errors.New("authenticated identity unavailable")
)
