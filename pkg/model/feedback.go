package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var ErrInvalidRating = goerr.New("invalid feedback rating")

type Rating string

const (
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// Validate checks if the rating is valid
func (r Rating) Validate() error {
	switch r {
	case RatingUp, RatingDown:
		return nil
	default:
		return goerr.Wrap(ErrInvalidRating, "unknown rating", goerr.V("rating", r))
	}
}

// Feedback is an operator rating of an execution's response.
type Feedback struct {
	ID          int64
	ExecutionID ExecutionID
	Rating      Rating
	Comment     string
	CreatedAt   time.Time
}
