package nearby

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"kh-travel-backend/internal/application/listings"
	"kh-travel-backend/internal/domain"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/constants"
	"kh-travel-backend/internal/pkg/geo"
)

const (
	DefaultRadiusKm = 10.0
	MinRadiusKm     = 1.0
	MaxRadiusKm     = 50.0
)

// Result is a listing annotated with its distance from the query origin in km.
type Result struct {
	domain.Listing
	Distance float64 `json:"distance"`
}

// CandidateSource is the part of the listing store the ranker reads from.
type CandidateSource interface {
	FindMany(ctx context.Context, f listings.Filter) ([]domain.Listing, error)
}

type Query struct {
	Lat        *float64
	Lng        *float64
	RadiusKm   *float64
	Categories []string
}

// Service answers nearby queries. Candidates are re-read on every call.
type Service struct {
	Store CandidateSource
}

// Validate resolves the query into an origin, a radius and a category set.
func (q Query) Validate() (geo.Point, float64, []string, error) {
	v := &apperrors.ValidationError{}
	var origin geo.Point

	if q.Lat == nil {
		v.Add("lat", "is required")
	} else {
		origin.Lat = *q.Lat
	}
	if q.Lng == nil {
		v.Add("lng", "is required")
	} else {
		origin.Lng = *q.Lng
	}
	// a missing coordinate stays 0, which is always in range
	if err := origin.Validate(); errors.Is(err, geo.ErrInvalidLatitude) {
		v.Add("lat", err.Error())
	} else if err != nil {
		v.Add("lng", err.Error())
	}

	radius := DefaultRadiusKm
	if q.RadiusKm != nil {
		radius = *q.RadiusKm
		if math.IsNaN(radius) || radius < MinRadiusKm || radius > MaxRadiusKm {
			v.Add("radius", fmt.Sprintf("must be between %g and %g km", MinRadiusKm, MaxRadiusKm))
		}
	}

	var cats []string
	for _, c := range q.Categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !constants.IsValidCategory(c) {
			v.Add("category", "must be one of "+strings.Join(constants.Categories, ", "))
			continue
		}
		cats = append(cats, c)
	}

	if err := v.OrNil(); err != nil {
		return geo.Point{}, 0, nil, err
	}
	return origin, radius, cats, nil
}

// Nearby validates the query, loads candidates and ranks them.
func (s *Service) Nearby(ctx context.Context, q Query) ([]Result, error) {
	origin, radius, cats, err := q.Validate()
	if err != nil {
		return nil, err
	}
	candidates, err := s.Store.FindMany(ctx, listings.Filter{
		Categories:      cats,
		WithCoordinates: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load nearby candidates: %w", err)
	}
	return Rank(origin, radius, candidates), nil
}

// Rank keeps listings within radiusKm of origin, nearest first. Listings
// without coordinates are dropped; equal distances keep input order.
func Rank(origin geo.Point, radiusKm float64, candidates []domain.Listing) []Result {
	out := make([]Result, 0, len(candidates))
	for _, l := range candidates {
		p, ok := l.Point()
		if !ok {
			continue
		}
		d := geo.Haversine(origin, p)
		if d > radiusKm {
			continue
		}
		out = append(out, Result{Listing: l, Distance: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}
