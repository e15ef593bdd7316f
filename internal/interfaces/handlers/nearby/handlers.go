package nearby

import (
	"strconv"
	"strings"

	nearbysvc "kh-travel-backend/internal/application/nearby"
	"kh-travel-backend/internal/interfaces/handlers/listings"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *nearbysvc.Service
}

// GET /api/v1/listings/nearby?lat=&lng=&radius=&category=
func (h *Handlers) Nearby(c *fiber.Ctx) error {
	v := &apperrors.ValidationError{}
	q := nearbysvc.Query{Categories: listings.SplitCSV(c.Query("category"))}
	q.Lat = floatParam(c, "lat", v)
	q.Lng = floatParam(c, "lng", v)
	q.RadiusKm = floatParam(c, "radius", v)
	if err := v.OrNil(); err != nil {
		return response.FromError(c, "nearby", err)
	}

	results, err := h.Service.Nearby(c.UserContext(), q)
	if err != nil {
		return response.FromError(c, "nearby", err)
	}
	radius := nearbysvc.DefaultRadiusKm
	if q.RadiusKm != nil {
		radius = *q.RadiusKm
	}
	return response.Success(c, "Nearby listings fetched successfully", results, fiber.Map{
		"count":  len(results),
		"radius": radius,
	})
}

func floatParam(c *fiber.Ctx, name string, v *apperrors.ValidationError) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.Add(name, "must be a number")
		return nil
	}
	return &f
}
