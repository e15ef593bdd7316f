package reviews

import (
	"time"

	reviewsvc "kh-travel-backend/internal/application/reviews"
	"kh-travel-backend/internal/domain"
	"kh-travel-backend/internal/interfaces/handlers/listings"
	"kh-travel-backend/internal/middleware"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *reviewsvc.Service
}

type CreateRequest struct {
	Rating  int     `json:"rating"`
	Content *string `json:"content"`
}

// Reviewer is the public part of a user shown next to a review.
type Reviewer struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Image  *string   `json:"image"`
}

type ReviewView struct {
	ReviewID  uuid.UUID `json:"review_id"`
	Rating    int       `json:"rating"`
	Content   *string   `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	User      *Reviewer `json:"user"`
}

func toView(r domain.Review) ReviewView {
	v := ReviewView{ReviewID: r.ReviewID, Rating: r.Rating, Content: r.Content, CreatedAt: r.CreatedAt}
	if r.User != nil {
		v.User = &Reviewer{UserID: r.User.UserID, Name: r.User.Name, Image: r.User.Image}
	}
	return v
}

// GET /api/v1/listings/:slug/reviews?page=&pageSize=
func (h *Handlers) List(c *fiber.Ctx) error {
	page, size := listings.ParsePaging(c)
	reviews, total, err := h.Service.List(c.UserContext(), c.Params("slug"), page, size)
	if err != nil {
		return response.FromError(c, "reviews.list", err)
	}
	out := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toView(r))
	}
	return response.Success(c, "Reviews fetched successfully", out, fiber.Map{
		"page":     page,
		"pageSize": size,
		"total":    total,
	})
}

// POST /api/v1/listings/:slug/reviews
func (h *Handlers) Create(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Authentication required")
	}
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Validation(c, "Invalid request body", nil)
	}
	created, err := h.Service.Create(c.UserContext(), reviewsvc.CreateInput{
		Slug:    c.Params("slug"),
		UserID:  user.UserID,
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		return response.FromError(c, "reviews.create", err)
	}
	return response.SuccessCreated(c, "Review submitted successfully", fiber.Map{
		"review":     toView(created.Review),
		"avg_rating": created.AvgRating,
	}, nil)
}
