package progress

import (
	"strings"

	progresssvc "kh-travel-backend/internal/application/progress"
	"kh-travel-backend/internal/middleware"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *progresssvc.Service
}

// ToggleRequest is the body of POST /user/bookmark and /user/visited.
type ToggleRequest struct {
	ItemID   string `json:"itemId"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

var toggleMessages = map[progresssvc.Kind]map[progresssvc.Action]string{
	progresssvc.KindBookmark: {progresssvc.ActionAdd: "Bookmark added", progresssvc.ActionRemove: "Bookmark removed"},
	progresssvc.KindVisited:  {progresssvc.ActionAdd: "Marked as visited", progresssvc.ActionRemove: "Visit removed"},
}

// POST /api/v1/user/bookmark
func (h *Handlers) Bookmark(c *fiber.Ctx) error {
	return h.toggle(c, progresssvc.KindBookmark)
}

// POST /api/v1/user/visited
func (h *Handlers) Visited(c *fiber.Ctx) error {
	return h.toggle(c, progresssvc.KindVisited)
}

func (h *Handlers) toggle(c *fiber.Ctx, kind progresssvc.Kind) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Authentication required")
	}
	var req ToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Validation(c, "Invalid request body", nil)
	}
	listingID, err := uuid.Parse(strings.TrimSpace(req.ItemID))
	if err != nil {
		return response.FromError(c, "progress."+string(kind), apperrors.Invalid("itemId", "must be a listing id"))
	}
	action := progresssvc.Action(strings.ToLower(strings.TrimSpace(req.Action)))

	state, err := h.Service.Toggle(c.UserContext(), progresssvc.ToggleInput{
		UserID:    user.UserID,
		ListingID: listingID,
		Category:  strings.ToLower(strings.TrimSpace(req.Category)),
		Kind:      kind,
		Action:    action,
	})
	if err != nil {
		return response.FromError(c, "progress."+string(kind), err)
	}
	return response.Success(c, toggleMessages[kind][action], state, nil)
}

// GET /api/v1/user/progress/:listingId
func (h *Handlers) Status(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Authentication required")
	}
	listingID, err := uuid.Parse(c.Params("listingId"))
	if err != nil {
		return response.FromError(c, "progress.status", apperrors.Invalid("listingId", "must be a listing id"))
	}
	state, err := h.Service.Status(c.UserContext(), user.UserID, listingID)
	if err != nil {
		return response.FromError(c, "progress.status", err)
	}
	return response.Success(c, "Progress fetched successfully", state, nil)
}

// GET /api/v1/user/lists
func (h *Handlers) Lists(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Authentication required")
	}
	lists, err := h.Service.Lists(c.UserContext(), user.UserID)
	if err != nil {
		return response.FromError(c, "progress.lists", err)
	}
	return response.Success(c, "Lists fetched successfully", lists, nil)
}

// GET /api/v1/user/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Authentication required")
	}
	stats, err := h.Service.Stats(c.UserContext(), user.UserID)
	if err != nil {
		return response.FromError(c, "progress.stats", err)
	}
	return response.Success(c, "Stats fetched successfully", stats, nil)
}
