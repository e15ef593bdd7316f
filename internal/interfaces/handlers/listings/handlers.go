package listings

import (
	"strings"

	listsvc "kh-travel-backend/internal/application/listings"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/constants"
	"kh-travel-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handlers struct {
	Service *listsvc.Service
}

// Page is the paging metadata returned with list responses.
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Count    int `json:"count"`
}

// ParsePaging reads page/pageSize query params, clamping to sane bounds.
func ParsePaging(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("pageSize", defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// SplitCSV splits a comma separated query value, dropping blanks.
func SplitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GET /api/v1/listings?category=&province=&tag=&q=&page=&pageSize=
func (h *Handlers) List(c *fiber.Ctx) error {
	v := &apperrors.ValidationError{}
	cats := SplitCSV(c.Query("category"))
	for _, cat := range cats {
		if !constants.IsValidCategory(cat) {
			v.Add("category", "must be one of "+strings.Join(constants.Categories, ", "))
		}
	}
	province := strings.TrimSpace(c.Query("province"))
	if province != "" && !constants.IsValidProvince(province) {
		v.Add("province", "unknown province")
	}
	if err := v.OrNil(); err != nil {
		return response.FromError(c, "listings.list", err)
	}

	page, size := ParsePaging(c)
	out, err := h.Service.FindMany(c.UserContext(), listsvc.Filter{
		Categories: cats,
		Province:   province,
		Tag:        c.Query("tag"),
		Text:       c.Query("q"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		return response.FromError(c, "listings.list", err)
	}
	return response.Success(c, "Listings fetched successfully", out, Page{Page: page, PageSize: size, Count: len(out)})
}

// GET /api/v1/listings/:slug
func (h *Handlers) Get(c *fiber.Ctx) error {
	listing, err := h.Service.FindBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return response.FromError(c, "listings.get", err)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// POST /api/v1/admin/listings
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in listsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Validation(c, "Invalid request body", nil)
	}
	listing, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, "listings.create", err)
	}
	return response.SuccessCreated(c, "Listing created successfully", listing, nil)
}

// PUT /api/v1/admin/listings/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, "listings.update", apperrors.Invalid("id", "must be a UUID"))
	}
	var in listsvc.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Validation(c, "Invalid request body", nil)
	}
	listing, err := h.Service.Update(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, "listings.update", err)
	}
	return response.Success(c, "Listing updated successfully", listing, nil)
}

// DELETE /api/v1/admin/listings/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.FromError(c, "listings.delete", apperrors.Invalid("id", "must be a UUID"))
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, "listings.delete", err)
	}
	return response.Success(c, "Listing deleted successfully", fiber.Map{"listing_id": id}, nil)
}
