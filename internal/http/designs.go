package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/audit"
	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/database/designs"
	"github.com/asowa/marketplace/internal/entities"
	"github.com/asowa/marketplace/internal/uploads"
)

const designImageField = "image"

// multipart overhead allowed on top of the image limit
const formOverheadBytes = 1 << 20

// DesignsController serves the design catalogue.
type DesignsController struct {
	designs       DesignStore
	images        ImageStore
	maxImageBytes int64
	audit         *audit.Service
	log           logrus.FieldLogger
}

func NewDesignsController(store DesignStore, images ImageStore, maxImageBytes int64, auditor *audit.Service, log logrus.FieldLogger) *DesignsController {
	return &DesignsController{
		designs:       store,
		images:        images,
		maxImageBytes: maxImageBytes,
		audit:         auditor,
		log:           log,
	}
}

// List handles GET /api/designs.
func (dc *DesignsController) List(c *gin.Context) {
	list, err := dc.designs.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, dc.log, err, "list designs", "Failed to fetch designs")
		return
	}
	respondData(c, http.StatusOK, list)
}

// Get handles GET /api/designs/:id.
func (dc *DesignsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	design, err := dc.designs.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, entities.ErrDesignNotFound) {
			respondNotFound(c, "Design")
			return
		}
		respondInternalError(c, dc.log, err, "get design", "Failed to fetch design")
		return
	}
	respondData(c, http.StatusOK, design)
}

// Create handles POST /api/designs (multipart: name, price, category, image).
func (dc *DesignsController) Create(c *gin.Context) {
	dc.limitBody(c)

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		respondBadRequest(c, "Name is required")
		return
	}
	price, ok := parsePrice(c, c.PostForm("price"))
	if !ok {
		return
	}

	design := &entities.Design{
		Name:     name,
		Price:    price,
		Category: strings.TrimSpace(c.PostForm("category")),
	}

	image, ok := dc.saveImage(c)
	if !ok {
		return
	}
	design.Image = image

	if err := dc.designs.Create(c.Request.Context(), design); err != nil {
		dc.discardImage(image)
		respondInternalError(c, dc.log, err, "create design", "Failed to create design")
		return
	}
	dc.audit.LogDesign(actorID(c), audit.ActionDesignCreate, design.ID, design.Name)
	respondData(c, http.StatusCreated, design)
}

// Update handles PUT /api/designs/:id. Omitted fields keep their value.
func (dc *DesignsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	dc.limitBody(c)
	ctx := c.Request.Context()

	existing, err := dc.designs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, entities.ErrDesignNotFound) {
			respondNotFound(c, "Design")
			return
		}
		respondInternalError(c, dc.log, err, "get design", "Failed to update design")
		return
	}

	var changes designs.Changes
	if v, exists := c.GetPostForm("name"); exists {
		v = strings.TrimSpace(v)
		if v == "" {
			respondBadRequest(c, "Name is required")
			return
		}
		changes.Name = &v
	}
	if v, exists := c.GetPostForm("price"); exists {
		price, ok := parsePrice(c, v)
		if !ok {
			return
		}
		changes.Price = &price
	}
	if v, exists := c.GetPostForm("category"); exists {
		v = strings.TrimSpace(v)
		changes.Category = &v
	}

	image, ok := dc.saveImage(c)
	if !ok {
		return
	}
	if image != "" {
		changes.Image = &image
	}

	updated, err := dc.designs.Update(ctx, id, changes)
	if err != nil {
		dc.discardImage(image)
		if errors.Is(err, entities.ErrDesignNotFound) {
			respondNotFound(c, "Design")
			return
		}
		respondInternalError(c, dc.log, err, "update design", "Failed to update design")
		return
	}

	if image != "" && existing.Image != "" && existing.Image != image {
		dc.discardImage(existing.Image)
	}
	dc.audit.LogDesign(actorID(c), audit.ActionDesignUpdate, updated.ID, updated.Name)
	respondData(c, http.StatusOK, updated)
}

// Delete handles DELETE /api/designs/:id.
func (dc *DesignsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := dc.designs.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, entities.ErrDesignNotFound) {
			respondNotFound(c, "Design")
			return
		}
		respondInternalError(c, dc.log, err, "delete design", "Failed to delete design")
		return
	}

	dc.discardImage(deleted.Image)
	dc.audit.LogDesign(actorID(c), audit.ActionDesignDelete, deleted.ID, deleted.Name)
	respondMessage(c, "Design deleted successfully")
}

func (dc *DesignsController) limitBody(c *gin.Context) {
	if dc.maxImageBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dc.maxImageBytes+formOverheadBytes)
	}
}

// saveImage stores the optional image field. It returns "" when no image was
// sent and ok=false after responding with an error.
func (dc *DesignsController) saveImage(c *gin.Context) (string, bool) {
	header, err := c.FormFile(designImageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "Image is too large")
			return "", false
		}
		respondBadRequest(c, "Invalid image upload")
		return "", false
	}
	if dc.images == nil {
		respondBadRequest(c, "Image uploads are disabled")
		return "", false
	}

	file, err := header.Open()
	if err != nil {
		respondInternalError(c, dc.log, err, "open upload", "Failed to read image")
		return "", false
	}
	defer file.Close()

	path, err := dc.images.SaveDesignImage(file)
	switch {
	case err == nil:
		return path, true
	case errors.Is(err, uploads.ErrUnsupportedType), errors.Is(err, uploads.ErrEmpty):
		respondBadRequest(c, "Only images are allowed")
	case errors.Is(err, uploads.ErrTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "Image is too large")
	default:
		respondInternalError(c, dc.log, err, "save upload", "Failed to save image")
	}
	return "", false
}

func (dc *DesignsController) discardImage(path string) {
	if path == "" || dc.images == nil {
		return
	}
	if err := dc.images.Remove(path); err != nil {
		dc.log.WithError(err).WithField("image", path).Warn("failed to remove design image")
	}
}

func parsePrice(c *gin.Context, raw string) (float64, bool) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		respondBadRequest(c, "Price must be a non-negative number")
		return 0, false
	}
	return price, true
}

// actorID is the account performing the request, 0 outside the gate.
func actorID(c *gin.Context) uint {
	if account, ok := auth.CurrentAccount(c); ok {
		return account.ID
	}
	return 0
}
