package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/asowa/marketplace/internal/audit"
	auditRepo "github.com/asowa/marketplace/internal/database/audit"
	"github.com/asowa/marketplace/internal/entities"
)

// AuditController serves the admin audit log.
type AuditController struct {
	audit *audit.Service
	log   logrus.FieldLogger
}

func NewAuditController(auditor *audit.Service, log logrus.FieldLogger) *AuditController {
	return &AuditController{audit: auditor, log: log}
}

// List handles GET /api/audit?type=&account=&limit=&offset=.
func (ac *AuditController) List(c *gin.Context) {
	var filter auditRepo.Filter

	if raw := c.Query("type"); raw != "" {
		eventType, ok := entities.ParseAuditEventType(raw)
		if !ok {
			respondBadRequest(c, "Invalid event type")
			return
		}
		filter.EventType = eventType
	}

	for _, param := range []struct {
		name string
		dst  *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		raw := c.Query(param.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondBadRequest(c, "Invalid "+param.name)
			return
		}
		*param.dst = n
	}

	if raw := c.Query("account"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			respondBadRequest(c, "Invalid account")
			return
		}
		filter.AccountID = uint(id)
	}

	events, total, err := ac.audit.Events(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, ac.log, err, "list audit events", "Failed to fetch audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
		"total":   total,
	})
}
