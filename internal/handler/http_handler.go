package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/meetsync/signal-server/internal/config"
	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/service"
	"github.com/meetsync/signal-server/pkg/log"
	"github.com/meetsync/signal-server/pkg/middleware"
	"github.com/meetsync/signal-server/pkg/response"
)

// HTTPHandler handles the REST meeting API.
type HTTPHandler struct {
	meetingService service.MeetingService
	authMiddleware *middleware.AuthMiddleware
	iceServers     []config.ICEServerConfig
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(meetingService service.MeetingService, authMiddleware *middleware.AuthMiddleware, iceServers []config.ICEServerConfig) *HTTPHandler {
	return &HTTPHandler{
		meetingService: meetingService,
		authMiddleware: authMiddleware,
		iceServers:     iceServers,
	}
}

// RegisterRoutes registers all routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		meetings := api.Group("/meetings")
		{
			meetings.GET("/:id", h.GetMeeting)
			meetings.POST("", h.authMiddleware.RequireAuth(), h.CreateMeeting)
		}

		api.GET("/ice-servers", h.GetICEServers)
	}
}

// CreateMeeting creates a new meeting record owned by the caller.
func (h *HTTPHandler) CreateMeeting(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req domain.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create meeting request")
		response.BadRequest(c, err.Error())
		return
	}

	meeting, err := h.meetingService.CreateMeeting(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrMeetingExists) {
			response.Conflict(c, "meeting already exists")
			return
		}
		l.Error().Err(err).Msg("failed to create meeting")
		response.InternalError(c, "failed to create meeting")
		return
	}

	response.Created(c, meeting)
}

// GetMeeting retrieves a meeting by its id.
func (h *HTTPHandler) GetMeeting(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	meetingID := c.Param("id")

	meeting, err := h.meetingService.GetMeeting(ctx, meetingID)
	if err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			response.NotFound(c, "meeting not found")
			return
		}
		l.Error().Err(err).Str(log.FieldMeetingID, meetingID).Msg("failed to get meeting")
		response.InternalError(c, "failed to get meeting")
		return
	}

	response.Success(c, meeting)
}

// GetICEServers returns ICE server configuration for WebRTC clients.
func (h *HTTPHandler) GetICEServers(c *gin.Context) {
	servers := h.iceServers

	// Always include a STUN server as fallback
	hasSTUN := false
	for _, s := range servers {
		for _, url := range s.URLs {
			if len(url) > 4 && url[:4] == "stun" {
				hasSTUN = true
				break
			}
		}
	}
	if !hasSTUN {
		servers = append([]config.ICEServerConfig{{
			URLs: []string{"stun:stun.l.google.com:19302"},
		}}, servers...)
	}

	response.Success(c, gin.H{"iceServers": servers})
}
