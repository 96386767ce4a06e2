package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsync/signal-server/internal/config"
	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/repository"
	"github.com/meetsync/signal-server/internal/service"
	pkgjwt "github.com/meetsync/signal-server/pkg/jwt"
	"github.com/meetsync/signal-server/pkg/middleware"
)

type memMeetingRepo struct {
	mu       sync.Mutex
	meetings map[string]*domain.Meeting
}

func (r *memMeetingRepo) FindByMeetingID(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meeting, ok := r.meetings[meetingID]
	if !ok {
		return nil, repository.ErrMeetingNotFound
	}
	clone := *meeting
	return &clone, nil
}

func (r *memMeetingRepo) Create(ctx context.Context, meeting *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[meeting.MeetingID]; ok {
		return repository.ErrMeetingExists
	}
	clone := *meeting
	r.meetings[meeting.MeetingID] = &clone
	return nil
}

func (r *memMeetingRepo) Save(ctx context.Context, meeting *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *meeting
	r.meetings[meeting.MeetingID] = &clone
	return nil
}

func newTestRouter(t *testing.T, iceServers []config.ICEServerConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &memMeetingRepo{meetings: make(map[string]*domain.Meeting)}
	meetingSvc := service.NewMeetingService(repo, nil, time.Minute)
	authMiddleware := middleware.NewAuthMiddleware(&fakeValidator{claims: map[string]*pkgjwt.Claims{
		"token-a": {UserID: "user-a", Name: "Alice"},
	}})

	r := gin.New()
	NewHTTPHandler(meetingSvc, authMiddleware, iceServers).RegisterRoutes(r)
	return r
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateMeeting_RequiresAuth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "POST", "/api/v1/meetings", "", `{"meetingId":"TEAM-SYNC"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, "POST", "/api/v1/meetings", "bogus", `{"meetingId":"TEAM-SYNC"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndGetMeeting(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "POST", "/api/v1/meetings", "token-a", `{"meetingId":"TEAM-SYNC"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data domain.MeetingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "TEAM-SYNC", created.Data.MeetingID)
	assert.Equal(t, "user-a", created.Data.HostID)
	assert.True(t, created.Data.IsActive)

	w = doJSON(r, "GET", "/api/v1/meetings/TEAM-SYNC", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var fetched struct {
		Data domain.MeetingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "user-a", fetched.Data.HostID)
}

func TestCreateMeeting_Conflict(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "POST", "/api/v1/meetings", "token-a", `{"meetingId":"TEAM-SYNC"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "POST", "/api/v1/meetings", "token-a", `{"meetingId":"TEAM-SYNC"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateMeeting_GeneratedCode(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "POST", "/api/v1/meetings", "token-a", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data domain.MeetingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Len(t, created.Data.MeetingID, 8)
}

func TestGetMeeting_NotFound(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "GET", "/api/v1/meetings/NO-SUCH", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetICEServers_DefaultSTUNFallback(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "GET", "/api/v1/ice-servers", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ICEServers []config.ICEServerConfig `json:"iceServers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, resp.Data.ICEServers[0].URLs)
}

func TestGetICEServers_ConfiguredTURN(t *testing.T) {
	r := newTestRouter(t, []config.ICEServerConfig{{
		URLs:       []string{"turn:turn.example.com:3478"},
		Username:   "relay",
		Credential: "secret",
	}})

	w := doJSON(r, "GET", "/api/v1/ice-servers", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ICEServers []config.ICEServerConfig `json:"iceServers"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.ICEServers, 2)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, resp.Data.ICEServers[0].URLs)
	assert.Equal(t, "relay", resp.Data.ICEServers[1].Username)
}
