package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/meetsync/signal-server/internal/auth"
	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/hub"
	"github.com/meetsync/signal-server/internal/service"
	pkglog "github.com/meetsync/signal-server/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub        *hub.Hub
	service    service.SignalService
	verifier   *auth.Verifier
	options    hub.Options
	sendBuffer int
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc service.SignalService, verifier *auth.Verifier, options hub.Options, sendBuffer int) *WSHandler {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &WSHandler{
		hub:        h,
		service:    svc,
		verifier:   verifier,
		options:    options,
		sendBuffer: sendBuffer,
	}
}

// HandleWebSocket authenticates the handshake, upgrades the connection and
// starts the client pumps. Unauthenticated requests are refused before the
// upgrade with 401.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := pkglog.L()

	identity, err := h.verifier.VerifyRequest(r.Context(), r)
	if err != nil {
		if !errors.Is(err, auth.ErrUnauthorized) {
			l.Error().Err(err).Msg("handshake verification error")
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	client := &hub.Client{
		ID:      clientID,
		Hub:     h.hub,
		Conn:    conn,
		Send:    make(chan []byte, h.sendBuffer),
		Session: domain.NewSession(clientID, identity),
		Options: h.options,
	}

	// Clean up room membership before the client unregisters
	client.SetDisconnectHandler(func(c *hub.Client) {
		ctx := context.Background()
		if err := h.service.HandleDisconnect(ctx, c); err != nil {
			l.Error().Err(err).Str(pkglog.FieldConnectionID, c.ID).Msg("disconnect handler error")
		}
	})

	h.hub.Register(client)
	l.Info().
		Str(pkglog.FieldConnectionID, clientID).
		Str(pkglog.FieldUserID, identity.ID).
		Msg("client connected")

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	l := pkglog.L()

	msg, err := domain.DecodeClientMessage(message)
	if err != nil {
		client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := context.Background()

	switch m := msg.(type) {
	case domain.JoinMeetingMessage:
		err = h.service.HandleJoinMeeting(ctx, client, m)
	case domain.OfferMessage:
		err = h.service.HandleOffer(ctx, client, m)
	case domain.AnswerMessage:
		err = h.service.HandleAnswer(ctx, client, m)
	case domain.ICECandidateMessage:
		err = h.service.HandleICECandidate(ctx, client, m)
	case domain.ChatMessage:
		err = h.service.HandleChatMessage(ctx, client, m)
	case domain.MediaStateMessage:
		err = h.service.HandleMediaState(ctx, client, m)
	case domain.LeaveMeetingMessage:
		err = h.service.HandleLeaveMeeting(ctx, client, m)
	default:
		client.SendMessage(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Unknown message type"))
		return
	}

	if err != nil {
		l.Error().
			Err(err).
			Str(pkglog.FieldConnectionID, client.ID).
			Str(pkglog.FieldMessageKind, string(msg.Kind())).
			Msg("signaling handler error")
	}
}
