package handler

import (
	"encoding/json"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "github.com/Gepardi-dot/ku-online-dev-sub000/internal/infrastructure/websocket"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/usecase"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

const defaultThreadPageSize = 60

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Restricted by the reverse proxy in production
	},
}

// SessionHandler upgrades the realtime endpoint and binds the connection to a
// session: connect starts it, disconnect tears it down.
type SessionHandler struct {
	sessions *usecase.SessionFactory
}

func NewSessionHandler(sessions *usecase.SessionFactory) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// sessionCommand is one client-initiated action on the open connection.
type sessionCommand struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id,omitempty"`
	ReceiverID     string `json:"receiver_id,omitempty"`
	ProductID      string `json:"product_id,omitempty"`
	Content        string `json:"content,omitempty"`
	NotificationID string `json:"notification_id,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

func (h *SessionHandler) HandleSession(c echo.Context) error {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(userID, conn)
	session := h.sessions.NewSession(userID, client.Enqueue)

	client.OnCommand = func(payload []byte) {
		h.dispatch(session, payload)
	}
	client.OnClose = session.Close

	if err := session.Start(c.Request().Context()); err != nil {
		logger.Error("Failed to start session for user %s: %v", userID, err)
		session.Close()
		conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump()

	return nil
}

func (h *SessionHandler) dispatch(session *usecase.Session, payload []byte) {
	var cmd sessionCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		logger.Warn("Ignoring malformed command from user %s: %v", session.UserID(), err)
		return
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultThreadPageSize
	}

	ctx := session.Context()

	var err error
	switch cmd.Action {
	case "open_thread":
		err = session.OpenThread(ctx, cmd.ConversationID, limit)
	case "close_thread":
		session.CloseThread()
	case "load_earlier":
		err = session.LoadEarlier(ctx, limit)
	case "send_message":
		_, err = session.Send(ctx, usecase.SendMessageInput{
			ConversationID: cmd.ConversationID,
			ReceiverID:     cmd.ReceiverID,
			ProductID:      cmd.ProductID,
			Content:        cmd.Content,
		})
	case "mark_read":
		err = session.MarkConversationRead(ctx, cmd.ConversationID)
	case "delete_conversation":
		err = session.DeleteConversation(ctx, cmd.ConversationID)
	case "add_favorite":
		err = session.AddFavorite(ctx, cmd.ProductID)
	case "remove_favorite":
		err = session.RemoveFavorite(ctx, cmd.ProductID)
	case "mark_notification_read":
		err = session.MarkNotificationRead(ctx, cmd.NotificationID)
	case "mark_all_notifications_read":
		err = session.MarkAllNotificationsRead(ctx)
	default:
		logger.Debug("Unknown command %q from user %s", cmd.Action, session.UserID())
	}

	if err != nil {
		logger.Warn("Command %q failed for user %s: %v", cmd.Action, session.UserID(), err)
	}
}
