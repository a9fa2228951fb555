package usecase

import (
	"context"
	"encoding/json"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/infrastructure/realtime"
	state "github.com/Gepardi-dot/ku-online-dev-sub000/internal/sync"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

// Output delivers one encoded frame to the session's surface (the websocket
// write pump). Implementations must be safe for concurrent use.
type Output func(frame []byte)

// Frame types pushed to the client.
const (
	FrameRoster            = "roster"
	FrameThread            = "thread"
	FrameThreadMessage     = "thread_message"
	FrameNotification      = "notification"
	FrameFavorite          = "favorite"
	FrameMessageBadge      = "message_badge"
	FrameNotificationBadge = "notification_badge"
	FrameFavoriteBadge     = "favorite_badge"
	FrameNotice            = "notice"
)

type frame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Session is the server-held realtime state of one connected user surface: the
// conversation roster, the optionally open thread, three badge counters and
// the subscriptions feeding them. It lives exactly as long as its websocket
// connection; Close tears everything down.
//
// All locally-originated writes are tracked before they reach the store, so
// the push echo of a write is recognized and never double-counted.
type Session struct {
	id     string
	userID string

	messaging     *MessagingUseCase
	notifications *NotificationUseCase
	favorites     *FavoriteUseCase

	subs    *realtime.SubscriptionManager
	tracker *state.MutationTracker[string]
	roster  *state.Roster

	messageUnread      *state.UnreadCounter
	notificationUnread *state.UnreadCounter
	favoriteBadge      *state.UnreadCounter

	out Output

	ctx    context.Context
	cancel context.CancelFunc

	mu        gosync.Mutex
	thread    *state.Thread
	threadSub *realtime.SubscriptionHandle
	closed    bool
}

// SessionFactory wires the dependencies shared by every session.
type SessionFactory struct {
	messaging     *MessagingUseCase
	notifications *NotificationUseCase
	favorites     *FavoriteUseCase
	broker        realtime.Broker
	window        time.Duration
}

func NewSessionFactory(messaging *MessagingUseCase, notifications *NotificationUseCase, favorites *FavoriteUseCase, broker realtime.Broker, window time.Duration) *SessionFactory {
	return &SessionFactory{
		messaging:     messaging,
		notifications: notifications,
		favorites:     favorites,
		broker:        broker,
		window:        window,
	}
}

func (f *SessionFactory) NewSession(userID string, out Output) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:            uuid.New().String(),
		userID:        userID,
		messaging:     f.messaging,
		notifications: f.notifications,
		favorites:     f.favorites,
		subs:          realtime.NewSubscriptionManager(f.broker),
		tracker:       state.NewMutationTracker[string](f.window),
		roster:        state.NewRoster(),
		out:           out,
		ctx:           ctx,
		cancel:        cancel,
	}

	s.messageUnread = state.NewUnreadCounter(f.messaging.CountUnread, func(n int) {
		s.emit(FrameMessageBadge, n)
	})
	s.notificationUnread = state.NewUnreadCounter(f.notifications.CountUnread, func(n int) {
		s.emit(FrameNotificationBadge, n)
	})
	s.favoriteBadge = state.NewUnreadCounter(func(ctx context.Context, userID string) (int, error) {
		n, err := f.favorites.Count(ctx, userID)
		return int(n), err
	}, func(n int) {
		s.emit(FrameFavoriteBadge, n)
	})

	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() string {
	return s.userID
}

// Context is canceled when the session closes, so work started under it is
// abandoned on teardown.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Start loads the initial roster and badge counts and opens the user-level
// subscriptions. A failed fetch degrades to a notice; a failed subscribe is
// fatal since the session would silently miss events.
func (s *Session) Start(ctx context.Context) error {
	summaries, err := s.messaging.ListConversations(ctx, s.userID)
	if err != nil {
		logger.Warn("session %s: initial roster load failed: %v", s.id, err)
		s.notice("Could not load conversations")
	} else {
		s.roster.Replace(summaries)
	}
	s.emitRoster()

	s.messageUnread.Refresh(ctx, s.userID)
	s.notificationUnread.Refresh(ctx, s.userID)
	s.favoriteBadge.Refresh(ctx, s.userID)

	type opening struct {
		scope   realtime.Scope
		channel string
		fn      realtime.Handler
	}
	openings := []opening{
		{realtime.ScopeUserConversations, realtime.UserConversationsChannel(s.userID), s.handleConversationEvent},
		{realtime.ScopeUserNotifications, realtime.UserNotificationsChannel(s.userID), s.handleNotificationEvent},
		{realtime.ScopeUserFavorites, realtime.UserFavoritesChannel(s.userID), s.handleFavoriteEvent},
	}
	for _, o := range openings {
		if _, err := s.subs.Open(s.ctx, o.scope, s.userID, o.channel, o.fn); err != nil {
			s.subs.CloseAll()
			return errors.Internal("Failed to open realtime subscription", err)
		}
	}

	return nil
}

// Close tears the session down: cancels in-flight hydrations, invalidates the
// open thread and releases every subscription. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	thread := s.thread
	s.thread = nil
	s.threadSub = nil
	s.mu.Unlock()

	if thread != nil {
		thread.Invalidate()
	}
	s.cancel()
	s.subs.CloseAll()
}

// --- user actions ------------------------------------------------------------

// Send performs an optimistic message send: the message id is generated and
// tracked before the write so the push echo is already suppressed when it
// arrives, then the local roster and thread are updated without waiting for
// the echo at all.
func (s *Session) Send(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	if input.MessageID == "" {
		input.MessageID = uuid.New().String()
	}
	s.tracker.Track(input.MessageID)

	message, err := s.messaging.SendMessage(ctx, s.userID, input)
	if err != nil {
		return nil, err
	}

	if thread := s.activeThread(message.ConversationID); thread != nil {
		if thread.AppendLive(message) {
			s.emit(FrameThreadMessage, message)
		}
	}
	if !s.roster.ApplyIncoming(message, true, true) {
		go s.hydrateConversation(message.ConversationID)
	}
	s.emitRoster()

	return message, nil
}

// OpenThread switches the active conversation: the previous thread
// subscription is closed before the new one opens, the history page is loaded
// under the new thread's generation, and the conversation is marked read.
func (s *Session) OpenThread(ctx context.Context, conversationID string, limit int) error {
	if conversationID == "" {
		return errors.BadRequest("Conversation id is required", nil)
	}

	thread := state.NewThread(conversationID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.BadRequest("Session is closed", nil)
	}
	previous := s.thread
	previousSub := s.threadSub
	s.thread = thread
	s.threadSub = nil
	s.mu.Unlock()

	if previous != nil {
		previous.Invalidate()
	}
	if previousSub != nil {
		previousSub.Close()
	}

	sub, err := s.subs.Open(s.ctx, realtime.ScopeThread, conversationID, realtime.ConversationChannel(conversationID), s.handleThreadEvent)
	if err != nil {
		return errors.Internal("Failed to subscribe to conversation", err)
	}

	s.mu.Lock()
	if s.thread != thread {
		// A newer OpenThread or Close won the race; undo our subscribe.
		s.mu.Unlock()
		sub.Close()
		return nil
	}
	s.threadSub = sub
	s.mu.Unlock()

	gen := thread.Generation()
	page, err := s.messaging.FetchMessages(ctx, s.userID, conversationID, limit, nil)
	if err != nil {
		logger.Warn("session %s: thread load failed for %s: %v", s.id, conversationID, err)
		s.notice("Could not load messages")
		return err
	}

	if thread.ApplyInitial(gen, page, limit) {
		s.emitThread(thread)
		s.markThreadRead(ctx, conversationID)
	}

	return nil
}

// LoadEarlier extends the open thread backwards from its oldest cursor.
func (s *Session) LoadEarlier(ctx context.Context, limit int) error {
	s.mu.Lock()
	thread := s.thread
	s.mu.Unlock()

	if thread == nil {
		return errors.BadRequest("No conversation is open", nil)
	}
	cursor, ok := thread.OldestCursor()
	if !ok {
		return errors.BadRequest("Thread history is not loaded yet", nil)
	}

	gen := thread.Generation()
	page, err := s.messaging.FetchMessages(ctx, s.userID, thread.ConversationID(), limit, &cursor)
	if err != nil {
		logger.Warn("session %s: load-earlier failed for %s: %v", s.id, thread.ConversationID(), err)
		s.notice("Could not load older messages")
		return err
	}

	if thread.ApplyEarlier(gen, page, limit) {
		s.emitThread(thread)
	}

	return nil
}

// CloseThread leaves the active conversation without ending the session.
func (s *Session) CloseThread() {
	s.mu.Lock()
	thread := s.thread
	sub := s.threadSub
	s.thread = nil
	s.threadSub = nil
	s.mu.Unlock()

	if thread != nil {
		thread.Invalidate()
	}
	if sub != nil {
		sub.Close()
	}
}

// MarkConversationRead clears a conversation's unread state locally first,
// then persists it. No push event follows; other surfaces converge on their
// next refresh.
func (s *Session) MarkConversationRead(ctx context.Context, conversationID string) error {
	if cleared := s.roster.MarkRead(conversationID); cleared > 0 {
		s.messageUnread.ApplyDelta(-cleared)
		s.emitRoster()
	}

	return s.messaging.MarkRead(ctx, s.userID, conversationID)
}

// DeleteConversation hides the conversation for this viewer. The delete echo
// on the user channel is tracked so the second application is a no-op.
func (s *Session) DeleteConversation(ctx context.Context, conversationID string) error {
	s.tracker.Track("conv:" + conversationID)

	if err := s.messaging.Delete(ctx, s.userID, conversationID); err != nil {
		return err
	}

	if cleared := s.roster.MarkRead(conversationID); cleared > 0 {
		s.messageUnread.ApplyDelta(-cleared)
	}
	s.roster.Remove(conversationID)
	if s.activeThread(conversationID) != nil {
		s.CloseThread()
	}
	s.emitRoster()

	return nil
}

// AddFavorite tracks by product id: the favorite row id is generated inside
// the store, so it cannot be known before the echo arrives.
func (s *Session) AddFavorite(ctx context.Context, productID string) error {
	s.tracker.Track("fav:" + productID)

	if _, err := s.favorites.Add(ctx, s.userID, productID); err != nil {
		return err
	}

	s.favoriteBadge.ApplyDelta(1)
	return nil
}

func (s *Session) RemoveFavorite(ctx context.Context, productID string) error {
	s.tracker.Track("fav:" + productID)

	if err := s.favorites.Remove(ctx, s.userID, productID); err != nil {
		return err
	}

	s.favoriteBadge.ApplyDelta(-1)
	return nil
}

func (s *Session) MarkNotificationRead(ctx context.Context, id string) error {
	s.tracker.Track("notifread:" + id)

	if err := s.notifications.MarkRead(ctx, s.userID, id); err != nil {
		return err
	}

	s.notificationUnread.ApplyDelta(-1)
	return nil
}

func (s *Session) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.notifications.MarkAllRead(ctx, s.userID); err != nil {
		return err
	}

	// Optimistic zero; the bulk echo re-counts authoritatively anyway.
	s.notificationUnread.ApplyDelta(-s.notificationUnread.Value())
	return nil
}

// --- push event handlers -----------------------------------------------------

func (s *Session) handleConversationEvent(event realtime.Event) {
	switch {
	case event.Table == realtime.TableMessages && event.Type == realtime.EventInsert:
		var message entity.Message
		if err := json.Unmarshal(event.Record, &message); err != nil {
			logger.Warn("session %s: malformed message event: %v", s.id, err)
			return
		}

		suppressed := s.tracker.Consume(message.ID) || message.SenderID == s.userID
		active := s.activeThread(message.ConversationID) != nil

		if !s.roster.ApplyIncoming(&message, suppressed, active) {
			go s.hydrateConversation(message.ConversationID)
		}
		if !suppressed && !active {
			s.messageUnread.ApplyDelta(1)
		}
		s.emitRoster()

	case event.Table == realtime.TableConversations && event.Type == realtime.EventDelete:
		var record struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Record, &record); err != nil {
			return
		}

		s.tracker.Consume("conv:" + record.ID)
		if cleared := s.roster.MarkRead(record.ID); cleared > 0 {
			s.messageUnread.ApplyDelta(-cleared)
		}
		if s.roster.Remove(record.ID) {
			s.emitRoster()
		}
	}
}

func (s *Session) handleThreadEvent(event realtime.Event) {
	if event.Table != realtime.TableMessages || event.Type != realtime.EventInsert {
		return
	}

	var message entity.Message
	if err := json.Unmarshal(event.Record, &message); err != nil {
		logger.Warn("session %s: malformed thread event: %v", s.id, err)
		return
	}

	thread := s.activeThread(message.ConversationID)
	if thread == nil {
		return
	}

	if thread.AppendLive(&message) {
		s.emit(FrameThreadMessage, &message)
	}

	// Arrivals in the open conversation are read immediately.
	if message.SenderID != s.userID {
		go func() {
			if err := s.messaging.MarkRead(s.ctx, s.userID, message.ConversationID); err != nil {
				logger.Warn("session %s: mark-read after live message failed: %v", s.id, err)
			}
		}()
	}
}

func (s *Session) handleNotificationEvent(event realtime.Event) {
	if event.Table != realtime.TableNotifications {
		return
	}

	switch event.Type {
	case realtime.EventInsert:
		var notification entity.Notification
		if err := json.Unmarshal(event.Record, &notification); err != nil {
			logger.Warn("session %s: malformed notification event: %v", s.id, err)
			return
		}
		notification.Kind = entity.DecodeKind(&notification)

		if !s.tracker.Consume(notification.ID) {
			s.notificationUnread.ApplyDelta(1)
		}
		s.emit(FrameNotification, &notification)

	case realtime.EventUpdate:
		var record struct {
			ID     string `json:"id"`
			IsRead bool   `json:"isRead"`
		}
		if err := json.Unmarshal(event.Record, &record); err != nil {
			return
		}

		if record.ID == "" {
			// Bulk transition; re-count instead of guessing the delta.
			s.notificationUnread.Refresh(s.ctx, s.userID)
			return
		}
		if s.tracker.Consume("notifread:" + record.ID) {
			return
		}
		if record.IsRead {
			s.notificationUnread.ApplyDelta(-1)
		}
	}
}

func (s *Session) handleFavoriteEvent(event realtime.Event) {
	if event.Table != realtime.TableFavorites {
		return
	}

	var favorite entity.Favorite
	if err := json.Unmarshal(event.Record, &favorite); err != nil {
		logger.Warn("session %s: malformed favorite event: %v", s.id, err)
		return
	}

	suppressed := s.tracker.Consume("fav:" + favorite.ProductID)

	switch event.Type {
	case realtime.EventInsert:
		if !suppressed {
			s.favoriteBadge.ApplyDelta(1)
		}
	case realtime.EventDelete:
		if !suppressed {
			s.favoriteBadge.ApplyDelta(-1)
		}
	}
	s.emit(FrameFavorite, &favorite)
}

// --- internals ---------------------------------------------------------------

func (s *Session) activeThread(conversationID string) *state.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thread != nil && s.thread.ConversationID() == conversationID {
		return s.thread
	}
	return nil
}

// hydrateConversation fetches the summary for a conversation a push event
// referenced before the roster knew it. Insert skips if a concurrent path
// already added the entry.
func (s *Session) hydrateConversation(conversationID string) {
	summary, err := s.messaging.GetSummary(s.ctx, conversationID, s.userID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			logger.Warn("session %s: hydration failed for conversation %s: %v", s.id, conversationID, err)
		}
		return
	}

	if s.roster.Insert(summary) {
		s.emitRoster()
	}
}

func (s *Session) markThreadRead(ctx context.Context, conversationID string) {
	if cleared := s.roster.MarkRead(conversationID); cleared > 0 {
		s.messageUnread.ApplyDelta(-cleared)
		s.emitRoster()
	}
	if err := s.messaging.MarkRead(ctx, s.userID, conversationID); err != nil {
		logger.Warn("session %s: mark-read failed for conversation %s: %v", s.id, conversationID, err)
	}
}

func (s *Session) emitRoster() {
	s.emit(FrameRoster, s.roster.Snapshot())
}

func (s *Session) emitThread(thread *state.Thread) {
	s.emit(FrameThread, map[string]interface{}{
		"conversationId": thread.ConversationID(),
		"messages":       thread.Messages(),
		"hasMore":        thread.HasMore(),
	})
}

func (s *Session) notice(message string) {
	s.emit(FrameNotice, message)
}

func (s *Session) emit(frameType string, payload interface{}) {
	if s.out == nil {
		return
	}

	encoded, err := json.Marshal(frame{Type: frameType, Payload: payload})
	if err != nil {
		logger.Error("session %s: failed to encode %s frame: %v", s.id, frameType, err)
		return
	}
	s.out(encoded)
}
