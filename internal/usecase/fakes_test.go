package usecase

import (
	"context"
	"encoding/json"
	"sort"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/Gepardi-dot/ku-online-dev-sub000/internal/domain/entity"
	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
)

// In-memory repositories backing the session tests. Entities are copied on
// the way in and out so tests cannot alias store state.

type memoryConversationRepo struct {
	mu            gosync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
}

func newMemoryConversationRepo() *memoryConversationRepo {
	return &memoryConversationRepo{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
	}
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.DeletedFor = append([]string(nil), c.DeletedFor...)
	out.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	return &out
}

func (r *memoryConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	conversation.Participants = []string{conversation.SellerID, conversation.BuyerID}
	r.conversations[conversation.ID] = cloneConversation(conversation)
	return nil
}

func (r *memoryConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(conversation), nil
}

func (r *memoryConversationRepo) GetByParticipants(ctx context.Context, sellerID, buyerID, productID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, conversation := range r.conversations {
		if conversation.SellerID == sellerID && conversation.BuyerID == buyerID && conversation.ProductID == productID {
			return cloneConversation(conversation), nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *memoryConversationRepo) ListForUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Conversation
	for _, conversation := range r.conversations {
		if !conversation.HasParticipant(userID) || conversation.DeletedBy(userID) {
			continue
		}
		out = append(out, cloneConversation(conversation))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (r *memoryConversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversation.ID]; !ok {
		return errors.NotFound("Conversation", nil)
	}
	r.conversations[conversation.ID] = cloneConversation(conversation)
	return nil
}

func (r *memoryConversationRepo) DeleteForUser(ctx context.Context, conversationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if !conversation.DeletedBy(userID) {
		conversation.DeletedFor = append(conversation.DeletedFor, userID)
	}
	return nil
}

func (r *memoryConversationRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	copied := *message
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], &copied)
	return nil
}

func (r *memoryConversationRepo) FetchMessages(ctx context.Context, conversationID string, limit int, before *time.Time) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var eligible []*entity.Message
	for _, message := range r.messages[conversationID] {
		if before != nil && !message.CreatedAt.Before(*before) {
			continue
		}
		copied := *message
		eligible = append(eligible, &copied)
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	if limit > 0 && len(eligible) > limit {
		eligible = eligible[len(eligible)-limit:]
	}
	return eligible, nil
}

func (r *memoryConversationRepo) MarkRead(ctx context.Context, conversationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if conversation.UnreadCount != nil {
		conversation.UnreadCount[userID] = 0
	}
	return nil
}

func (r *memoryConversationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, conversation := range r.conversations {
		if !conversation.HasParticipant(userID) || conversation.DeletedBy(userID) {
			continue
		}
		if conversation.UnreadCount != nil {
			total += conversation.UnreadCount[userID]
		}
	}
	return total, nil
}

type memoryNotificationRepo struct {
	mu            gosync.Mutex
	notifications map[string]*entity.Notification
}

func newMemoryNotificationRepo() *memoryNotificationRepo {
	return &memoryNotificationRepo{
		notifications: make(map[string]*entity.Notification),
	}
}

func (r *memoryNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	copied := *notification
	r.notifications[notification.ID] = &copied
	return nil
}

func (r *memoryNotificationRepo) Fetch(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Notification
	for _, notification := range r.notifications {
		if notification.UserID != userID {
			continue
		}
		copied := *notification
		copied.Kind = entity.DecodeKind(&copied)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notification, ok := r.notifications[id]
	if !ok {
		return errors.NotFound("Notification", nil)
	}
	if notification.UserID != userID {
		return errors.Forbidden("Notification belongs to another user", nil)
	}
	notification.IsRead = true
	return nil
}

func (r *memoryNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, notification := range r.notifications {
		if notification.UserID == userID {
			notification.IsRead = true
		}
	}
	return nil
}

func (r *memoryNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, notification := range r.notifications {
		if notification.UserID == userID && !notification.IsRead {
			total++
		}
	}
	return total, nil
}

type memoryFavoriteRepo struct {
	mu        gosync.Mutex
	favorites map[string]*entity.Favorite
}

func newMemoryFavoriteRepo() *memoryFavoriteRepo {
	return &memoryFavoriteRepo{
		favorites: make(map[string]*entity.Favorite),
	}
}

func favoriteKey(userID, productID string) string {
	return userID + "|" + productID
}

func (r *memoryFavoriteRepo) Add(ctx context.Context, userID, productID string) (*entity.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favoriteKey(userID, productID)
	if existing, ok := r.favorites[key]; ok {
		copied := *existing
		return &copied, nil
	}

	favorite := &entity.Favorite{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
	r.favorites[key] = favorite
	copied := *favorite
	return &copied, nil
}

func (r *memoryFavoriteRepo) Remove(ctx context.Context, userID, productID string) (*entity.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := favoriteKey(userID, productID)
	favorite, ok := r.favorites[key]
	if !ok {
		return nil, errors.NotFound("Favorite", nil)
	}
	delete(r.favorites, key)
	copied := *favorite
	return &copied, nil
}

func (r *memoryFavoriteRepo) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.favorites[favoriteKey(userID, productID)]
	return ok, nil
}

func (r *memoryFavoriteRepo) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Favorite, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Favorite
	for _, favorite := range r.favorites {
		if favorite.UserID != userID {
			continue
		}
		copied := *favorite
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *memoryFavoriteRepo) Count(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, favorite := range r.favorites {
		if favorite.UserID == userID {
			total++
		}
	}
	return total, nil
}

// frameRecorder captures frames a session pushed to its surface.
type frameRecorder struct {
	mu     gosync.Mutex
	frames []frame
}

func (r *frameRecorder) out(encoded []byte) {
	var f frame
	if err := json.Unmarshal(encoded, &f); err != nil {
		return
	}
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *frameRecorder) countByType(frameType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, f := range r.frames {
		if f.Type == frameType {
			n++
		}
	}
	return n
}
