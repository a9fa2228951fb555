package entity

import "time"

type NotificationType string

const (
	NotificationTypeListing NotificationType = "listing"
	NotificationTypeMessage NotificationType = "message"
	NotificationTypeSystem  NotificationType = "system"
)

// ListingKind is the closed set of listing event sub-tags carried in the
// notification meta payload. Unknown values decode to ListingKindUnknown
// instead of being passed through as raw strings.
type ListingKind string

const (
	ListingKindSold         ListingKind = "sold"
	ListingKindPriceUpdated ListingKind = "price_updated"
	ListingKindBackOnline   ListingKind = "back_online"
	ListingKindUpdated      ListingKind = "listing_updated"
	ListingKindUnknown      ListingKind = ""
)

type Notification struct {
	ID        string                 `json:"id" firestore:"id"`
	UserID    string                 `json:"user_id" firestore:"userId"`
	Type      NotificationType       `json:"type" firestore:"type"`
	RelatedID string                 `json:"related_id,omitempty" firestore:"relatedId,omitempty"`
	Title     string                 `json:"title" firestore:"title"`
	Content   string                 `json:"content" firestore:"content"`
	IsRead    bool                   `json:"is_read" firestore:"isRead"`
	Meta      map[string]interface{} `json:"meta,omitempty" firestore:"meta,omitempty"`
	Kind      ListingKind            `json:"kind,omitempty" firestore:"-"`
	CreatedAt time.Time              `json:"created_at" firestore:"createdAt"`
}

// DecodeKind resolves the meta "kind" sub-tag into a ListingKind. Called once
// where notifications enter the process; everything downstream matches on the
// typed field, never on the meta blob.
func DecodeKind(n *Notification) ListingKind {
	if n.Type != NotificationTypeListing || n.Meta == nil {
		return ListingKindUnknown
	}

	raw, ok := n.Meta["kind"].(string)
	if !ok {
		return ListingKindUnknown
	}

	switch ListingKind(raw) {
	case ListingKindSold:
		return ListingKindSold
	case ListingKindPriceUpdated:
		return ListingKindPriceUpdated
	case ListingKindBackOnline:
		return ListingKindBackOnline
	case ListingKindUpdated:
		return ListingKindUpdated
	default:
		return ListingKindUnknown
	}
}
