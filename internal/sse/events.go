// Package sse implements Server-Sent Events for live listing and session updates.
package sse

import (
	"time"

	"github.com/templatedir/templatedir-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventListingCreated is sent to everyone when a listing is submitted.
	EventListingCreated EventType = "listing.created"
	// EventListingUpvoted is sent to everyone when a listing's upvote count changes.
	EventListingUpvoted EventType = "listing.upvoted"

	// EventReviewCreated is sent to everyone when a review is posted.
	EventReviewCreated EventType = "review.created"

	// EventListCreated represents a list creation. User-scoped.
	EventListCreated EventType = "list.created"
	// EventListDeleted represents a list deletion. User-scoped.
	EventListDeleted EventType = "list.deleted"
	// EventMembershipChanged is sent when a listing enters or leaves a list. User-scoped.
	EventMembershipChanged EventType = "list.membership_changed"

	// EventSignedIn and EventSignedOut are the session-change notifications.
	// Both are user-scoped.
	EventSignedIn  EventType = "auth.signed_in"
	EventSignedOut EventType = "auth.signed_out"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one user's connections. Empty broadcasts.
	UserID string `json:"-"`
	// ListingID names the listing the event concerns, so connections
	// watching a single listing can skip the rest.
	ListingID string `json:"-"`
}

// ListingEventData is the data payload for listing.created.
type ListingEventData struct {
	Listing *domain.Listing `json:"listing"`
}

// UpvoteEventData is the data payload for listing.upvoted.
type UpvoteEventData struct {
	ListingID string `json:"repo_id"`
	Upvotes   int    `json:"upvotes"`
}

// ReviewEventData is the data payload for review.created.
type ReviewEventData struct {
	Review *domain.Review `json:"review"`
}

// ListEventData is the data payload for list events.
type ListEventData struct {
	List *domain.List `json:"list"`
}

// ListDeletedEventData is the data payload for list.deleted.
type ListDeletedEventData struct {
	ListID string `json:"list_id"`
}

// MembershipEventData is the data payload for list.membership_changed.
type MembershipEventData struct {
	ListID    string `json:"list_id"`
	ListingID string `json:"repo_id"`
	Member    bool   `json:"member"`
}

// SessionEventData is the data payload for auth events.
type SessionEventData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewListingCreatedEvent creates a listing.created event.
func NewListingCreatedEvent(listing *domain.Listing) Event {
	e := newEvent(EventListingCreated, ListingEventData{Listing: listing})
	e.ListingID = listing.ID
	return e
}

// NewListingUpvotedEvent creates a listing.upvoted event.
func NewListingUpvotedEvent(listingID string, upvotes int) Event {
	e := newEvent(EventListingUpvoted, UpvoteEventData{ListingID: listingID, Upvotes: upvotes})
	e.ListingID = listingID
	return e
}

// NewReviewCreatedEvent creates a review.created event.
func NewReviewCreatedEvent(review *domain.Review) Event {
	e := newEvent(EventReviewCreated, ReviewEventData{Review: review})
	e.ListingID = review.ListingID
	return e
}

// NewListCreatedEvent creates a list.created event for the list owner.
func NewListCreatedEvent(list *domain.List) Event {
	e := newEvent(EventListCreated, ListEventData{List: list})
	e.UserID = list.OwnerID
	return e
}

// NewListDeletedEvent creates a list.deleted event for the list owner.
func NewListDeletedEvent(ownerID, listID string) Event {
	e := newEvent(EventListDeleted, ListDeletedEventData{ListID: listID})
	e.UserID = ownerID
	return e
}

// NewMembershipChangedEvent creates a list.membership_changed event for the list owner.
func NewMembershipChangedEvent(ownerID, listID, listingID string, member bool) Event {
	e := newEvent(EventMembershipChanged, MembershipEventData{ListID: listID, ListingID: listingID, Member: member})
	e.UserID = ownerID
	e.ListingID = listingID
	return e
}

// NewSignedInEvent creates an auth.signed_in event.
func NewSignedInEvent(userID, sessionID string) Event {
	e := newEvent(EventSignedIn, SessionEventData{SessionID: sessionID, UserID: userID})
	e.UserID = userID
	return e
}

// NewSignedOutEvent creates an auth.signed_out event.
func NewSignedOutEvent(userID, sessionID string) Event {
	e := newEvent(EventSignedOut, SessionEventData{SessionID: sessionID, UserID: userID})
	e.UserID = userID
	return e
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, HeartbeatEventData{ServerTime: time.Now()})
}
