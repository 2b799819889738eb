package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/templatedir/templatedir-server/internal/domain"
	"github.com/templatedir/templatedir-server/internal/normalize"
)

// Feed is the landing page data: the featured set oldest first and the
// new set newest first.
type Feed struct {
	Query    string                `json:"query,omitempty"`
	Featured []domain.RatedListing `json:"featured"`
	New      []domain.RatedListing `json:"new"`
}

// Session holds the tokens of a signed-in client.
type Session struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	SessionID    string       `json:"session_id"`
}

// SaveResult is the server's answer to a save.
type SaveResult struct {
	ListingID string `json:"repo_id"`
	ListID    string `json:"list_id"`
	Upvotes   int    `json:"upvotes"`
	Added     bool   `json:"added"`
}

// Submission is a listing as entered in a submit form. Tags is the raw
// comma-separated text field.
type Submission struct {
	Name        string
	Description string
	Type        domain.ListingType
	URL         string
	Tags        string
	Language    string
	Icon        string
	Owner       string
}

type submitBody struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags,omitempty"`
	Language    string   `json:"language"`
	Icon        string   `json:"icon,omitempty"`
	Owner       string   `json:"owner"`
}

// SignUp creates an account and adopts its access token.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "signup", http.MethodPost, "/api/v1/auth/signup", nil, body, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.AccessToken)
	return &s, nil
}

// SignIn authenticates and adopts the returned access token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "signin", http.MethodPost, "/api/v1/auth/signin", nil, body, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.AccessToken)
	return &s, nil
}

// SignOut ends the current session and forgets the token.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, "signout", http.MethodPost, "/api/v1/auth/signout", nil, nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Feed fetches the featured and new sets filtered by search.
func (c *Client) Feed(ctx context.Context, search string) (*Feed, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}

	var f Feed
	if err := c.do(ctx, "feed", http.MethodGet, "/api/v1/feed", query, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Listings fetches rated listings newest first. An empty listingType
// returns every type.
func (c *Client) Listings(ctx context.Context, listingType domain.ListingType) ([]domain.RatedListing, error) {
	query := url.Values{}
	if listingType != "" {
		query.Set("type", string(listingType))
	}

	var resp struct {
		Listings []domain.RatedListing `json:"repos"`
	}
	if err := c.do(ctx, "listings", http.MethodGet, "/api/v1/listings", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Listings, nil
}

// Listing fetches one rated listing.
func (c *Client) Listing(ctx context.Context, id string) (*domain.RatedListing, error) {
	var l domain.RatedListing
	if err := c.do(ctx, "listing", http.MethodGet, "/api/v1/listings/"+url.PathEscape(id), nil, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// SubmitListing submits a listing. The comma-separated tag text is split
// the same way the server splits legacy submissions.
func (c *Client) SubmitListing(ctx context.Context, s Submission) (*domain.Listing, error) {
	body := submitBody{
		Name:        s.Name,
		Description: s.Description,
		Type:        string(s.Type),
		URL:         s.URL,
		Tags:        normalize.SplitTags(s.Tags),
		Language:    s.Language,
		Icon:        s.Icon,
		Owner:       s.Owner,
	}

	var l domain.Listing
	if err := c.do(ctx, "submit", http.MethodPost, "/api/v1/listings", nil, body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Save upvotes a listing and adds it to the caller's Saved list.
func (c *Client) Save(ctx context.Context, listingID string) (*SaveResult, error) {
	var r SaveResult
	path := "/api/v1/listings/" + url.PathEscape(listingID) + "/save"
	if err := c.do(ctx, "save", http.MethodPost, path, nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Reviews fetches a listing's reviews, newest first.
func (c *Client) Reviews(ctx context.Context, listingID string) ([]*domain.Review, error) {
	var resp struct {
		Reviews []*domain.Review `json:"reviews"`
	}
	path := "/api/v1/listings/" + url.PathEscape(listingID) + "/reviews"
	if err := c.do(ctx, "reviews", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reviews, nil
}

// Review posts a star rating and comment.
func (c *Client) Review(ctx context.Context, listingID string, stars int, content string) (*domain.Review, error) {
	var r domain.Review
	path := "/api/v1/listings/" + url.PathEscape(listingID) + "/reviews"
	body := map[string]any{"rating": stars, "content": content}
	if err := c.do(ctx, "review", http.MethodPost, path, nil, body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ToggleMembership flips a listing's membership in one of the caller's
// lists and reports whether it is now a member.
func (c *Client) ToggleMembership(ctx context.Context, listID, listingID string) (bool, error) {
	var resp struct {
		Member bool `json:"member"`
	}
	path := "/api/v1/lists/" + url.PathEscape(listID) + "/listings/" + url.PathEscape(listingID) + "/toggle"
	if err := c.do(ctx, "toggle", http.MethodPost, path, nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Member, nil
}
