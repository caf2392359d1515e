package remote

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/feedcache/feed"
)

type root struct {
	Items []item `json:"items"`
}

type item struct {
	ID          uuid.UUID `json:"id"`
	Description *string   `json:"description"`
	Location    *string   `json:"location"`
	Image       string    `json:"image"`
}

// mapItems turns a 200 response carrying {"items": [...]} into the feed.
// Every item needs an id and an image URL.
func mapItems(resp *Response) ([]feed.Image, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, &HTTPError{StatusCode: resp.StatusCode, Body: resp.Body})
	}
	var r root
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if r.Items == nil {
		return nil, fmt.Errorf("%w: missing items", ErrInvalidData)
	}
	out := make([]feed.Image, len(r.Items))
	for i, it := range r.Items {
		if it.ID == uuid.Nil || it.Image == "" {
			return nil, fmt.Errorf("%w: item %d lacks id or image", ErrInvalidData, i)
		}
		out[i] = feed.Image{ID: it.ID, URL: it.Image}
		if it.Description != nil {
			out[i].Description = *it.Description
		}
		if it.Location != nil {
			out[i].Location = *it.Location
		}
	}
	return out, nil
}
