// Package feed holds the domain model shared by the remote and local loaders.
package feed

import "github.com/google/uuid"

// Image is one feed record. Description and Location are optional; the empty
// string means absent. Image values are comparable with ==.
type Image struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url"`
}

// Loader delivers a feed through completion. Implementations may invoke
// completion on any goroutine; callers dispatch further if they need to.
type Loader interface {
	Load(completion func([]Image, error))
}
