package model

import "time"

// ReferenceOption is a functor to build references
type ReferenceOption func(*Reference)

// ReferenceDescription sets a free-text description for the reference
func ReferenceDescription(description string) ReferenceOption {
	return func(r *Reference) {
		r.Description = description
	}
}

// ReferenceTags sets the tags of the reference
func ReferenceTags(tags []string) ReferenceOption {
	return func(r *Reference) {
		r.Tags = tags
	}
}

// ReferenceTimestamp sets the creation and update times of the reference
func ReferenceTimestamp(t time.Time) ReferenceOption {
	return func(r *Reference) {
		r.AddedAt = t
		r.UpdatedAt = t
	}
}
