package model

// BundleOption is a functor to build bundles
type BundleOption func(*Bundle)

// BundleDescription sets a free-text description for the bundle
func BundleDescription(description string) BundleOption {
	return func(b *Bundle) {
		b.Description = description
	}
}

// BundleTags sets the tags of the bundle
func BundleTags(tags []string) BundleOption {
	return func(b *Bundle) {
		b.Tags = normalizeTags(tags)
	}
}
