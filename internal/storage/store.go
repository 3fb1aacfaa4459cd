// Package storage holds uploaded source images for the duration of one
// generation request. Uploads are single-use: the handler removes them on
// every exit path.
package storage

import "context"

// UploadStore persists a request-scoped upload and hands back a reference
// used to remove it afterwards.
type UploadStore interface {
	// Save stores data under a name derived from the given hint and returns
	// the reference to the stored object.
	Save(ctx context.Context, hint string, data []byte, contentType string) (ref string, err error)
	// Remove deletes a previously saved object. Removing an already deleted
	// object is not an error.
	Remove(ctx context.Context, ref string) error
	// PublicURL returns a fetchable URL for the reference when the backend
	// exposes one. Local file storage returns ok=false; callers then inline
	// the image bytes instead.
	PublicURL(ref string) (url string, ok bool)
}
