package storage

import "io"

// BlobStore is the durable home of the model tree: question sets, export
// outputs, and the folder aggregate all go through it. Exists backs the
// probe-style checks (reviewed markers, reference images).
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Exists(key string) (bool, error)
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
