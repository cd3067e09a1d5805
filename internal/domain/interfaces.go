package domain

// EmbeddingProvider turns a face image into a fixed-length embedding
// vector. The boolean reports whether exactly one usable face was
// found; "no face" and "ambiguous" are not errors, they are the false
// case, and implementations must never fabricate a vector for it.
type EmbeddingProvider interface {
	Name() string
	Dimension() int
	Extract(imagePath string) (vector []float32, found bool, err error)
}

// FaceMatcher defines the operations exposed by the matching engine.
type FaceMatcher interface {
	Insert(vector []float32, name, registrationNumber string) bool
	Search(vector []float32, topK int) ([]SearchResult, error)
	Describe() CollectionInfo
	DropAndRecreate(confirm bool) error
}
