package constants

// Service constants
const (
	// ServiceName is the service field of every log line and of the
	// migration marker node
	ServiceName = "mercury"
)

// Graph schema
const (
	// LabelUser is the label of every user node
	LabelUser = "User"

	// DefaultVectorIndex is the vector index over user name embeddings
	DefaultVectorIndex = "user-names"

	// NameEmbeddingProperty is the node property the vector index covers
	NameEmbeddingProperty = "name_embedding"
)

// Paging constants
const (
	// MaxPageSize bounds maxUsers on every listing route
	MaxPageSize = 1000
)

// HTTP constants
const (
	// UserIDHeader carries the authenticated caller id set by the auth proxy
	UserIDHeader = "X-User-ID"
)
