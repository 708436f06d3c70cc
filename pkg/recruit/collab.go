package recruit

import "context"

// SendResult reports the outcome of a notification dispatch. Status is
// recorded verbatim in the workflow's terminal state.
type SendResult struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ReferenceLibrary supplies prior job descriptions and style material
// for the drafting workflow.
type ReferenceLibrary interface {
	LoadReferenceMaterial(ctx context.Context, title string) (string, error)
}

// ArtifactStore persists finished artifacts (approved job
// descriptions, shortlist reports).
type ArtifactStore interface {
	SaveFinalArtifact(ctx context.Context, id, content string) error
}

// Notifier delivers workflow outcomes to stakeholders. A delivery
// failure is recorded in state and never retried; it does not roll
// back an approval.
type Notifier interface {
	SendEmail(ctx context.Context, recipient, subject, body string) (SendResult, error)
}

// DocumentIngester extracts pre-redacted text from candidate
// documents ahead of screening.
type DocumentIngester interface {
	ExtractText(ctx context.Context, documentID string) (string, error)
}

// Func adapters for single-method collaborators.

// ReferenceLibraryFunc adapts a function to the ReferenceLibrary
// interface.
type ReferenceLibraryFunc func(ctx context.Context, title string) (string, error)

func (f ReferenceLibraryFunc) LoadReferenceMaterial(ctx context.Context, title string) (string, error) {
	return f(ctx, title)
}

// ArtifactStoreFunc adapts a function to the ArtifactStore interface.
type ArtifactStoreFunc func(ctx context.Context, id, content string) error

func (f ArtifactStoreFunc) SaveFinalArtifact(ctx context.Context, id, content string) error {
	return f(ctx, id, content)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, recipient, subject, body string) (SendResult, error)

func (f NotifierFunc) SendEmail(ctx context.Context, recipient, subject, body string) (SendResult, error) {
	return f(ctx, recipient, subject, body)
}

// DocumentIngesterFunc adapts a function to the DocumentIngester
// interface.
type DocumentIngesterFunc func(ctx context.Context, documentID string) (string, error)

func (f DocumentIngesterFunc) ExtractText(ctx context.Context, documentID string) (string, error) {
	return f(ctx, documentID)
}
