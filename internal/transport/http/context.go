package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func contextWithUploadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, uploadIDKey, id)
}

// uploadID returns the validated upload ID, falling back to the raw path
// parameter outside UploadCtx.
func uploadID(r *http.Request) string {
	if id, ok := r.Context().Value(uploadIDKey).(string); ok {
		return id
	}
	return chi.URLParam(r, "uploadID")
}
