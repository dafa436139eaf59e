package minio

import (
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/meigma/imagecache/store"
)

// translate converts MinIO error responses to store errors.
//
// Server-side quota refusals become store.ErrCapacityExceeded, the
// coordinator's eviction trigger. Everything else is wrapped with context.
func translate(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case strings.Contains(resp.Code, "QuotaExceeded"),
		resp.Code == "EntityTooLarge":
		return fmt.Errorf("%w: %s", store.ErrCapacityExceeded, resp.Code)
	}

	return fmt.Errorf("minio: %w", err)
}

// isNotFound reports whether err is a missing-object response.
func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
