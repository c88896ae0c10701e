// SPDX-License-Identifier: Apache-2.0

package tools

import "github.com/maarifa/agentcore/pkg/errors"

// MaxImagesPerRequest bounds image batches for vision capabilities.
const MaxImagesPerRequest = 5

// ImageRef describes one attached image by reference. The core never
// decodes image bytes; decoding belongs to the capability backend.
type ImageRef struct {
	ID       string
	MimeType string
	SizeHint int
}

// ValidateImageBatch enforces the batch bounds for image capabilities:
// at least one image, at most max (MaxImagesPerRequest when max is zero).
// It runs strictly before any image is decoded or sent to a backend.
func ValidateImageBatch(images []ImageRef, max int) error {
	if max <= 0 {
		max = MaxImagesPerRequest
	}
	if len(images) == 0 {
		return errors.New(errors.CodeNoImagesProvided, "at least one image is required", nil)
	}
	if len(images) > max {
		return errors.Newf(errors.CodeImageLimitExceeded, "%d images provided, limit is %d", len(images), max)
	}
	return nil
}
