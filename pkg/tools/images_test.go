// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"testing"

	"github.com/maarifa/agentcore/pkg/core"
	"github.com/maarifa/agentcore/pkg/errors"
)

func TestValidateImageBatch(t *testing.T) {
	if err := ValidateImageBatch(nil, 0); errors.CodeOf(err) != errors.CodeNoImagesProvided {
		t.Errorf("empty batch: expected NO_IMAGES_PROVIDED, got %v", err)
	}

	one := []ImageRef{{ID: "img-1", MimeType: "image/jpeg"}}
	if err := ValidateImageBatch(one, 0); err != nil {
		t.Errorf("single image must pass: %v", err)
	}

	over := make([]ImageRef, MaxImagesPerRequest+1)
	if err := ValidateImageBatch(over, 0); errors.CodeOf(err) != errors.CodeImageLimitExceeded {
		t.Errorf("oversized batch: expected IMAGE_LIMIT_EXCEEDED, got %v", err)
	}

	exact := make([]ImageRef, MaxImagesPerRequest)
	if err := ValidateImageBatch(exact, 0); err != nil {
		t.Errorf("batch exactly at limit must pass: %v", err)
	}
}

func TestImageValidationRunsBeforeDecode(t *testing.T) {
	r := NewRegistry()
	decodeCalls := 0

	r.MustRegister(Definition{
		Name:        "assess_damage",
		Description: Description{AR: "تقييم الأضرار", EN: "damage assessment"},
		Enabled:     true,
		Handler: func(ctx context.Context, params map[string]any, _ *core.ToolContext) (any, error) {
			images, _ := params["images"].([]ImageRef)
			if err := ValidateImageBatch(images, 0); err != nil {
				return nil, err
			}
			decodeCalls++ // stands in for the decode step
			return "assessed", nil
		},
	})

	_, err := r.Execute(context.Background(), "assess_damage",
		map[string]any{"images": []ImageRef{}}, testContext(core.RoleStudent))
	if errors.CodeOf(err) != errors.CodeNoImagesProvided {
		t.Fatalf("expected NO_IMAGES_PROVIDED, got %v", err)
	}
	if decodeCalls != 0 {
		t.Errorf("decode must never be observed for an empty batch")
	}
}
