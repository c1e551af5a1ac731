package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sarthi/pkg/adapter"
)

func TestGemini(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	location := os.Getenv("TEST_GEMINI_LOCATION")
	if location == "" {
		location = "us-central1"
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, location)
	gt.NoError(t, err)

	t.Run("Complete", func(t *testing.T) {
		text, err := client.Complete(ctx, "Reply with the single word: pong", 100)
		gt.NoError(t, err)
		gt.NotEqual(t, "", text)
		t.Logf("Response: %s", text)
	})

	t.Run("Embed", func(t *testing.T) {
		vector, err := client.Embed(ctx, "gateway timeout errors under load")
		gt.NoError(t, err)
		gt.A(t, vector).Length(client.Dimensions())
		gt.False(t, adapter.IsZeroVector(vector))
	})

	t.Run("EmbedBatch", func(t *testing.T) {
		vectors, err := client.EmbedBatch(ctx, []string{"first text", "second text"})
		gt.NoError(t, err)
		gt.A(t, vectors).Length(2)
	})
}

func TestIsZeroVector(t *testing.T) {
	gt.True(t, adapter.IsZeroVector(adapter.ZeroVector(8)))
	gt.True(t, adapter.IsZeroVector(nil))
	gt.False(t, adapter.IsZeroVector([]float32{0, 0.1, 0}))
}
