package llm

import (
	"context"
	"testing"
)

func TestScriptedMockPopsInOrder(t *testing.T) {
	p := NewScriptedMockProvider("first", "second")

	for i, want := range []string{"first", "second"} {
		resp, err := p.Chat(context.Background(), ChatRequest{})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if resp.Content != want {
			t.Errorf("call %d: expected %q, got %q", i, want, resp.Content)
		}
	}
	if _, err := p.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Errorf("exhausted script must error")
	}
	if p.CallCount != 3 {
		t.Errorf("expected 3 recorded calls, got %d", p.CallCount)
	}
}

func TestChunkStream(t *testing.T) {
	s := NewChunkStream([]string{"hel", "lo"})

	var got string
	for {
		chunk, done, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if done {
			break
		}
		got += chunk
	}
	if got != "hello" {
		t.Errorf("expected reassembled text, got %q", got)
	}
}

func TestChunkStreamCancellation(t *testing.T) {
	s := NewChunkStream([]string{"a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, done, err := s.Next(ctx)
	if err == nil || !done {
		t.Errorf("cancelled stream must report done with an error")
	}
}

func TestStreamPreservesArabicRunes(t *testing.T) {
	p := NewScriptedMockProvider("مرحبا بك في المنصة التعليمية")
	stream, err := p.ChatStream(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	var got string
	for {
		chunk, done, err := stream.Next(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if done {
			break
		}
		got += chunk
	}
	if got != "مرحبا بك في المنصة التعليمية" {
		t.Errorf("chunking must split on runes, got %q", got)
	}
}
