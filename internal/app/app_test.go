package app

import (
	"context"
	"errors"
	"testing"

	"commentrating/pkg/domain"
	"commentrating/pkg/store"
	"commentrating/pkg/textcodec"
)

func newTestApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	a, err := New(Config{Store: st})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, st
}

func TestAddCommentStoresDecodedText(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	err := a.AddComment(ctx, AddCommentRequest{
		Channel:     "c1",
		SenderID:    "u1",
		MessageID:   "m1",
		MessageText: textcodec.Encode("привет, мир"),
	})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}

	got, ok, err := st.GetComment(ctx, domain.CommentKey("c1", "m1"))
	if err != nil || !ok {
		t.Fatalf("get comment: ok=%v err=%v", ok, err)
	}
	if got.MessageText != "привет, мир" {
		t.Fatalf("message text = %q, want decoded payload", got.MessageText)
	}
	if got.SenderID != "u1" || got.Channel != "c1" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestAddCommentMissingFieldMutatesNothing(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	err := a.AddComment(ctx, AddCommentRequest{
		Channel:     "c1",
		MessageID:   "m1",
		MessageText: textcodec.Encode("hello"),
	})
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFieldError", err)
	}
	if missing.Field != "sender_id" {
		t.Fatalf("field = %q, want sender_id", missing.Field)
	}
	if _, ok, _ := st.GetComment(ctx, domain.CommentKey("c1", "m1")); ok {
		t.Fatal("store should not have been mutated")
	}
}

func TestAddCommentRejectsEmptyMarker(t *testing.T) {
	a, _ := newTestApp(t)
	err := a.AddComment(context.Background(), AddCommentRequest{
		Channel:     "c1",
		SenderID:    "u1",
		MessageID:   "m1",
		MessageText: "base64()",
	})
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
}

func TestAddCommentResolvesThreadText(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	// Parent thread post stored beforehand.
	if err := a.AddComment(ctx, AddCommentRequest{
		Channel:     "c1",
		SenderID:    "author",
		MessageID:   "t1",
		MessageText: textcodec.Encode("the original post"),
	}); err != nil {
		t.Fatalf("add thread post: %v", err)
	}

	if err := a.AddComment(ctx, AddCommentRequest{
		Channel:     "c1",
		SenderID:    "u1",
		MessageID:   "m1",
		MessageText: textcodec.Encode("a reply"),
		ThreadID:    "t1",
	}); err != nil {
		t.Fatalf("add reply: %v", err)
	}

	got, ok, _ := st.GetComment(ctx, domain.CommentKey("c1", "m1"))
	if !ok {
		t.Fatal("reply not stored")
	}
	if got.ThreadText != "the original post" {
		t.Fatalf("thread text = %q, want parent text", got.ThreadText)
	}
	if got.ThreadID != "t1" {
		t.Fatalf("thread id = %q, want t1", got.ThreadID)
	}
}

func TestAddCommentMissingThreadIsNonFatal(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	if err := a.AddComment(ctx, AddCommentRequest{
		Channel:     "c1",
		SenderID:    "u1",
		MessageID:   "m1",
		MessageText: textcodec.Encode("a reply"),
		ThreadID:    "missing-thread",
	}); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	got, ok, _ := st.GetComment(ctx, domain.CommentKey("c1", "m1"))
	if !ok {
		t.Fatal("comment not stored")
	}
	if got.ThreadText != "" {
		t.Fatalf("thread text = %q, want empty", got.ThreadText)
	}
}

func TestAddCommentUndecodableTextFallsBackToRaw(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	if err := a.AddComment(ctx, AddCommentRequest{
		Channel:     "c1",
		SenderID:    "u1",
		MessageID:   "m1",
		MessageText: "plain text, not base64!",
	}); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	got, _, _ := st.GetComment(ctx, domain.CommentKey("c1", "m1"))
	if got.MessageText != "plain text, not base64!" {
		t.Fatalf("message text = %q, want raw fallback", got.MessageText)
	}
}

func TestAddCommentNonTextPayloadFallsBackToRaw(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	// "abcd" is valid base64 syntax but decodes to non-UTF-8 bytes,
	// so the raw text must be kept instead of the mangled decode.
	if err := a.AddComment(ctx, AddCommentRequest{
		Channel:     "c1",
		SenderID:    "u1",
		MessageID:   "m1",
		MessageText: "abcd",
	}); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	got, _, _ := st.GetComment(ctx, domain.CommentKey("c1", "m1"))
	if got.MessageText != "abcd" {
		t.Fatalf("message text = %q, want raw fallback", got.MessageText)
	}
}

func TestAddCommentRepeatedIngestionMerges(t *testing.T) {
	a, st := newTestApp(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := a.AddComment(ctx, AddCommentRequest{
			Channel:     "c1",
			SenderID:    "u1",
			MessageID:   "m1",
			MessageText: textcodec.Encode("hello"),
		}); err != nil {
			t.Fatalf("add comment #%d: %v", i, err)
		}
	}
	// A single merged record, no duplicate.
	top, _ := st.TopLeaders(ctx, "c1", 10)
	if len(top) != 0 {
		t.Fatalf("ingestion must not touch the leaderboard: %+v", top)
	}
	if _, ok, _ := st.GetComment(ctx, domain.CommentKey("c1", "m1")); !ok {
		t.Fatal("comment not stored")
	}
}
