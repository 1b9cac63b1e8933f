package chat

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubTokenLookup struct {
	tokens map[string]string
	err    error
}

func (s *stubTokenLookup) FCMToken(_ context.Context, uid string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.tokens[uid], nil
}

func TestTokenLookupFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	n := &Notifier{
		tokens: &stubTokenLookup{err: errors.New("firestore unavailable")},
		log:    zap.New(core),
	}

	token, ok := n.token(context.Background(), "u1")
	if ok || token != "" {
		t.Fatalf("failed lookup must report no token, got %q ok=%v", token, ok)
	}

	entries := logs.FilterMessage("failed to resolve fcm token").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warn entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["uid"]; got != "u1" {
		t.Fatalf("warn entry must carry the uid, got %v", got)
	}
}

func TestTokenLookupSkipsUnregisteredDevices(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	n := &Notifier{
		tokens: &stubTokenLookup{tokens: map[string]string{"u1": "tok-1"}},
		log:    zap.New(core),
	}

	token, ok := n.token(context.Background(), "u1")
	if !ok || token != "tok-1" {
		t.Fatalf("expected registered token, got %q ok=%v", token, ok)
	}

	// No device is not an error: nothing logged, nothing sent.
	if _, ok := n.token(context.Background(), "u2"); ok {
		t.Fatal("missing token must report not ok")
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no warn entries, got %d", logs.Len())
	}
}
