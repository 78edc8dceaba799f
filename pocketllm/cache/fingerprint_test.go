package cache

import (
	"testing"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

func userTurn(content string) types.Message {
	return types.Message{Role: types.RoleUser, Content: content}
}

func assistantTurn(content string) types.Message {
	return types.Message{Role: types.RoleAssistant, Content: content}
}

func TestFingerprintIdempotent(t *testing.T) {
	conv := []types.Message{userTurn("What is AI?"), assistantTurn("..."), userTurn("Tell me more")}
	if Fingerprint(conv) != Fingerprint(conv) {
		t.Errorf("same conversation must produce the same fingerprint")
	}
}

func TestFingerprintIgnoresHistory(t *testing.T) {
	a := []types.Message{userTurn("unrelated question"), assistantTurn("answer"), userTurn("What is AI?")}
	b := []types.Message{userTurn("What is AI?")}
	if Fingerprint(a) != Fingerprint(b) {
		t.Errorf("conversations differing only in history must collide on the same key")
	}
}

func TestFingerprintUsesLastUserTurn(t *testing.T) {
	withTrailingAssistant := []types.Message{userTurn("What is AI?"), assistantTurn("AI is...")}
	if Fingerprint(withTrailingAssistant) != Fingerprint([]types.Message{userTurn("What is AI?")}) {
		t.Errorf("a trailing assistant turn must not change the key")
	}

	a := []types.Message{userTurn("first"), assistantTurn("..."), userTurn("second")}
	b := []types.Message{userTurn("first")}
	if Fingerprint(a) == Fingerprint(b) {
		t.Errorf("different last user turns must produce different keys")
	}
}

func TestFingerprintNormalizes(t *testing.T) {
	if Fingerprint([]types.Message{userTurn("  Hello World  ")}) != Fingerprint([]types.Message{userTurn("hello world")}) {
		t.Errorf("fingerprint must lowercase and trim before hashing")
	}
}

func TestFingerprintEmptyConversation(t *testing.T) {
	// md5 of the empty string; no special-casing for malformed input.
	const emptyMD5 = "d41d8cd98f00b204e9800998ecf8427e"
	if got := Fingerprint(nil); got != emptyMD5 {
		t.Errorf("empty conversation should hash the empty string, got %s", got)
	}
	if got := Fingerprint([]types.Message{assistantTurn("orphan")}); got != emptyMD5 {
		t.Errorf("conversation without a user turn should hash the empty string, got %s", got)
	}
}

func TestFingerprintFixedWidth(t *testing.T) {
	keys := []string{
		Fingerprint([]types.Message{userTurn("a")}),
		Fingerprint([]types.Message{userTurn("a much longer prompt that goes on and on and on")}),
	}
	for _, k := range keys {
		if len(k) != 32 {
			t.Errorf("expected 32-char md5 hex key, got %d chars: %s", len(k), k)
		}
	}
}
