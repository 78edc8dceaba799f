// pocketllm/cache/fingerprint.go
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

// Fingerprint derives the cache key for a conversation: the content of the
// most recent user-role message, lowercased and trimmed, reduced to an md5
// hex digest. Prior turns never affect the key.
//
// Known limitation: two conversations whose latest user message matches
// collide even when their histories differ, so a cached answer can be
// served against a different context. This trade-off keeps keys cheap and
// hit rates high for the short prompts the portal sees; callers that need
// history-sensitive answers should bypass the cache.
//
// An empty conversation (or one without a user turn) hashes the empty
// string; it is not special-cased.
func Fingerprint(conversation []types.Message) string {
	var content string
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == types.RoleUser {
			content = conversation[i].Content
			break
		}
	}
	normalized := strings.ToLower(strings.TrimSpace(content))
	return fmt.Sprintf("%x", md5.Sum([]byte(normalized)))
}
