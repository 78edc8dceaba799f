// pocketllm/types/admin.go
package types

// CacheConfigRequest updates the response cache tunables. Nil fields leave
// the current value in place.
type CacheConfigRequest struct {
	TTLSeconds   *int   `json:"ttl_seconds,omitempty"`
	MaxSizeBytes *int64 `json:"max_size_bytes,omitempty"`
}

// ExportResponse reports where an archived transcript landed.
type ExportResponse struct {
	SessionID string `json:"session_id"`
	ObjectKey string `json:"object_key"`
	Messages  int    `json:"messages"`
}
