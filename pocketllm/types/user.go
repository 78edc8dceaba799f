// pocketllm/types/user.go
package types

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// LoginResponse carries the bearer token plus the identity the token was
// minted for. UserID is the string form used by session stores and storage
// keys, not the numeric database id.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// UserResponse is the account view returned by /auth/me.
type UserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}
