package dto

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthMeResponse struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	ExpiresInSec int64          `json:"expires_in_sec"`
	Me           AuthMeResponse `json:"me"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
