package customer

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	PhoneNumber string `json:"phone" validate:"required,min=8,max=20"`
	Pin         string `json:"pin" validate:"required,len=6,numeric"`
	ConfirmPin  string `json:"confirm_pin" validate:"required,eqfield=Pin"`
	Language    string `json:"language" validate:"omitempty,oneof=en id hi"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phone" validate:"required,min=8,max=20"`
	Pin         string `json:"pin" validate:"required,len=6,numeric"`
}

type AuthResponse struct {
	Token            string `json:"token"`
	UserID           string `json:"user_id"`
	ExpiresAt        int64  `json:"expires_at"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}
