package rest

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type joinResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type confirmResponse struct {
	Message   string `json:"message"`
	Confirmed bool   `json:"confirmed"`
}

type resendResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}
