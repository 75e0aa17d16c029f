package api

type ErrorResponse struct {
	Success bool              `json:"success" example:"false"`
	Code    string            `json:"code" example:"INVALID_TRANSITION"`
	Message string            `json:"message" example:"Requested status change is not allowed"`
	Details map[string]string `json:"details,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
