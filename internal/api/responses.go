package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// RetryableErrorResponse tells the client the request failed for a transient
// reason and may be sent again unchanged.
type RetryableErrorResponse struct {
	Error     string `json:"error" example:"booking reference collision"`
	Retryable bool   `json:"retryable" example:"true"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
