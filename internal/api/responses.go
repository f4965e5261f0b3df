package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// StatusResponse is the payment verification reply. Failures never carry
// detail beyond Status.
type StatusResponse struct {
	Status    string `json:"status" example:"success"`
	BookingID string `json:"booking_id,omitempty"`
}
