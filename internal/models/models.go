package models

// ChatTurn is one exchange in an advisory chat.
type ChatTurn struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// LastTurns returns at most n trailing turns of history.
func LastTurns(history []ChatTurn, n int) []ChatTurn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// ServiceContext describes a vehicle service request for recommendations.
type ServiceContext struct {
	VehicleType     VehicleType     `json:"vehicle_type"`
	VehicleModel    string          `json:"vehicle_model,omitempty"`
	ServiceCategory ServiceCategory `json:"service_category"`
	ServiceType     ServiceType     `json:"service_type"`
	Notes           string          `json:"notes,omitempty"`
}

// DiagnosisRequest describes a vehicle problem.
type DiagnosisRequest struct {
	VehicleType  string `json:"vehicle_type"`
	VehicleModel string `json:"vehicle_model"`
	Symptoms     string `json:"symptoms"`
	Mileage      int64  `json:"mileage,omitempty"`
}

// StaffTask is a question from staff about a job.
type StaffTask struct {
	Task    string            `json:"task"`
	Details map[string]string `json:"details,omitempty"`
}
