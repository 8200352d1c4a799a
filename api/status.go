package api

// Status is the body of every non-2xx response.
type Status struct {
	Message string `json:"message"`
}
