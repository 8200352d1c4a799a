package api

type AssignmentStatus struct {
	Assignment string `json:"assignment"`
	Check      bool   `json:"check"`
	Pass       bool   `json:"pass"`
	Defended   bool   `json:"defended"`
	Penalty    int    `json:"penalty"`
}

type DepositResponse struct {
	UserID      string             `json:"userId"`
	Deposit     int                `json:"deposit"`
	DefendCount int                `json:"defendCount"`
	Assignments []AssignmentStatus `json:"assignments"`
}

type DefendResponse struct {
	Message     string `json:"message"`
	Deposit     int    `json:"deposit"`
	DefendCount int    `json:"defendCount"`
}

type AssignmentInsertRequest struct {
	Assignment string   `json:"assignment" yaml:"assignment" binding:"required"`
	LackList   []string `json:"lackList" yaml:"lackList" binding:"required"`
	XList      []string `json:"xList" yaml:"xList" binding:"required"`
}

type AssignmentInsertResponse struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

// AssignmentUpdateRequest flags are pointers so that an explicit false
// can be told apart from a missing field.
type AssignmentUpdateRequest struct {
	UserID     string `json:"userId"`
	Assignment string `json:"assignment" binding:"required"`
	Check      *bool  `json:"check" binding:"required"`
	Pass       *bool  `json:"pass" binding:"required"`
}

type AssignmentUpdateResponse struct {
	Message string `json:"message"`
	Deposit int    `json:"deposit"`
}
