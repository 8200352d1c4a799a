package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bigredeye/deposit/api"
	"github.com/bigredeye/deposit/internal/auth"
	"github.com/bigredeye/deposit/internal/deposit"
	lf "github.com/bigredeye/deposit/internal/logfield"
	"github.com/bigredeye/deposit/internal/models"
)

type depositBackend interface {
	Policy() deposit.Policy
	CheckDeposit(ctx context.Context, userID string) (*deposit.Summary, error)
	UseDefend(ctx context.Context, userID string) (*models.Deposit, error)
	AddDefend(ctx context.Context, userID string) (*models.Deposit, error)
	DeleteDefend(ctx context.Context, userID string) (*models.Deposit, error)
	InsertAssignment(ctx context.Context, assignment string, lackList, xList []string) ([]models.Deposit, error)
	UpdateAssignment(ctx context.Context, userID, assignment string, check, pass bool) (*models.Deposit, error)
}

type depositService struct {
	webService
	deposits depositBackend
}

var _ DepositActions = depositService{}

func setupDepositService(server *server, r gin.IRouter) {
	s := depositService{
		webService: webService{server, server.config, server.logger},
		deposits:   server.deposits,
	}
	gates := Gates{
		Authenticate: server.auth.Authenticate,
		RequireAdmin: server.auth.RequireAdmin,
	}
	MountDepositRoutes(r.Group(server.config.Endpoints.Api), gates, s)
}

func (s depositService) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.Is(err, deposit.ErrDepositNotFound):
		code, message = http.StatusNotFound, err.Error()
	case errors.Is(err, deposit.ErrNoDefendLeft), errors.Is(err, deposit.ErrNothingToDefend):
		code, message = http.StatusConflict, err.Error()
	case errors.Is(err, deposit.ErrEmptyAssignment),
		errors.Is(err, deposit.ErrConflictingLists),
		errors.Is(err, deposit.ErrEmptyUserID):
		code, message = http.StatusBadRequest, err.Error()
	}

	if code == http.StatusInternalServerError {
		s.log.Error("Deposit action failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		s.log.Info("Deposit action rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(code, &api.Status{Message: message})
}

func (s depositService) badRequest(c *gin.Context, err error) {
	s.log.Info("Malformed request", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, &api.Status{Message: err.Error()})
}

// CheckDeposit godoc
// @Summary  Get deposit information
// @Tags     Deposits
// @Produce  json
// @Param    userId  path      string  true  "The user ID"
// @Success  200     {object}  api.DepositResponse
// @Failure  401     {object}  api.Status
// @Failure  404     {object}  api.Status
// @Router   /deposit/{userId} [get]
// @Security BearerAuth
func (s depositService) CheckDeposit(c *gin.Context) {
	userID := c.Param("userId")
	summary, err := s.deposits.CheckDeposit(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}

	policy := s.deposits.Policy()
	assignments := make([]api.AssignmentStatus, 0, len(summary.Assignments))
	for i := range summary.Assignments {
		record := &summary.Assignments[i]
		assignments = append(assignments, api.AssignmentStatus{
			Assignment: record.Assignment,
			Check:      record.Check,
			Pass:       record.Pass,
			Defended:   record.Defended,
			Penalty:    policy.Penalty(record),
		})
	}

	c.JSON(http.StatusOK, &api.DepositResponse{
		UserID:      summary.Deposit.UserID,
		Deposit:     summary.Deposit.Amount,
		DefendCount: summary.Deposit.DefendCount,
		Assignments: assignments,
	})
}

// UseDefend godoc
// @Summary  Use a defend token against the largest penalty
// @Tags     Deposits
// @Produce  json
// @Param    userId  path      string  true  "The user ID"
// @Success  200     {object}  api.DefendResponse
// @Failure  404     {object}  api.Status
// @Failure  409     {object}  api.Status
// @Router   /deposit/{userId}/defend/use [post]
// @Security BearerAuth
func (s depositService) UseDefend(c *gin.Context) {
	userID := c.Param("userId")
	caller, _ := auth.UserID(c)
	res, err := s.deposits.UseDefend(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.log.Info("Defend used", lf.UserID(userID), lf.CallerID(caller))
	c.JSON(http.StatusOK, &api.DefendResponse{
		Message:     "Defend used successfully",
		Deposit:     res.Amount,
		DefendCount: res.DefendCount,
	})
}

// DeleteDefend godoc
// @Summary  Remove a defend token (admin)
// @Tags     Deposits
// @Produce  json
// @Param    userId  path      string  true  "The user ID"
// @Success  200     {object}  api.DefendResponse
// @Failure  403     {object}  api.Status
// @Failure  404     {object}  api.Status
// @Failure  409     {object}  api.Status
// @Router   /{userId}/defend/delete [post]
// @Security BearerAuth
func (s depositService) DeleteDefend(c *gin.Context) {
	res, err := s.deposits.DeleteDefend(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, &api.DefendResponse{
		Message:     "Defend deleted successfully",
		Deposit:     res.Amount,
		DefendCount: res.DefendCount,
	})
}

// AddDefend godoc
// @Summary  Grant a defend token (admin)
// @Tags     Deposits
// @Produce  json
// @Param    userId  path      string  true  "The user ID"
// @Success  200     {object}  api.DefendResponse
// @Failure  403     {object}  api.Status
// @Router   /{userId}/defend/add [post]
// @Security BearerAuth
func (s depositService) AddDefend(c *gin.Context) {
	res, err := s.deposits.AddDefend(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, &api.DefendResponse{
		Message:     "Defend added successfully",
		Deposit:     res.Amount,
		DefendCount: res.DefendCount,
	})
}

// InsertAssignment godoc
// @Summary  Insert assignment information (admin)
// @Tags     Deposits
// @Accept   json
// @Produce  json
// @Param    request  body      api.AssignmentInsertRequest  true  "lack and x lists of one assignment"
// @Success  200      {object}  api.AssignmentInsertResponse
// @Failure  400      {object}  api.Status
// @Failure  500      {object}  api.Status
// @Router   /assignment/insert [post]
// @Security BearerAuth
func (s depositService) InsertAssignment(c *gin.Context) {
	req := api.AssignmentInsertRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	deposits, err := s.deposits.InsertAssignment(c.Request.Context(), req.Assignment, req.LackList, req.XList)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, &api.AssignmentInsertResponse{
		Message: "Assignment information inserted successfully",
		Updated: len(deposits),
	})
}

// UpdateAssignment godoc
// @Summary  Update one user's assignment status (admin)
// @Tags     Deposits
// @Accept   json
// @Produce  json
// @Param    userId   path      string                       true  "User ID"
// @Param    request  body      api.AssignmentUpdateRequest  true  "check and pass flags"
// @Success  200      {object}  api.AssignmentUpdateResponse
// @Failure  400      {object}  api.Status
// @Failure  404      {object}  api.Status
// @Failure  500      {object}  api.Status
// @Router   /{userId}/assignment/update [post]
// @Security BearerAuth
func (s depositService) UpdateAssignment(c *gin.Context) {
	userID := c.Param("userId")
	req := api.AssignmentUpdateRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if req.UserID != "" && req.UserID != userID {
		s.badRequest(c, errors.Errorf("Body userId %q does not match path userId %q", req.UserID, userID))
		return
	}

	res, err := s.deposits.UpdateAssignment(c.Request.Context(), userID, req.Assignment, *req.Check, *req.Pass)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, &api.AssignmentUpdateResponse{
		Message: "User's assignment updated successfully",
		Deposit: res.Amount,
	})
}
