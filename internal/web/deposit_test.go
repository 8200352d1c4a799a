package web

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bigredeye/deposit/api"
	"github.com/bigredeye/deposit/internal/deposit"
	"github.com/bigredeye/deposit/internal/models"
)

type updateArgs struct {
	userID, assignment string
	check, pass        bool
}

type fakeBackend struct {
	err error

	summary *deposit.Summary
	deposit models.Deposit

	inserted   []string
	lack, miss []string
	updated    *updateArgs
}

func (f *fakeBackend) Policy() deposit.Policy {
	return deposit.Policy{Initial: 50000, MissingPenalty: 10000, LackingPenalty: 5000}
}

func (f *fakeBackend) CheckDeposit(ctx context.Context, userID string) (*deposit.Summary, error) {
	return f.summary, f.err
}

func (f *fakeBackend) UseDefend(ctx context.Context, userID string) (*models.Deposit, error) {
	return &f.deposit, f.err
}

func (f *fakeBackend) AddDefend(ctx context.Context, userID string) (*models.Deposit, error) {
	return &f.deposit, f.err
}

func (f *fakeBackend) DeleteDefend(ctx context.Context, userID string) (*models.Deposit, error) {
	return &f.deposit, f.err
}

func (f *fakeBackend) InsertAssignment(ctx context.Context, assignment string, lackList, xList []string) ([]models.Deposit, error) {
	f.inserted = append(f.inserted, assignment)
	f.lack, f.miss = lackList, xList
	if f.err != nil {
		return nil, f.err
	}
	return []models.Deposit{f.deposit}, nil
}

func (f *fakeBackend) UpdateAssignment(ctx context.Context, userID, assignment string, check, pass bool) (*models.Deposit, error) {
	f.updated = &updateArgs{userID, assignment, check, pass}
	return &f.deposit, f.err
}

// Gates are replaced by pass-through handlers: only the actions are tested here.
func newDepositTest(backend *fakeBackend) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s := depositService{
		webService: webService{log: zap.NewNop()},
		deposits:   backend,
	}
	pass := func(c *gin.Context) { c.Next() }
	MountDepositRoutes(r, Gates{Authenticate: pass, RequireAdmin: pass}, s)
	return r
}

func decode(t *testing.T, body []byte, v interface{}) {
	require.NoError(t, json.Unmarshal(body, v))
}

func TestCheckDeposit(t *testing.T) {
	backend := &fakeBackend{summary: &deposit.Summary{
		Deposit: models.Deposit{UserID: "u1", Amount: 45000, DefendCount: 1},
		Assignments: []models.AssignmentRecord{
			{Assignment: "A1", Check: true},
		},
	}}
	r := newDepositTest(backend)

	w := request(t, r, http.MethodGet, "/deposit/u1", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	res := api.DepositResponse{}
	decode(t, w.Body.Bytes(), &res)
	assert.Equal(t, api.DepositResponse{
		UserID:      "u1",
		Deposit:     45000,
		DefendCount: 1,
		Assignments: []api.AssignmentStatus{{Assignment: "A1", Check: true, Penalty: 5000}},
	}, res)

	backend.err = deposit.ErrDepositNotFound
	w = request(t, r, http.MethodGet, "/deposit/u1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDefendActions(t *testing.T) {
	backend := &fakeBackend{deposit: models.Deposit{UserID: "u1", Amount: 50000, DefendCount: 2}}
	r := newDepositTest(backend)

	for _, path := range []string{"/deposit/u1/defend/use", "/u1/defend/add", "/u1/defend/delete"} {
		w := request(t, r, http.MethodPost, path, "", "")
		require.Equal(t, http.StatusOK, w.Code, path)

		res := api.DefendResponse{}
		decode(t, w.Body.Bytes(), &res)
		assert.NotEmpty(t, res.Message)
		assert.Equal(t, 2, res.DefendCount)
	}

	backend.err = errors.Wrap(deposit.ErrNoDefendLeft, "wrapped")
	w := request(t, r, http.MethodPost, "/deposit/u1/defend/use", "", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	backend.err = errors.New("connection reset")
	w = request(t, r, http.MethodPost, "/u1/defend/add", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	status := api.Status{}
	decode(t, w.Body.Bytes(), &status)
	assert.Equal(t, "Internal server error", status.Message)
}

func TestInsertAssignmentHandler(t *testing.T) {
	backend := &fakeBackend{}
	r := newDepositTest(backend)

	w := request(t, r, http.MethodPost, "/assignment/insert", "", `{"assignment":"A1","lackList":["u1"],"xList":["u2"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"A1"}, backend.inserted)
	assert.Equal(t, []string{"u1"}, backend.lack)
	assert.Equal(t, []string{"u2"}, backend.miss)

	w = request(t, r, http.MethodPost, "/assignment/insert", "", `{"assignment":"A1","lackList":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, backend.inserted, 1)

	backend.err = errors.Wrapf(deposit.ErrConflictingLists, "user %s", "u1")
	w = request(t, r, http.MethodPost, "/assignment/insert", "", `{"assignment":"A1","lackList":["u1"],"xList":["u1"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	backend.err = errors.New("deadlock detected")
	w = request(t, r, http.MethodPost, "/assignment/insert", "", `{"assignment":"A1","lackList":[],"xList":[]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUpdateAssignmentHandler(t *testing.T) {
	backend := &fakeBackend{deposit: models.Deposit{UserID: "u1", Amount: 40000}}
	r := newDepositTest(backend)

	w := request(t, r, http.MethodPost, "/u1/assignment/update", "", `{"userId":"u1","assignment":"A1","check":false,"pass":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, &updateArgs{"u1", "A1", false, false}, backend.updated)

	res := api.AssignmentUpdateResponse{}
	decode(t, w.Body.Bytes(), &res)
	assert.Equal(t, 40000, res.Deposit)

	backend.updated = nil
	w = request(t, r, http.MethodPost, "/u1/assignment/update", "", `{"assignment":"A1","check":true,"pass":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, &updateArgs{"u1", "A1", true, true}, backend.updated)

	backend.updated = nil
	w = request(t, r, http.MethodPost, "/u1/assignment/update", "", `{"userId":"u2","assignment":"A1","check":true,"pass":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, backend.updated)

	w = request(t, r, http.MethodPost, "/u1/assignment/update", "", `{"assignment":"A1","pass":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, backend.updated)

	backend.err = deposit.ErrDepositNotFound
	w = request(t, r, http.MethodPost, "/u1/assignment/update", "", `{"assignment":"A1","check":true,"pass":false}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
