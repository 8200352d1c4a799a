package deposit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bigredeye/deposit/api"
)

type Client struct {
	client *resty.Client
}

// NewClient talks to the deposit routes mounted at endpoint,
// e.g. https://example.com/api/deposit.
func NewClient(endpoint, token string) *Client {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(time.Second * 10).
		SetRetryCount(3).
		AddRetryCondition(retryReads).
		SetAuthToken(token)

	return &Client{client}
}

// retryReads resends GET requests only. Mutations may have been committed
// before the connection broke.
func retryReads(res *resty.Response, err error) bool {
	if res == nil || res.Request == nil || res.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || res.StatusCode() >= http.StatusInternalServerError
}

func check(res *resty.Response, err error, action string) error {
	if err != nil {
		return err
	}
	if res.StatusCode() != http.StatusOK {
		status, _ := res.Error().(*api.Status)
		if status != nil && status.Message != "" {
			return fmt.Errorf("failed to %s: %s (%d)", action, status.Message, res.StatusCode())
		}
		return fmt.Errorf("failed to %s: %s", action, res.Status())
	}
	return nil
}

func (c *Client) LoadDeposit(userID string) (*api.DepositResponse, error) {
	res := &api.DepositResponse{}
	raw, err := c.client.R().
		SetResult(res).
		SetError(&api.Status{}).
		SetPathParam("userId", userID).
		Get("/deposit/{userId}")
	if err = check(raw, err, "load deposit"); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) defend(userID, path, action string) (*api.DefendResponse, error) {
	res := &api.DefendResponse{}
	raw, err := c.client.R().
		SetResult(res).
		SetError(&api.Status{}).
		SetPathParam("userId", userID).
		Post(path)
	if err = check(raw, err, action); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) UseDefend(userID string) (*api.DefendResponse, error) {
	return c.defend(userID, "/deposit/{userId}/defend/use", "use defend")
}

func (c *Client) AddDefend(userID string) (*api.DefendResponse, error) {
	return c.defend(userID, "/{userId}/defend/add", "add defend")
}

func (c *Client) DeleteDefend(userID string) (*api.DefendResponse, error) {
	return c.defend(userID, "/{userId}/defend/delete", "delete defend")
}

func (c *Client) InsertAssignment(req *api.AssignmentInsertRequest) (*api.AssignmentInsertResponse, error) {
	res := &api.AssignmentInsertResponse{}
	raw, err := c.client.R().
		SetResult(res).
		SetError(&api.Status{}).
		SetBody(req).
		Post("/assignment/insert")
	if err = check(raw, err, "insert assignment"); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) UpdateAssignment(req *api.AssignmentUpdateRequest) (*api.AssignmentUpdateResponse, error) {
	res := &api.AssignmentUpdateResponse{}
	raw, err := c.client.R().
		SetResult(res).
		SetError(&api.Status{}).
		SetPathParam("userId", req.UserID).
		SetBody(req).
		Post("/{userId}/assignment/update")
	if err = check(raw, err, "update assignment"); err != nil {
		return nil, err
	}
	return res, nil
}
