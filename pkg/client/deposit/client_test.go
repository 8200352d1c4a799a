package deposit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigredeye/deposit/api"
)

func TestClient(t *testing.T) {
	var lastPath, lastAuth string
	var lastBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath = r.Method + " " + r.URL.Path
		lastAuth = r.Header.Get("Authorization")
		lastBody = nil
		_ = json.NewDecoder(r.Body).Decode(&lastBody)

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/deposit/deposit/u1":
			_, _ = w.Write([]byte(`{"userId":"u1","deposit":45000,"defendCount":1,"assignments":[]}`))
		case "/api/deposit/deposit/u2":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Deposit record not found"}`))
		default:
			_, _ = w.Write([]byte(`{"message":"ok","defendCount":2}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/deposit", "secret")

	res, err := c.LoadDeposit("u1")
	require.NoError(t, err)
	assert.Equal(t, 45000, res.Deposit)
	assert.Equal(t, "GET /api/deposit/deposit/u1", lastPath)
	assert.Equal(t, "Bearer secret", lastAuth)

	_, err = c.LoadDeposit("u2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Deposit record not found")

	defend, err := c.AddDefend("u1")
	require.NoError(t, err)
	assert.Equal(t, 2, defend.DefendCount)
	assert.Equal(t, "POST /api/deposit/u1/defend/add", lastPath)

	_, err = c.InsertAssignment(&api.AssignmentInsertRequest{
		Assignment: "A1",
		LackList:   []string{"u1"},
		XList:      []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, "POST /api/deposit/assignment/insert", lastPath)
	assert.Equal(t, "A1", lastBody["assignment"])

	checked, passed := true, false
	_, err = c.UpdateAssignment(&api.AssignmentUpdateRequest{
		UserID:     "u1",
		Assignment: "A1",
		Check:      &checked,
		Pass:       &passed,
	})
	require.NoError(t, err)
	assert.Equal(t, "POST /api/deposit/u1/assignment/update", lastPath)
	assert.Equal(t, false, lastBody["pass"])
}

// newFlakyServer drops the connection of the first request and answers
// every following one.
func newFlakyServer(t *testing.T, body string) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if assert.NoError(t, err) {
				_ = conn.Close()
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClientDoesNotResendMutations(t *testing.T) {
	mutations := map[string]func(c *Client) error{
		"UseDefend": func(c *Client) error {
			_, err := c.UseDefend("u1")
			return err
		},
		"AddDefend": func(c *Client) error {
			_, err := c.AddDefend("u1")
			return err
		},
		"DeleteDefend": func(c *Client) error {
			_, err := c.DeleteDefend("u1")
			return err
		},
		"InsertAssignment": func(c *Client) error {
			_, err := c.InsertAssignment(&api.AssignmentInsertRequest{Assignment: "A1", LackList: []string{}, XList: []string{}})
			return err
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			srv, calls := newFlakyServer(t, `{"message":"ok","defendCount":1}`)

			err := mutate(NewClient(srv.URL, "secret"))
			assert.Error(t, err)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestClientRetriesReads(t *testing.T) {
	srv, calls := newFlakyServer(t, `{"userId":"u1","deposit":50000,"defendCount":1,"assignments":[]}`)

	res, err := NewClient(srv.URL, "secret").LoadDeposit("u1")
	require.NoError(t, err)
	assert.Equal(t, 50000, res.Deposit)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}
