package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testServer(t *testing.T) *RemoraServer {
	t.Helper()

	rs, err := New([]byte("test-secret-test-secret-test-secret!"), "")
	if err != nil {
		t.Fatalf("could not create server: %v", err)
	}
	return rs
}

func doJSON(t *testing.T, rs *RemoraServer, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer = &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			t.Fatalf("could not encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, reqBody)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	rs.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, rs *RemoraServer, username, password string) string {
	t.Helper()

	w := doJSON(t, rs, http.MethodPost, "/login", "", LoginRequest{Username: username, Password: password})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned HTTP-%d: %s", w.Code, w.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("could not decode login response: %v", err)
	}
	return resp.Token
}

func Test_Endpoints_Info(t *testing.T) {
	assert := assert.New(t)

	rs := testServer(t)
	w := doJSON(t, rs, http.MethodGet, "/info", "", nil)

	assert.Equal(http.StatusOK, w.Code)

	var resp InfoResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(resp.Version)
}

func Test_Endpoints_CreateUserAndLogin(t *testing.T) {
	assert := assert.New(t)

	rs := testServer(t)

	w := doJSON(t, rs, http.MethodPost, "/users", "", CreateUserRequest{Username: "kanaya", Password: "jadebl00d"})
	assert.Equal(http.StatusCreated, w.Code)

	tok := login(t, rs, "kanaya", "jadebl00d")
	assert.NotEmpty(tok)
}

func Test_Endpoints_SessionEvalFlow(t *testing.T) {
	assert := assert.New(t)

	rs := testServer(t)
	_, err := rs.Service().CreateUser(context.Background(), "rose", "lalonde")
	assert.NoError(err)
	tok := login(t, rs, "rose", "lalonde")

	// create a session
	w := doJSON(t, rs, http.MethodPost, "/sessions", tok, CreateSessionRequest{Name: "thorns"})
	if !assert.Equal(http.StatusCreated, w.Code, w.Body.String()) {
		return
	}
	var sesh SessionResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &sesh))
	assert.Equal("thorns", sesh.Name)

	// evaluate in it
	w = doJSON(t, rs, http.MethodPost, fmt.Sprintf("/sessions/%s/eval", sesh.ID), tok, EvalRequest{Input: "(def x 6)"})
	assert.Equal(http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, rs, http.MethodPost, fmt.Sprintf("/sessions/%s/eval", sesh.ID), tok, EvalRequest{Input: "(x * 7)"})
	if !assert.Equal(http.StatusOK, w.Code, w.Body.String()) {
		return
	}
	var evalResp EvalResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &evalResp))
	assert.Equal("42", evalResp.Result)

	// history lists both inputs
	w = doJSON(t, rs, http.MethodGet, fmt.Sprintf("/sessions/%s/commands", sesh.ID), tok, nil)
	assert.Equal(http.StatusOK, w.Code)
	var cmds []CommandResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &cmds))
	if assert.Len(cmds, 2) {
		assert.Equal("(def x 6)", cmds[0].Input)
		assert.Equal("42", cmds[1].Result)
	}

	// session info reflects the eval count
	w = doJSON(t, rs, http.MethodGet, "/sessions/"+sesh.ID, tok, nil)
	assert.Equal(http.StatusOK, w.Code)
	var got SessionResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(2, got.Evals)
}

func Test_Endpoints_EvalBadInput(t *testing.T) {
	assert := assert.New(t)

	rs := testServer(t)
	_, err := rs.Service().CreateUser(context.Background(), "dave", "pw")
	assert.NoError(err)
	tok := login(t, rs, "dave", "pw")

	w := doJSON(t, rs, http.MethodPost, "/sessions", tok, CreateSessionRequest{})
	var sesh SessionResponse
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &sesh))

	w = doJSON(t, rs, http.MethodPost, fmt.Sprintf("/sessions/%s/eval", sesh.ID), tok, EvalRequest{Input: "(1 +"})
	assert.Equal(http.StatusBadRequest, w.Code)
}

func Test_Endpoints_SessionsRequireAuth(t *testing.T) {
	assert := assert.New(t)

	rs := testServer(t)
	w := doJSON(t, rs, http.MethodPost, "/sessions", "", CreateSessionRequest{})
	assert.Equal(http.StatusUnauthorized, w.Code)
}
