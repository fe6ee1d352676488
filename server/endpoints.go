package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dekarrin/remora/internal/version"
	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/middle"
	"github.com/dekarrin/remora/server/result"
	"github.com/dekarrin/remora/server/serr"
	"github.com/dekarrin/remora/server/token"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// EndpointFunc is a server endpoint at the level this package implements
// them: take a request, give back a typed result.
type EndpointFunc func(req *http.Request) result.Result

// Endpoint adapts an EndpointFunc into an http.HandlerFunc, adding the slow
// response to auth failures and internal server errors, and the response
// logging.
func Endpoint(ep EndpointFunc) http.HandlerFunc {
	unauthedDelay := time.Second

	return func(w http.ResponseWriter, req *http.Request) {
		r := ep(req)

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			// if it's one of these statuses, either the user is improperly
			// logging in, tried to access a forbidden resource, or the
			// request failed internally, all of which force the wait time
			// before responding.
			time.Sleep(unauthedDelay)
		}

		r.WriteResponse(w)
		r.Log(req)
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type CreateSessionRequest struct {
	Name     string `json:"name"`
	Strict   bool   `json:"strict"`
	Hardened bool   `json:"hardened"`
}

type SessionResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Strict   bool   `json:"strict"`
	Hardened bool   `json:"hardened"`
	Evals    int    `json:"evals"`
}

type EvalRequest struct {
	Input string `json:"input"`
}

type EvalResponse struct {
	Result string `json:"result"`
	Output string `json:"output,omitempty"`
}

type CommandResponse struct {
	ID      string    `json:"id"`
	Input   string    `json:"input"`
	Result  string    `json:"result"`
	Created time.Time `json:"created"`
}

type InfoResponse struct {
	Version string `json:"version"`
}

func (rs *RemoraServer) epLogin(req *http.Request) result.Result {
	var login LoginRequest
	if err := parseJSON(req, &login); err != nil {
		return result.BadRequest(err.Error(), "%s", err.Error())
	}

	user, err := rs.svc.Login(req.Context(), login.Username, login.Password)
	if err != nil {
		if errors.Is(err, serr.ErrBadCredentials) {
			return result.Unauthorized("Incorrect username or password", "user %q: %s", login.Username, err.Error())
		}
		return result.InternalServerError("login: %s", err.Error())
	}

	tok, err := token.Generate(rs.jwtSecret, user)
	if err != nil {
		return result.InternalServerError("generate token: %s", err.Error())
	}

	return result.OK(LoginResponse{Token: tok, UserID: user.ID.String()}, "user %q logged in", user.Username)
}

func (rs *RemoraServer) epLogout(req *http.Request) result.Result {
	user, res, ok := authUser(req)
	if !ok {
		return res
	}

	if _, err := rs.svc.Logout(req.Context(), user.ID); err != nil {
		return result.InternalServerError("logout: %s", err.Error())
	}
	return result.NoContent("user %q logged out", user.Username)
}

func (rs *RemoraServer) epCreateUser(req *http.Request) result.Result {
	var create CreateUserRequest
	if err := parseJSON(req, &create); err != nil {
		return result.BadRequest(err.Error(), "%s", err.Error())
	}

	user, err := rs.svc.CreateUser(req.Context(), create.Username, create.Password)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("A user with that username already exists", "%s", err.Error())
		}
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), "%s", err.Error())
		}
		return result.InternalServerError("create user: %s", err.Error())
	}

	return result.Created(UserResponse{ID: user.ID.String(), Username: user.Username}, "user %q created", user.Username)
}

func (rs *RemoraServer) epInfo(req *http.Request) result.Result {
	return result.OK(InfoResponse{Version: version.ServerCurrent}, "info")
}

func (rs *RemoraServer) epCreateSession(req *http.Request) result.Result {
	user, res, ok := authUser(req)
	if !ok {
		return res
	}

	var create CreateSessionRequest
	if err := parseJSON(req, &create); err != nil {
		return result.BadRequest(err.Error(), "%s", err.Error())
	}

	s, err := rs.svc.CreateSession(req.Context(), user.ID, create.Name, create.Strict, create.Hardened)
	if err != nil {
		return result.InternalServerError("create session: %s", err.Error())
	}

	return result.Created(sessionResponse(s), "session %s created for %q", s.ID, user.Username)
}

func (rs *RemoraServer) epListSessions(req *http.Request) result.Result {
	user, res, ok := authUser(req)
	if !ok {
		return res
	}

	all, err := rs.svc.GetAllSessions(req.Context(), user.ID)
	if err != nil {
		return result.InternalServerError("list sessions: %s", err.Error())
	}

	resp := make([]SessionResponse, len(all))
	for i := range all {
		resp[i] = sessionResponse(all[i])
	}
	return result.OK(resp, "%d sessions for %q", len(resp), user.Username)
}

func (rs *RemoraServer) epGetSession(req *http.Request) result.Result {
	user, res, ok := authUser(req)
	if !ok {
		return res
	}
	id, res, ok := pathID(req)
	if !ok {
		return res
	}

	s, err := rs.svc.GetSession(req.Context(), user.ID, id)
	if err != nil {
		return sessionError(err)
	}

	return result.OK(sessionResponse(s), "session %s", s.ID)
}

func (rs *RemoraServer) epEval(req *http.Request) result.Result {
	user, res, ok := authUser(req)
	if !ok {
		return res
	}
	id, res, ok := pathID(req)
	if !ok {
		return res
	}

	var evalReq EvalRequest
	if err := parseJSON(req, &evalReq); err != nil {
		return result.BadRequest(err.Error(), "%s", err.Error())
	}

	value, printed, err := rs.svc.Eval(req.Context(), user.ID, id, evalReq.Input)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), "eval in %s: %s", id, err.Error())
		}
		return sessionError(err)
	}

	return result.OK(EvalResponse{Result: value, Output: printed}, "eval in session %s", id)
}

func (rs *RemoraServer) epSessionCommands(req *http.Request) result.Result {
	user, res, ok := authUser(req)
	if !ok {
		return res
	}
	id, res, ok := pathID(req)
	if !ok {
		return res
	}

	cmds, err := rs.svc.SessionCommands(req.Context(), user.ID, id)
	if err != nil {
		return sessionError(err)
	}

	resp := make([]CommandResponse, len(cmds))
	for i := range cmds {
		resp[i] = CommandResponse{
			ID:      cmds[i].ID.String(),
			Input:   cmds[i].Input,
			Result:  cmds[i].Result,
			Created: cmds[i].Created,
		}
	}
	return result.OK(resp, "%d commands in session %s", len(resp), id)
}

func sessionResponse(s dao.Session) SessionResponse {
	return SessionResponse{
		ID:       s.ID.String(),
		Name:     s.Name,
		Strict:   s.State.Strict,
		Hardened: s.State.Hardened,
		Evals:    len(s.State.History),
	}
}

// sessionError maps service-layer session lookup failures to results.
func sessionError(err error) result.Result {
	if errors.Is(err, serr.ErrNotFound) {
		return result.NotFound("session: %s", err.Error())
	}
	if errors.Is(err, serr.ErrPermissions) {
		return result.Forbidden("session: %s", err.Error())
	}
	return result.InternalServerError("session: %s", err.Error())
}

// authUser pulls the user the auth middleware resolved out of the request
// context. The middleware rejects unauthenticated requests before the
// endpoint runs, so a missing user here is a routing bug.
func authUser(req *http.Request) (dao.User, result.Result, bool) {
	loggedIn, _ := req.Context().Value(middle.AuthLoggedIn).(bool)
	user, hasUser := req.Context().Value(middle.AuthUser).(dao.User)
	if !loggedIn || !hasUser {
		return dao.User{}, result.Unauthorized("", "endpoint reached with no authenticated user"), false
	}
	return user, result.Result{}, true
}

// pathID parses the {id} URL parameter.
func pathID(req *http.Request) (uuid.UUID, result.Result, bool) {
	idStr := chi.URLParam(req, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.UUID{}, result.BadRequest(fmt.Sprintf("Not a valid session ID: %q", idStr), "bad id %q: %s", idStr, err.Error()), false
	}
	return id, result.Result{}, true
}

func parseJSON(req *http.Request, target interface{}) error {
	defer req.Body.Close()

	if err := json.NewDecoder(req.Body).Decode(target); err != nil {
		return serr.New("malformed JSON in request body", err, serr.ErrBodyUnmarshal)
	}
	return nil
}
