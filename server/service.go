package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dekarrin/remora/rem"
	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/serr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// Service implements the operations of the Remora evaluation server on top
// of a dao.Store. It also owns the live interpreters for sessions that have
// been evaluated in since startup; a session whose interpreter is not live
// is rebuilt from its persisted state on first use.
type Service struct {
	DB dao.Store

	// evaluation mutates interpreter state in place and is not re-entrant,
	// so all session evaluation is serialized.
	mu   sync.Mutex
	live map[uuid.UUID]*rem.Interpreter
}

// NewService creates a Service on the given store.
func NewService(db dao.Store) *Service {
	return &Service{
		DB:   db,
		live: make(map[uuid.UUID]*rem.Interpreter),
	}
}

// CreateUser creates a new login account with the given credentials. The
// username is NFC-normalized and trimmed before storage so visually
// identical names collide instead of coexisting.
//
// The returned error, if non-nil, matches serr.ErrAlreadyExists if the
// username is taken, serr.ErrBadArgument if the credentials are malformed,
// and serr.ErrDB for DB problems.
func (svc *Service) CreateUser(ctx context.Context, username, password string) (dao.User, error) {
	username = norm.NFC.String(strings.TrimSpace(username))
	if username == "" || strings.ContainsAny(username, " \t\n") {
		return dao.User{}, serr.New("username must be non-empty and contain no spaces", serr.ErrBadArgument)
	}
	if len(password) < 1 {
		return dao.User{}, serr.New("password must not be empty", serr.ErrBadArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dao.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := dao.User{
		Username: username,
		Password: base64.StdEncoding.EncodeToString(hash),
	}

	created, err := svc.DB.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.User{}, serr.New("user "+username, serr.ErrAlreadyExists)
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	return created, nil
}

// Login verifies the provided username and password against the existing
// user in persistence and returns that user if they match.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If the credentials do not
// match a user or if the password is incorrect, it will match
// serr.ErrBadCredentials. If the error occured due to an unexpected problem
// with the DB, it will match serr.ErrDB.
func (svc *Service) Login(ctx context.Context, username string, password string) (dao.User, error) {
	username = norm.NFC.String(strings.TrimSpace(username))

	user, err := svc.DB.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	// verify password
	bcryptHash, err := base64.StdEncoding.DecodeString(user.Password)
	if err != nil {
		return dao.User{}, err
	}

	err = bcrypt.CompareHashAndPassword(bcryptHash, []byte(password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}

	return user, nil
}

// Logout marks the user with the given ID as having logged out, invalidating
// any tokens that may be outstanding. Returns the user entity that was
// logged out.
func (svc *Service) Logout(ctx context.Context, who uuid.UUID) (dao.User, error) {
	existing, err := svc.DB.Users().GetByID(ctx, who)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrNotFound
		}
		return dao.User{}, serr.WrapDB("could not retrieve user", err)
	}

	existing.LastLogoutTime = time.Now()

	updated, err := svc.DB.Users().Update(ctx, existing.ID, existing)
	if err != nil {
		return dao.User{}, serr.WrapDB("could not update user", err)
	}

	return updated, nil
}

// CreateSession creates a persistent interpreter session owned by the given
// user.
func (svc *Service) CreateSession(ctx context.Context, userID uuid.UUID, name string, strict, hardened bool) (dao.Session, error) {
	if strings.TrimSpace(name) == "" {
		name = "session"
	}

	s := dao.Session{
		UserID: userID,
		Name:   name,
		State: dao.SessionState{
			Strict:   strict,
			Hardened: hardened,
		},
	}

	created, err := svc.DB.Sessions().Create(ctx, s)
	if err != nil {
		return dao.Session{}, serr.WrapDB("", err)
	}
	return created, nil
}

// GetSession retrieves a session. The requesting user must own it; asking
// for another user's session matches serr.ErrPermissions.
func (svc *Service) GetSession(ctx context.Context, userID, id uuid.UUID) (dao.Session, error) {
	s, err := svc.DB.Sessions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Session{}, serr.ErrNotFound
		}
		return dao.Session{}, serr.WrapDB("", err)
	}

	if s.UserID != userID {
		return dao.Session{}, serr.ErrPermissions
	}
	return s, nil
}

// GetAllSessions retrieves every session owned by the user.
func (svc *Service) GetAllSessions(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	all, err := svc.DB.Sessions().GetAllByUser(ctx, userID)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return all, nil
}

// Eval evaluates rem source in the given session's interpreter. On success
// it returns the formatted result value and anything the code printed,
// appends the input to the session's persisted history, and records a
// command history entry.
//
// A syntax or evaluation error in the input matches serr.ErrBadArgument.
func (svc *Service) Eval(ctx context.Context, userID, sessionID uuid.UUID, input string) (value string, printed string, err error) {
	s, err := svc.GetSession(ctx, userID, sessionID)
	if err != nil {
		return "", "", err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	interp, ok := svc.live[s.ID]
	if !ok {
		interp = rebuildInterp(s.State)
		svc.live[s.ID] = interp
	}

	out := &bytes.Buffer{}
	interp.Output = out

	v, err := interp.Eval(input)
	if err != nil {
		return "", out.String(), serr.New(err.Error(), serr.ErrBadArgument)
	}
	value = interp.FormatValue(v)

	// persist the new state before reporting success
	s.State.History = append(s.State.History, input)
	if _, err := svc.DB.Sessions().Update(ctx, s.ID, s); err != nil {
		return "", "", serr.WrapDB("persist session state", err)
	}

	cmd := dao.Command{
		SessionID: s.ID,
		Input:     input,
		Result:    value,
	}
	if _, err := svc.DB.Commands().Create(ctx, cmd); err != nil {
		return "", "", serr.WrapDB("record command history", err)
	}

	return value, out.String(), nil
}

// SessionCommands returns the evaluation history of a session, oldest
// first.
func (svc *Service) SessionCommands(ctx context.Context, userID, sessionID uuid.UUID) ([]dao.Command, error) {
	if _, err := svc.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	cmds, err := svc.DB.Commands().GetAllBySession(ctx, sessionID)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return cmds, nil
}

// rebuildInterp reconstructs a live interpreter from persisted session state
// by replaying its history. Replay errors are ignored; every entry was valid
// when it was first evaluated, and soft errors do not stop an interpreter.
func rebuildInterp(st dao.SessionState) *rem.Interpreter {
	interp := &rem.Interpreter{
		Strict:   st.Strict,
		Hardened: st.Hardened,
	}
	for _, src := range st.History {
		_, _ = interp.Eval(src)
	}
	return interp
}
