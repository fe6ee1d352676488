package server

import (
	"context"
	"testing"

	"github.com/dekarrin/remora/server/dao/inmem"
	"github.com/dekarrin/remora/server/serr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_Service_CreateUserAndLogin(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc := NewService(inmem.NewDatastore())

	user, err := svc.CreateUser(ctx, "vriska", "8888888")
	assert.NoError(err)
	assert.Equal("vriska", user.Username)

	// correct credentials
	got, err := svc.Login(ctx, "vriska", "8888888")
	assert.NoError(err)
	assert.Equal(user.ID, got.ID)

	// wrong password
	_, err = svc.Login(ctx, "vriska", "nope")
	assert.ErrorIs(err, serr.ErrBadCredentials)

	// no such user
	_, err = svc.Login(ctx, "aradia", "8888888")
	assert.ErrorIs(err, serr.ErrBadCredentials)
}

func Test_Service_CreateUser_Validation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc := NewService(inmem.NewDatastore())

	_, err := svc.CreateUser(ctx, "", "pw")
	assert.ErrorIs(err, serr.ErrBadArgument)

	_, err = svc.CreateUser(ctx, "has space", "pw")
	assert.ErrorIs(err, serr.ErrBadArgument)

	_, err = svc.CreateUser(ctx, "nepeta", "")
	assert.ErrorIs(err, serr.ErrBadArgument)

	_, err = svc.CreateUser(ctx, "nepeta", "pw")
	assert.NoError(err)

	_, err = svc.CreateUser(ctx, "nepeta", "other")
	assert.ErrorIs(err, serr.ErrAlreadyExists)
}

func Test_Service_EvalKeepsSessionState(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc := NewService(inmem.NewDatastore())
	user, err := svc.CreateUser(ctx, "terezi", "l1c3nse")
	assert.NoError(err)

	sesh, err := svc.CreateSession(ctx, user.ID, "scales", false, false)
	assert.NoError(err)

	val, _, err := svc.Eval(ctx, user.ID, sesh.ID, "(def x 20)")
	assert.NoError(err)
	assert.Equal("20", val)

	val, _, err = svc.Eval(ctx, user.ID, sesh.ID, "(x * 2)")
	assert.NoError(err)
	assert.Equal("40", val)

	// history persisted with the session
	got, err := svc.GetSession(ctx, user.ID, sesh.ID)
	assert.NoError(err)
	assert.Equal([]string{"(def x 20)", "(x * 2)"}, got.State.History)

	// command history recorded
	cmds, err := svc.SessionCommands(ctx, user.ID, sesh.ID)
	assert.NoError(err)
	if assert.Len(cmds, 2) {
		assert.Equal("(def x 20)", cmds[0].Input)
		assert.Equal("20", cmds[0].Result)
		assert.Equal("(x * 2)", cmds[1].Input)
		assert.Equal("40", cmds[1].Result)
	}
}

func Test_Service_EvalRebuildsFromHistory(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc := NewService(inmem.NewDatastore())
	user, err := svc.CreateUser(ctx, "equius", "st8rong")
	assert.NoError(err)

	sesh, err := svc.CreateSession(ctx, user.ID, "", false, false)
	assert.NoError(err)

	_, _, err = svc.Eval(ctx, user.ID, sesh.ID, "(def x 100)")
	assert.NoError(err)

	// drop the live interpreter; the next eval must rebuild it by replaying
	// the persisted history
	svc.mu.Lock()
	delete(svc.live, sesh.ID)
	svc.mu.Unlock()

	val, _, err := svc.Eval(ctx, user.ID, sesh.ID, "(x + 1)")
	assert.NoError(err)
	assert.Equal("101", val)
}

func Test_Service_EvalCapturesPrintedOutput(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc := NewService(inmem.NewDatastore())
	user, err := svc.CreateUser(ctx, "karkat", "pw")
	assert.NoError(err)
	sesh, err := svc.CreateSession(ctx, user.ID, "", false, false)
	assert.NoError(err)

	val, printed, err := svc.Eval(ctx, user.ID, sesh.ID, `(print "GLUB" 3)`)
	assert.NoError(err)
	assert.Equal("3", val)
	assert.Equal("GLUB 3\n", printed)
}

func Test_Service_EvalBadInput(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc := NewService(inmem.NewDatastore())
	user, err := svc.CreateUser(ctx, "sollux", "pw")
	assert.NoError(err)
	sesh, err := svc.CreateSession(ctx, user.ID, "", false, false)
	assert.NoError(err)

	_, _, err = svc.Eval(ctx, user.ID, sesh.ID, "(1 +")
	assert.ErrorIs(err, serr.ErrBadArgument)

	// failed input is not recorded in history
	got, err := svc.GetSession(ctx, user.ID, sesh.ID)
	assert.NoError(err)
	assert.Empty(got.State.History)
}

func Test_Service_SessionOwnership(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc := NewService(inmem.NewDatastore())
	owner, err := svc.CreateUser(ctx, "feferi", "pw")
	assert.NoError(err)
	other, err := svc.CreateUser(ctx, "eridan", "pw")
	assert.NoError(err)

	sesh, err := svc.CreateSession(ctx, owner.ID, "", false, false)
	assert.NoError(err)

	_, err = svc.GetSession(ctx, other.ID, sesh.ID)
	assert.ErrorIs(err, serr.ErrPermissions)

	_, _, err = svc.Eval(ctx, other.ID, sesh.ID, "1")
	assert.ErrorIs(err, serr.ErrPermissions)

	_, err = svc.GetSession(ctx, owner.ID, uuid.New())
	assert.ErrorIs(err, serr.ErrNotFound)
}
