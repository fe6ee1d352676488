// Package dao provides data access objects for use in the Remora evaluation
// server.
package dao

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	Commands() CommandRepository
	Close() error
}

type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

// User is a login account on the evaluation server.
type User struct {
	ID uuid.UUID

	// Username is unique across all users.
	Username string

	// Password is the base64 encoding of the bcrypt hash of the user's
	// password.
	Password string

	Created time.Time

	// LastLogoutTime is part of the token signing key, so bumping it
	// invalidates all outstanding tokens for the user.
	LastLogoutTime time.Time
}

type SessionRepository interface {
	Create(ctx context.Context, s Session) (Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)
	Update(ctx context.Context, id uuid.UUID, s Session) (Session, error)
	Delete(ctx context.Context, id uuid.UUID) (Session, error)
	Close() error
}

// Session is one persistent interpreter owned by a user. The interpreter
// itself lives in server memory; State is what is needed to rebuild it.
type Session struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Name    string
	Created time.Time

	State SessionState
}

// SessionState is the persisted form of a session's interpreter: its
// configuration plus every successfully evaluated input in order, which is
// replayed to rebuild the live interpreter.
type SessionState struct {
	Strict   bool
	Hardened bool
	History  []string
}

// MarshalBinary encodes the state for storage via REZI.
func (st SessionState) MarshalBinary() ([]byte, error) {
	var enc []byte

	enc = append(enc, encBool(st.Strict)...)
	enc = append(enc, encBool(st.Hardened)...)
	enc = binary.AppendVarint(enc, int64(len(st.History)))
	for _, h := range st.History {
		enc = binary.AppendVarint(enc, int64(len(h)))
		enc = append(enc, h...)
	}

	return enc, nil
}

// UnmarshalBinary decodes state previously encoded with MarshalBinary.
func (st *SessionState) UnmarshalBinary(data []byte) error {
	var err error

	st.Strict, data, err = decBool(data)
	if err != nil {
		return err
	}
	st.Hardened, data, err = decBool(data)
	if err != nil {
		return err
	}

	count, n := binary.Varint(data)
	if n <= 0 || count < 0 {
		return fmt.Errorf("malformed history count")
	}
	data = data[n:]

	st.History = nil
	for i := int64(0); i < count; i++ {
		strLen, n := binary.Varint(data)
		if n <= 0 || strLen < 0 {
			return fmt.Errorf("malformed history entry length")
		}
		data = data[n:]
		if int64(len(data)) < strLen {
			return fmt.Errorf("unexpected end of data in history entry")
		}
		st.History = append(st.History, string(data[:strLen]))
		data = data[strLen:]
	}

	if len(data) != 0 {
		return fmt.Errorf("%d trailing bytes after session state", len(data))
	}
	return nil
}

func encBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func decBool(data []byte) (bool, []byte, error) {
	if len(data) < 1 {
		return false, nil, fmt.Errorf("unexpected end of data")
	}
	return data[0] == 1, data[1:], nil
}

type CommandRepository interface {
	Create(ctx context.Context, cmd Command) (Command, error)
	GetByID(ctx context.Context, id uuid.UUID) (Command, error)

	// GetAllBySession retrieves all Commands evaluated in a given session,
	// oldest first.
	GetAllBySession(ctx context.Context, sessionID uuid.UUID) ([]Command, error)
	Delete(ctx context.Context, id uuid.UUID) (Command, error)
	Close() error
}

// Command is one evaluated input in a session, kept for history.
type Command struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Created   time.Time

	// Input is the rem source that was evaluated.
	Input string

	// Result is the formatted value the input evaluated to.
	Result string
}
