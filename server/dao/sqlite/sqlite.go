// Package sqlite provides SQLite-backed implementations of the server's
// repositories, using the modernc pure-Go driver.
package sqlite

import (
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/serr"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	"modernc.org/sqlite"
)

type store struct {
	dbFilename string

	db *sql.DB

	users  *UsersDB
	seshes *SessionsDB
	cmds   *CommandsDB
}

// NewDatastore creates a dao.Store backed by a SQLite database file inside
// the given storage directory, creating tables as needed.
func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{
		dbFilename: "data.db",
	}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		return nil, err
	}

	st.seshes = &SessionsDB{db: st.db}
	if err := st.seshes.init(true); err != nil {
		return nil, err
	}

	st.cmds = &CommandsDB{db: st.db}
	if err := st.cmds.init(true); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Sessions() dao.SessionRepository {
	return s.seshes
}

func (s *store) Commands() dao.CommandRepository {
	return s.cmds
}

func (s *store) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", s.dbFilename, err)
	}
	return nil
}

// convertToDB_UUID converts a uuid.UUID to storage DB format on disk.
func convertToDB_UUID(u uuid.UUID) string {
	return u.String()
}

// convertToDB_Time converts a time.Time to storage DB format on disk.
func convertToDB_Time(t time.Time) int64 {
	return t.Unix()
}

// convertToDB_SessionState converts session state to storage DB format on
// disk: REZI-encoded, then base64.
func convertToDB_SessionState(st dao.SessionState) string {
	stateData := rezi.EncBinary(st)
	return base64.StdEncoding.EncodeToString(stateData)
}

// convertFromDB_UUID converts storage DB format value to a uuid.UUID and
// stores it at the address pointed to by target. If there is a problem with
// the decoding, the returned error will be of type serr.Error, and will wrap
// dao.ErrDecodingFailure. If this function returns a non-nil error, target
// will not have been modified.
func convertFromDB_UUID(s string, target *uuid.UUID) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return serr.New("", err, dao.ErrDecodingFailure)
	}
	*target = u
	return nil
}

// convertFromDB_Time converts storage DB format value to a time.Time and
// stores it at the address pointed to by target.
func convertFromDB_Time(i int64, target *time.Time) error {
	*target = time.Unix(i, 0)
	return nil
}

// convertFromDB_SessionState converts a storage DB format string back to
// session state and stores it at the address pointed to by target. If there
// is a problem with the decoding, the returned error will be of type
// serr.Error, and will wrap dao.ErrDecodingFailure. If this function returns
// a non-nil error, target will not have been modified.
func convertFromDB_SessionState(s string, target *dao.SessionState) error {
	stateData, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return serr.New("decode stored state to bytes", err, dao.ErrDecodingFailure)
	}

	var st dao.SessionState
	n, err := rezi.DecBinary(stateData, &st)
	if err != nil {
		return serr.New("REZI decode", err, dao.ErrDecodingFailure)
	}
	if n != len(stateData) {
		return serr.New(fmt.Sprintf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(stateData)), dao.ErrDecodingFailure)
	}

	*target = st
	return nil
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}
