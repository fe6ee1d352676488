package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/google/uuid"
)

type SessionsDB struct {
	db *sql.DB
}

func (repo *SessionsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS sessions (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *SessionsDB) Close() error {
	// the DB connection is owned by the store
	return nil
}

func (repo *SessionsDB) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO sessions (id, user_id, name, state, created) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	now := time.Now()

	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(s.UserID),
		s.Name,
		convertToDB_SessionState(s.State),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *SessionsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, user_id, name, state, created FROM sessions WHERE id=?;`, convertToDB_UUID(id))

	var s dao.Session
	var sid string
	var userID string
	var state string
	var created int64

	err := row.Scan(
		&sid,
		&userID,
		&s.Name,
		&state,
		&created,
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}

	if err := repo.convertRow(&s, sid, userID, state, created); err != nil {
		return dao.Session{}, err
	}
	return s, nil
}

func (repo *SessionsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, name, state, created FROM sessions WHERE user_id=? ORDER BY created;`, convertToDB_UUID(userID))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Session

	for rows.Next() {
		var s dao.Session
		var sid string
		var uid string
		var state string
		var created int64

		err = rows.Scan(
			&sid,
			&uid,
			&s.Name,
			&state,
			&created,
		)
		if err != nil {
			return nil, wrapDBError(err)
		}

		if err := repo.convertRow(&s, sid, uid, state, created); err != nil {
			return all, err
		}
		all = append(all, s)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *SessionsDB) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE sessions SET id=?, user_id=?, name=?, state=? WHERE id=?;`,
		convertToDB_UUID(s.ID),
		convertToDB_UUID(s.UserID),
		s.Name,
		convertToDB_SessionState(s.State),
		convertToDB_UUID(id),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	if updated < 1 {
		return dao.Session{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, s.ID)
}

func (repo *SessionsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, err := repo.GetByID(ctx, id)
	if err != nil {
		return dao.Session{}, err
	}

	_, err = repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?;`, convertToDB_UUID(id))
	if err != nil {
		return s, wrapDBError(err)
	}
	return s, nil
}

func (repo *SessionsDB) convertRow(s *dao.Session, id, userID, state string, created int64) error {
	if err := convertFromDB_UUID(id, &s.ID); err != nil {
		return fmt.Errorf("stored UUID %q is invalid: %w", id, err)
	}
	if err := convertFromDB_UUID(userID, &s.UserID); err != nil {
		return fmt.Errorf("stored user ID %q is invalid: %w", userID, err)
	}
	if err := convertFromDB_SessionState(state, &s.State); err != nil {
		return err
	}
	convertFromDB_Time(created, &s.Created)
	return nil
}
