package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/google/uuid"
)

type CommandsDB struct {
	db *sql.DB
}

func (repo *CommandsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS commands (
		id TEXT NOT NULL PRIMARY KEY,
		session_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES sessions(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		input TEXT NOT NULL,
		result TEXT NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *CommandsDB) Close() error {
	// the DB connection is owned by the store
	return nil
}

func (repo *CommandsDB) Create(ctx context.Context, cmd dao.Command) (dao.Command, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Command{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO commands (id, session_id, input, result, created) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Command{}, wrapDBError(err)
	}

	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(cmd.SessionID),
		cmd.Input,
		cmd.Result,
		convertToDB_Time(time.Now()),
	)
	if err != nil {
		return dao.Command{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *CommandsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Command, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, session_id, input, result, created FROM commands WHERE id=?;`, convertToDB_UUID(id))

	var cmd dao.Command
	var cid string
	var sessionID string
	var created int64

	err := row.Scan(
		&cid,
		&sessionID,
		&cmd.Input,
		&cmd.Result,
		&created,
	)
	if err != nil {
		return dao.Command{}, wrapDBError(err)
	}

	if err := convertFromDB_UUID(cid, &cmd.ID); err != nil {
		return dao.Command{}, fmt.Errorf("stored UUID %q is invalid: %w", cid, err)
	}
	if err := convertFromDB_UUID(sessionID, &cmd.SessionID); err != nil {
		return dao.Command{}, fmt.Errorf("stored session ID %q is invalid: %w", sessionID, err)
	}
	convertFromDB_Time(created, &cmd.Created)

	return cmd, nil
}

func (repo *CommandsDB) GetAllBySession(ctx context.Context, sessionID uuid.UUID) ([]dao.Command, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, session_id, input, result, created FROM commands WHERE session_id=? ORDER BY created;`, convertToDB_UUID(sessionID))
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Command

	for rows.Next() {
		var cmd dao.Command
		var cid string
		var sid string
		var created int64

		err = rows.Scan(
			&cid,
			&sid,
			&cmd.Input,
			&cmd.Result,
			&created,
		)
		if err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(cid, &cmd.ID); err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", cid, err)
		}
		if err := convertFromDB_UUID(sid, &cmd.SessionID); err != nil {
			return all, fmt.Errorf("stored session ID %q is invalid: %w", sid, err)
		}
		convertFromDB_Time(created, &cmd.Created)

		all = append(all, cmd)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *CommandsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Command, error) {
	cmd, err := repo.GetByID(ctx, id)
	if err != nil {
		return dao.Command{}, err
	}

	_, err = repo.db.ExecContext(ctx, `DELETE FROM commands WHERE id=?;`, convertToDB_UUID(id))
	if err != nil {
		return cmd, wrapDBError(err)
	}
	return cmd, nil
}
