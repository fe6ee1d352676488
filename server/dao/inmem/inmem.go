// Package inmem provides map-backed implementations of the server's
// repositories, suitable for tests and for running the server without any
// storage directory. It does not support enforcement of foreign keys.
package inmem

import "github.com/dekarrin/remora/server/dao"

// NewDatastore creates a dao.Store with every repository backed by process
// memory.
func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepository(),
		sessions: NewSessionsRepository(),
		commands: NewCommandsRepository(),
	}
}

type store struct {
	users    *InMemoryUsersRepository
	sessions *InMemorySessionsRepository
	commands *InMemoryCommandsRepository
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Sessions() dao.SessionRepository {
	return s.sessions
}

func (s *store) Commands() dao.CommandRepository {
	return s.commands
}

func (s *store) Close() error {
	return nil
}
