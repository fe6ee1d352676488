package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/google/uuid"
)

func NewSessionsRepository() *InMemorySessionsRepository {
	return &InMemorySessionsRepository{
		sessions: make(map[uuid.UUID]dao.Session),
	}
}

type InMemorySessionsRepository struct {
	sessions map[uuid.UUID]dao.Session
}

func (imsr *InMemorySessionsRepository) Close() error {
	return nil
}

func (imsr *InMemorySessionsRepository) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	s.ID = newUUID
	s.Created = time.Now()

	imsr.sessions[s.ID] = s
	return s, nil
}

func (imsr *InMemorySessionsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := imsr.sessions[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}
	return s, nil
}

func (imsr *InMemorySessionsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	var all []dao.Session
	for k := range imsr.sessions {
		if imsr.sessions[k].UserID == userID {
			all = append(all, imsr.sessions[k])
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Created.Before(all[j].Created)
	})

	return all, nil
}

func (imsr *InMemorySessionsRepository) Update(ctx context.Context, id uuid.UUID, s dao.Session) (dao.Session, error) {
	if _, ok := imsr.sessions[id]; !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	if s.ID != id {
		if _, ok := imsr.sessions[s.ID]; ok {
			return dao.Session{}, dao.ErrConstraintViolation
		}
	}

	imsr.sessions[s.ID] = s
	if s.ID != id {
		delete(imsr.sessions, id)
	}

	return s, nil
}

func (imsr *InMemorySessionsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s, ok := imsr.sessions[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	delete(imsr.sessions, id)
	return s, nil
}
