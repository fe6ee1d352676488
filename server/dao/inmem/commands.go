package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/google/uuid"
)

func NewCommandsRepository() *InMemoryCommandsRepository {
	return &InMemoryCommandsRepository{
		commands: make(map[uuid.UUID]dao.Command),
	}
}

type InMemoryCommandsRepository struct {
	commands map[uuid.UUID]dao.Command
}

func (imcr *InMemoryCommandsRepository) Close() error {
	return nil
}

func (imcr *InMemoryCommandsRepository) Create(ctx context.Context, cmd dao.Command) (dao.Command, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Command{}, fmt.Errorf("could not generate ID: %w", err)
	}

	cmd.ID = newUUID
	cmd.Created = time.Now()

	imcr.commands[cmd.ID] = cmd
	return cmd, nil
}

func (imcr *InMemoryCommandsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Command, error) {
	cmd, ok := imcr.commands[id]
	if !ok {
		return dao.Command{}, dao.ErrNotFound
	}
	return cmd, nil
}

func (imcr *InMemoryCommandsRepository) GetAllBySession(ctx context.Context, sessionID uuid.UUID) ([]dao.Command, error) {
	var all []dao.Command
	for k := range imcr.commands {
		if imcr.commands[k].SessionID == sessionID {
			all = append(all, imcr.commands[k])
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Created.Before(all[j].Created)
	})

	return all, nil
}

func (imcr *InMemoryCommandsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Command, error) {
	cmd, ok := imcr.commands[id]
	if !ok {
		return dao.Command{}, dao.ErrNotFound
	}

	delete(imcr.commands, id)
	return cmd, nil
}
