package projection

import (
	"log/slog"
	"sync"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

// TaskBoards hands out one subscribed TaskProjector per group and tears them
// all down on Close.
type TaskBoards struct {
	store  store.RemoteStore
	opts   []Option
	logger *slog.Logger

	mu     sync.Mutex
	boards map[string]*TaskProjector
	closed bool
}

func NewTaskBoards(s store.RemoteStore, opts ...Option) *TaskBoards {
	return &TaskBoards{
		store:  s,
		opts:   opts,
		logger: buildOptions(opts).logger,
		boards: make(map[string]*TaskProjector),
	}
}

func (b *TaskBoards) Get(groupID string) (*TaskProjector, error) {
	if groupID == "" {
		return nil, domain.NewPreconditionError("group id")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, domain.NewPreconditionError("open task board registry")
	}
	if board, ok := b.boards[groupID]; ok {
		return board, nil
	}

	board := NewTaskProjector(b.store, groupID, b.opts...)
	if err := board.Subscribe(nil, nil); err != nil {
		return nil, err
	}
	b.boards[groupID] = board
	b.logger.Debug("task board opened", slog.String("group_id", groupID))
	return board, nil
}

// Release unsubscribes the board of groupID, if any.
func (b *TaskBoards) Release(groupID string) {
	b.mu.Lock()
	board, ok := b.boards[groupID]
	delete(b.boards, groupID)
	b.mu.Unlock()

	if ok {
		board.Unsubscribe()
	}
}

func (b *TaskBoards) Close() {
	b.mu.Lock()
	boards := b.boards
	b.boards = make(map[string]*TaskProjector)
	b.closed = true
	b.mu.Unlock()

	for _, board := range boards {
		board.Unsubscribe()
	}
}

func (b *TaskBoards) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.boards)
}
