package projection

import (
	"context"

	"github.com/mradkov043/discite-omnes-app/internal/codec"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

// TaskProjector projects the tasks of one group. The store filters by groupId
// equality; tasks of other groups are dropped here as well.
type TaskProjector struct {
	*Projector[domain.Task]
	groupID string
}

func NewTaskProjector(s store.RemoteStore, groupID string, opts ...Option) *TaskProjector {
	q := store.EqualityQuery(store.TasksCollection, store.GroupIDField, groupID)
	p := &TaskProjector{
		Projector: newProjector[domain.Task]("task", s, q, codec.DecodeTask, opts),
		groupID:   groupID,
	}
	p.accept = func(t domain.Task) bool {
		return t.GroupID == groupID
	}
	return p
}

func (p *TaskProjector) GroupID() string {
	return p.groupID
}

// SetCompletion marks the task locally, emits immediately and writes
// tasks/{id}/completed. If the write still fails after retries the local value
// is reverted and a WRITE_FAILED error is returned.
func (p *TaskProjector) SetCompletion(ctx context.Context, taskID string, completed bool) error {
	if taskID == "" {
		return domain.NewPreconditionError("task id")
	}

	path := store.TaskCompletedPath(taskID)
	return p.mutate(ctx, taskID, "set_completion", path,
		func(t domain.Task) (domain.Task, bool) {
			if t.Completed == completed {
				return t, false
			}
			t.Completed = completed
			return t, true
		},
		func(ctx context.Context) error {
			return p.store.Write(ctx, path, completed)
		},
	)
}
