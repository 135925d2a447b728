// Package seed loads demo users, groups and tasks from YAML into a RemoteStore.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/mradkov043/discite-omnes-app/internal/codec"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/store"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var demoFixtures []byte

type User struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type Group struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Members     []string `yaml:"members"`
}

type Task struct {
	ID          string `yaml:"id"`
	GroupID     string `yaml:"group_id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	DueDate     string `yaml:"due_date"`
	AssignedTo  string `yaml:"assigned_to"`
	Completed   bool   `yaml:"completed"`
}

type Fixtures struct {
	Users  []User  `yaml:"users"`
	Groups []Group `yaml:"groups"`
	Tasks  []Task  `yaml:"tasks"`
}

// Result counts the records written by Apply.
type Result struct {
	Users  int
	Groups int
	Tasks  int
}

// Demo returns the fixtures bundled with the binary.
func Demo() (*Fixtures, error) {
	return Load(bytes.NewReader(demoFixtures))
}

func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func Load(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate проверяет идентификаторы и ссылки между пользователями, группами и задачами
func (fx *Fixtures) Validate() error {
	users := make(map[string]bool, len(fx.Users))
	for _, u := range fx.Users {
		if strings.TrimSpace(u.ID) == "" {
			return domain.NewInvalidInputError("fixture user without id")
		}
		if users[u.ID] {
			return domain.NewInvalidInputError(fmt.Sprintf("duplicate fixture user %s", u.ID))
		}
		users[u.ID] = true
	}

	groups := make(map[string]Group, len(fx.Groups))
	for _, g := range fx.Groups {
		if strings.TrimSpace(g.ID) == "" {
			return domain.NewInvalidInputError("fixture group without id")
		}
		if _, ok := groups[g.ID]; ok {
			return domain.NewInvalidInputError(fmt.Sprintf("duplicate fixture group %s", g.ID))
		}
		for _, m := range g.Members {
			if !users[m] {
				return domain.NewInvalidInputError(fmt.Sprintf("group %s lists unknown member %s", g.ID, m))
			}
		}
		groups[g.ID] = g
	}

	tasks := make(map[string]bool, len(fx.Tasks))
	for _, t := range fx.Tasks {
		if strings.TrimSpace(t.ID) == "" {
			return domain.NewInvalidInputError("fixture task without id")
		}
		if tasks[t.ID] {
			return domain.NewInvalidInputError(fmt.Sprintf("duplicate fixture task %s", t.ID))
		}
		tasks[t.ID] = true

		g, ok := groups[t.GroupID]
		if !ok {
			return domain.NewInvalidInputError(fmt.Sprintf("task %s belongs to unknown group %s", t.ID, t.GroupID))
		}
		if strings.TrimSpace(t.Title) == "" {
			return domain.NewInvalidInputError(fmt.Sprintf("task %s has no title", t.ID))
		}
		if t.DueDate != "" {
			if _, err := time.Parse(domain.DueDateLayout, t.DueDate); err != nil {
				return domain.NewInvalidInputError(fmt.Sprintf("task %s has malformed due date %q", t.ID, t.DueDate))
			}
		}
		if t.AssignedTo != "" && !slices.Contains(g.Members, t.AssignedTo) {
			return domain.NewInvalidInputError(fmt.Sprintf("task %s is assigned to %s who is not in group %s", t.ID, t.AssignedTo, g.ID))
		}
	}
	return nil
}

// Apply writes users first, then groups, then tasks, so that a subscriber
// never sees a task whose assignee is missing.
func Apply(ctx context.Context, s store.RemoteStore, fx *Fixtures, logger *slog.Logger) (Result, error) {
	var res Result

	names := make(map[string]string, len(fx.Users))
	for _, u := range fx.Users {
		names[u.ID] = u.Name
		user := domain.User{ID: u.ID, Name: u.Name, Email: u.Email}
		if err := s.Write(ctx, store.UserPath(u.ID), codec.EncodeUser(user)); err != nil {
			return res, domain.NewWriteFailure(store.UserPath(u.ID), err)
		}
		res.Users++
	}

	for _, g := range fx.Groups {
		group := domain.Group{ID: g.ID, Name: g.Name, Description: g.Description, Members: g.Members}
		if err := s.Write(ctx, store.GroupPath(g.ID), codec.EncodeGroup(group)); err != nil {
			return res, domain.NewWriteFailure(store.GroupPath(g.ID), err)
		}
		res.Groups++
	}

	for _, t := range fx.Tasks {
		task := domain.Task{
			ID:          t.ID,
			GroupID:     t.GroupID,
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate,
			Completed:   t.Completed,
			AssignedTo:  t.AssignedTo,
		}
		if t.AssignedTo != "" {
			task.AssignedToName = names[t.AssignedTo]
		}
		if err := s.Write(ctx, store.TaskPath(t.ID), codec.EncodeTask(task)); err != nil {
			return res, domain.NewWriteFailure(store.TaskPath(t.ID), err)
		}
		res.Tasks++
	}

	logger.Info("fixtures applied",
		slog.Int("users", res.Users),
		slog.Int("groups", res.Groups),
		slog.Int("tasks", res.Tasks),
	)
	return res, nil
}
