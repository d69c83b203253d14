package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/service"
)

func (a *app) commandTask(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: execos task [create|assign|status|list]")
	}
	switch args[0] {
	case "create":
		return a.taskCreate(args[1:])
	case "assign":
		return a.taskAssign(args[1:])
	case "status":
		return a.taskStatus(args[1:])
	case "list":
		return a.taskList(args[1:])
	default:
		return fmt.Errorf("unknown task command: %s", args[0])
	}
}

func (a *app) taskCreate(args []string) error {
	fs := flag.NewFlagSet("task create", flag.ExitOnError)
	projectID := fs.String("project", "", "Project id")
	title := fs.String("title", "", "Task title")
	description := fs.String("description", "", "Task description")
	assigneeID := fs.String("assignee", "", "User id to assign the task to")
	due := fs.String("due", "", "Due date (2006-01-02 or RFC 3339)")
	fs.Parse(args)

	if strings.TrimSpace(*projectID) == "" {
		return errors.New("--project is required")
	}
	if strings.TrimSpace(*title) == "" {
		return errors.New("--title is required")
	}
	dueDate, err := parseDueDate(*due)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	task, err := a.tasks.CreateTask(ctx, service.CreateTaskInput{
		ActorID:     user.ID,
		ProjectID:   *projectID,
		Title:       *title,
		Description: *description,
		AssigneeID:  *assigneeID,
		DueDate:     dueDate,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created task %s\t%s\t[%s]\n", task.ID, task.Title, task.Status)
	return nil
}

func (a *app) taskAssign(args []string) error {
	fs := flag.NewFlagSet("task assign", flag.ExitOnError)
	taskID := fs.String("task", "", "Task id")
	assigneeID := fs.String("assignee", "", "User id to assign the task to")
	fs.Parse(args)

	if strings.TrimSpace(*taskID) == "" {
		return errors.New("--task is required")
	}
	if strings.TrimSpace(*assigneeID) == "" {
		return errors.New("--assignee is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	task, err := a.tasks.AssignTask(ctx, user.ID, *taskID, *assigneeID)
	if err != nil {
		return err
	}

	fmt.Printf("assigned task %s to %s\n", task.ID, task.AssigneeID)
	return nil
}

func (a *app) taskStatus(args []string) error {
	fs := flag.NewFlagSet("task status", flag.ExitOnError)
	taskID := fs.String("task", "", "Task id")
	status := fs.String("status", "", "New status: todo, doing or done")
	fs.Parse(args)

	if strings.TrimSpace(*taskID) == "" {
		return errors.New("--task is required")
	}
	if strings.TrimSpace(*status) == "" {
		return errors.New("--status is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	task, err := a.tasks.UpdateTaskStatus(ctx, user.ID, *taskID, *status)
	if err != nil {
		return err
	}

	fmt.Printf("task %s is now %s\n", task.ID, task.Status)
	return nil
}

func (a *app) taskList(args []string) error {
	fs := flag.NewFlagSet("task list", flag.ExitOnError)
	projectID := fs.String("project", "", "Project id")
	fs.Parse(args)

	if strings.TrimSpace(*projectID) == "" {
		return errors.New("--project is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := a.requireSession(ctx); err != nil {
		return err
	}

	tasks, err := a.tasks.ListProjectTasks(ctx, *projectID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}

	for _, task := range tasks {
		fmt.Println(formatTask(task))
	}
	return nil
}

func formatTask(task *model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t[%s]\t%s", task.ID, task.Status, task.Title)
	if task.IsAssigned() {
		fmt.Fprintf(&b, "\t@%s", task.AssigneeID)
	}
	if task.DueDate != nil {
		fmt.Fprintf(&b, "\tdue %s", task.DueDate.Local().Format("2006-01-02"))
		if task.IsOverdue() {
			b.WriteString(" (overdue)")
		}
	}
	return b.String()
}

// parseDueDate accepts a bare date or a full RFC 3339 timestamp.
func parseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse("2006-01-02", value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --due value %q: use 2006-01-02 or RFC 3339", value)
	}
	t = t.UTC()
	return &t, nil
}
