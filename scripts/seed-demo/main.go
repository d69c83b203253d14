// Seeds a demo workspace on a live platform deployment: two users, a
// shared project, a handful of tasks and the audit trail they produce.
// Useful for trying the CLI against something non-empty.
//
// Usage:
//
//	EXECOS_API_KEY=... go run ./scripts/seed-demo [flags]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/execos/execos/internal/activity"
	"github.com/execos/execos/internal/config"
	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/platform"
	"github.com/execos/execos/internal/policy"
	"github.com/execos/execos/internal/repository"
	"github.com/execos/execos/internal/service"
	"github.com/execos/execos/internal/session"
)

type output struct {
	OwnerID    string   `json:"owner_id"`
	TeammateID string   `json:"teammate_id"`
	ProjectID  string   `json:"project_id"`
	TaskIDs    []string `json:"task_ids"`
}

func main() {
	var (
		ownerEmail    = flag.String("owner-email", "demo-owner@execos.dev", "Owner account email")
		teammateEmail = flag.String("teammate-email", "demo-teammate@execos.dev", "Teammate account email")
		password      = flag.String("password", "demo-password-1", "Password for both demo accounts")
		projectName   = flag.String("project", "Demo Launch", "Project name")
		format        = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	client, err := platform.NewClient(cfg.Endpoint, cfg.APIKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	repo := repository.New(platform.NewDatabases(client))
	pol := policy.NewMembershipPolicy(repo, nil)
	writer := activity.NewWriter(repo, nil, nil)
	projects := service.NewProjectService(repo, pol, writer, nil, nil)
	tasks := service.NewTaskService(repo, pol, writer, nil, nil)
	sessions := session.NewManager(client, platform.NewAccount(client), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// The teammate only has to exist; every mutation below is performed
	// by the owner, so the owner logs in last.
	teammate, err := ensureUser(ctx, sessions, *teammateEmail, *password, "Demo Teammate")
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed teammate:", err)
		os.Exit(1)
	}
	owner, err := ensureUser(ctx, sessions, *ownerEmail, *password, "Demo Owner")
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed owner:", err)
		os.Exit(1)
	}

	project, err := projects.CreateProject(ctx, service.CreateProjectInput{
		OwnerID: owner.ID,
		Name:    *projectName,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "create project:", err)
		os.Exit(1)
	}

	if _, err := projects.AddMember(ctx, service.AddMemberInput{
		ProjectID: project.ID,
		UserID:    teammate.ID,
		ActorID:   owner.ID,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "add teammate:", err)
		os.Exit(1)
	}

	due := time.Now().AddDate(0, 0, 7).UTC()
	seeds := []service.CreateTaskInput{
		{ActorID: owner.ID, ProjectID: project.ID, Title: "Draft announcement", Description: "One pager for the launch email"},
		{ActorID: owner.ID, ProjectID: project.ID, Title: "Set up status page", AssigneeID: teammate.ID},
		{ActorID: owner.ID, ProjectID: project.ID, Title: "Dry-run the rollout", DueDate: &due},
	}

	var taskIDs []string
	var created []*model.Task
	for _, input := range seeds {
		task, err := tasks.CreateTask(ctx, input)
		if err != nil {
			fmt.Fprintln(os.Stderr, "create task:", err)
			os.Exit(1)
		}
		taskIDs = append(taskIDs, task.ID)
		created = append(created, task)
	}

	// Leave some history behind: one task in progress, one reassigned.
	if _, err := tasks.UpdateTaskStatus(ctx, owner.ID, created[0].ID, "doing"); err != nil {
		fmt.Fprintln(os.Stderr, "update status:", err)
		os.Exit(1)
	}
	if _, err := tasks.AssignTask(ctx, owner.ID, created[2].ID, teammate.ID); err != nil {
		fmt.Fprintln(os.Stderr, "assign task:", err)
		os.Exit(1)
	}

	out := output{
		OwnerID:    owner.ID,
		TeammateID: teammate.ID,
		ProjectID:  project.ID,
		TaskIDs:    taskIDs,
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}

	fmt.Println("demo workspace ready")
	fmt.Printf("  owner:    %s (%s)\n", out.OwnerID, *ownerEmail)
	fmt.Printf("  teammate: %s (%s)\n", out.TeammateID, *teammateEmail)
	fmt.Printf("  project:  %s (%s)\n", out.ProjectID, *projectName)
	for _, id := range out.TaskIDs {
		fmt.Printf("  task:     %s\n", id)
	}
}

// ensureUser registers the account, falling back to login when the
// email is already taken from a previous seed run.
func ensureUser(ctx context.Context, sessions *session.Manager, email, password, name string) (*model.User, error) {
	user, err := sessions.Register(ctx, email, password, name)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, session.ErrEmailTaken) {
		return sessions.Login(ctx, email, password)
	}
	return nil, err
}
