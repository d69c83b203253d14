package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/execos/execos/internal/service"
)

func (a *app) commandProject(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: execos project [create|list|add-member|members]")
	}
	switch args[0] {
	case "create":
		return a.projectCreate(args[1:])
	case "list":
		return a.projectList(args[1:])
	case "add-member":
		return a.projectAddMember(args[1:])
	case "members":
		return a.projectMembers(args[1:])
	default:
		return fmt.Errorf("unknown project command: %s", args[0])
	}
}

func (a *app) projectCreate(args []string) error {
	fs := flag.NewFlagSet("project create", flag.ExitOnError)
	name := fs.String("name", "", "Project name")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	project, err := a.projects.CreateProject(ctx, service.CreateProjectInput{
		OwnerID: user.ID,
		Name:    *name,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created project %s\t%s\n", project.ID, project.Name)
	return nil
}

func (a *app) projectList(args []string) error {
	fs := flag.NewFlagSet("project list", flag.ExitOnError)
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	projects, err := a.projects.ListUserProjects(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("no projects")
		return nil
	}

	for _, p := range projects {
		owner := p.OwnerID
		if owner == user.ID {
			owner = "you"
		}
		fmt.Printf("%s\t%s\towner: %s\t%s\n", p.ID, p.Name, owner, p.CreatedAt.Local().Format("2006-01-02"))
	}
	return nil
}

func (a *app) projectAddMember(args []string) error {
	fs := flag.NewFlagSet("project add-member", flag.ExitOnError)
	projectID := fs.String("project", "", "Project id")
	userID := fs.String("user", "", "User id to add")
	fs.Parse(args)

	if strings.TrimSpace(*projectID) == "" {
		return errors.New("--project is required")
	}
	if strings.TrimSpace(*userID) == "" {
		return errors.New("--user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	membership, err := a.projects.AddMember(ctx, service.AddMemberInput{
		ProjectID: *projectID,
		UserID:    *userID,
		ActorID:   user.ID,
	})
	if err != nil {
		return err
	}

	fmt.Printf("added %s to project %s (membership %s)\n", membership.UserID, membership.ProjectID, membership.ID)
	return nil
}

func (a *app) projectMembers(args []string) error {
	fs := flag.NewFlagSet("project members", flag.ExitOnError)
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

	project, err := a.projects.GetProject(ctx, *projectID)
	if err != nil {
		return err
	}
	members, err := a.projects.ListProjectMembers(ctx, project.ID)
	if err != nil {
		return err
	}

	fmt.Printf("members of %s:\n", project.Name)
	for _, m := range members {
		fmt.Printf("%s\tjoined %s\n", m.UserID, m.JoinedAt.Local().Format("2006-01-02"))
	}
	return nil
}
