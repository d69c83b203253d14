package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/execos/execos/internal/model"
)

func (a *app) commandActivity(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: execos activity [list|tail]")
	}
	switch args[0] {
	case "list":
		return a.activityList(args[1:])
	case "tail":
		return a.activityTail(args[1:])
	default:
		return fmt.Errorf("unknown activity command: %s", args[0])
	}
}

func (a *app) activityList(args []string) error {
	fs := flag.NewFlagSet("activity list", flag.ExitOnError)
	projectID := fs.String("project", "", "Project id")
	limit := fs.Int("limit", 0, "Maximum entries to show (default 100)")
	fs.Parse(args)

	if strings.TrimSpace(*projectID) == "" {
		return errors.New("--project is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := a.requireSession(ctx); err != nil {
		return err
	}

	entries, err := a.feed.List(ctx, *projectID, *limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no activity")
		return nil
	}

	for _, entry := range entries {
		fmt.Println(formatEntry(entry))
	}
	return nil
}

func (a *app) activityTail(args []string) error {
	fs := flag.NewFlagSet("activity tail", flag.ExitOnError)
	projectID := fs.String("project", "", "Project id")
	fs.Parse(args)

	if strings.TrimSpace(*projectID) == "" {
		return errors.New("--project is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resumeCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := a.requireSession(resumeCtx); err != nil {
		return err
	}

	sub, err := a.feed.Subscribe(ctx, *projectID)
	if err != nil {
		return err
	}
	defer sub.Close()

	fmt.Printf("tailing activity for project %s (ctrl-c to stop)\n", *projectID)
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return sub.Err()
			}
			fmt.Printf("%s\t%s\n", ev.Type, formatEntry(&ev.Entry))
		case <-ctx.Done():
			sub.Close()
			return nil
		}
	}
}

func formatEntry(entry *model.ActivityLogEntry) string {
	return fmt.Sprintf("%s\t%s\t%s %s\tby %s",
		entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.ActorID,
	)
}
