package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/solvetree/internal/database/repository"
	"github.com/jask/solvetree/internal/service"
)

const timeLayout = "2006-01-02 15:04:05"

func replayService() (*service.ReplayService, error) {
	d, err := openDB()
	if err != nil {
		return nil, err
	}
	return &service.ReplayService{
		Sessions:      repository.NewSessionRepo(d),
		Messages:      repository.NewMessageRepo(d),
		SpacingFactor: cfg.UI.SpacingFactor,
		Log:           log,
	}, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	svc, err := replayService()
	if err != nil {
		return err
	}
	var id string
	if len(args) == 1 {
		id = args[0]
	}

	if replayTUI {
		sess, envs, err := svc.Envelopes(cmd.Context(), id)
		if err != nil {
			return replayErr(err, id)
		}
		return runSession(cmd.Context(), service.NewReplayConn(envs), session{
			host: "replay " + shortID(sess.ID),
			mode: "replay",
		})
	}

	res, err := svc.Replay(cmd.Context(), id)
	if err != nil {
		return replayErr(err, id)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s  %s  %s  %d messages applied\n",
		res.Session.ID, res.Session.Host, res.Session.StartedAt.Local().Format(timeLayout), res.Applied)
	if err := res.State.Dump(out); err != nil {
		return err
	}
	for _, e := range res.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
	}
	return nil
}

func replayErr(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound) && id == "":
		return errors.New("the journal is empty")
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("no session matches %q", id)
	case errors.Is(err, repository.ErrAmbiguous):
		return fmt.Errorf("%q matches more than one session, use more characters", id)
	}
	return err
}

func runSessions(cmd *cobra.Command, _ []string) error {
	d, err := openDB()
	if err != nil {
		return err
	}
	list, err := repository.NewSessionRepo(d).List(cmd.Context())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no sessions journaled")
		return nil
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "HOST", "MODE", "STARTED", "ENDED", "MESSAGES").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, s := range list {
		ended := "running"
		if s.EndedAt != nil {
			ended = s.EndedAt.Local().Format(timeLayout)
		}
		t.Row(shortID(s.ID), s.Host, s.Mode, s.StartedAt.Local().Format(timeLayout), ended, strconv.Itoa(s.Messages))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func maintenance() (*service.MaintenanceService, error) {
	d, err := openDB()
	if err != nil {
		return nil, err
	}
	return &service.MaintenanceService{DB: d, Sessions: repository.NewSessionRepo(d)}, nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return errors.New("refusing to delete the journal without --yes")
	}
	svc, err := maintenance()
	if err != nil {
		return err
	}
	if err := svc.Reset(cmd.Context()); err != nil {
		return err
	}
	log.Info("journal reset", zap.String("path", cfg.Database.Path))
	fmt.Fprintf(cmd.OutOrStdout(), "journal at %s cleared\n", cfg.Database.Path)
	return nil
}

func runPrune(cmd *cobra.Command, _ []string) error {
	svc, err := maintenance()
	if err != nil {
		return err
	}
	n, err := svc.Prune(cmd.Context(), pruneKeep)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d session(s), kept the newest %d\n", n, pruneKeep)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

