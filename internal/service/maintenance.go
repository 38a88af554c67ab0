package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/solvetree/internal/database"
	"github.com/jask/solvetree/internal/database/repository"
)

// MaintenanceService houses destructive journal actions surfaced through the CLI.
type MaintenanceService struct {
	DB       *sql.DB
	Sessions *repository.SessionRepo
}

// Reset wipes the journal. It keeps the schema intact.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, t := range []string{"messages", "sessions"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return s.vacuum(ctx)
}

// Prune keeps the newest keep sessions and deletes the rest.
func (s *MaintenanceService) Prune(ctx context.Context, keep int) (int64, error) {
	if s.DB == nil || s.Sessions == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	if keep < 0 {
		return 0, fmt.Errorf("maintenance: keep must not be negative, got %d", keep)
	}
	n, err := s.Sessions.Prune(ctx, keep)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	if n > 0 {
		if err := s.vacuum(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *MaintenanceService) vacuum(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}
