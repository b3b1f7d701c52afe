package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/libris/internal/shared"
	"github.com/desertthunder/libris/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI. The model restores the session itself.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	bridge, err := r.requireBridge()
	if err != nil {
		return err
	}

	// Logs go to a file while the TUI owns the terminal
	f, err := shared.OpenLogFile(r.config.Log.File)
	if err != nil {
		return err
	}
	defer f.Close()
	r.logger.SetOutput(f)

	model := ui.NewModel(ctx, r.dispatcher, bridge)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
