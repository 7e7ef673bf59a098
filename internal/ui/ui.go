package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the login form until the user quits, returning the session they ended with.
func Run(opts Options) (Result, error) {
	if opts.Auth == nil {
		return Result{}, fmt.Errorf("ui requires an authenticator")
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	final, err := p.Run()
	if err != nil {
		return Result{}, err
	}
	m, ok := final.(Model)
	if !ok {
		return Result{}, nil
	}
	return m.result(), nil
}
