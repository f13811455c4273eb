package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/judgecluster/judgecluster/cmd/tui/ui"
)

func main() {
	// Get master API URL from environment or use default
	apiURL := os.Getenv("MASTER_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	// Create model
	m := ui.NewModel(apiURL)

	// Create program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	// Run program
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
