package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/rotation-map/internal/app"
	"github.com/ngmaloney/rotation-map/internal/config"
	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The alt screen owns the terminal, so logs go to a file
	if err := os.MkdirAll(cfg.Land.DataDir, 0755); err != nil {
		fmt.Printf("Error creating data directory: %v\n", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.Land.DataDir, "rotation-tui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logCfg := cfg.Logger()
	logCfg.Output = logFile
	logging.Init(logCfg)

	fmt.Println("Loading land grid...")
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		fmt.Printf("Error starting: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	p := tea.NewProgram(ui.NewModel(a.Engine, a.Rotations, a.Grid), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}
