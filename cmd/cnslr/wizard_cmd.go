package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lawguy81/cnslr-legal-platform/internal/render"
	"github.com/Lawguy81/cnslr-legal-platform/internal/store"
	"github.com/Lawguy81/cnslr-legal-platform/internal/tui"
)

var (
	outDir    string
	docFormat string
)

var wizardCmd = &cobra.Command{
	Use:   "wizard [task-id]",
	Short: "Fill in a legal task interactively",
	Long: `Launches the terminal wizard. Progress is saved after every answer and resumed
the next time the same task is opened. On submission the finished document is written to --out.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWizard,
}

func init() {
	cwd, _ := os.Getwd()
	wizardCmd.Flags().StringVar(&outDir, "out", cwd, "Directory for the generated document")
	wizardCmd.Flags().StringVar(&docFormat, "format", string(render.FormatPDF), "Document format: html, pdf or docx")
}

func runWizard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(docFormat)
	if err != nil {
		return err
	}

	app := tui.New(tui.Config{
		Store:    store.NewFileStore(cfg.Store.SessionDir),
		Renderer: render.New(),
		OutDir:   outDir,
		Format:   format,
	})
	if len(args) == 1 {
		if err := app.Start(args[0]); err != nil {
			return err
		}
	}
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
