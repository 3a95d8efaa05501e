package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
	"github.com/Lawguy81/cnslr-legal-platform/internal/render"
)

var (
	answersPath string
	outputPath  string
)

var renderCmd = &cobra.Command{
	Use:   "render [task-id]",
	Short: "Generate a document from saved answers",
	Long:  `Renders the document for a task from a JSON object of answers without running the wizard.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVar(&answersPath, "answers", "-", `JSON file with the answers, "-" for stdin`)
	renderCmd.Flags().StringVar(&docFormat, "format", string(render.FormatPDF), "Document format: html, pdf or docx")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: derived from the answers)")
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(docFormat)
	if err != nil {
		return err
	}
	data, err := readInput(answersPath)
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	var answers models.Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}

	r := render.New()
	r.Strict = true
	out, err := r.Render(args[0], answers, format)
	if err != nil {
		return err
	}

	path := outputPath
	if path == "" {
		path = out.Filename
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, out.Body, 0o644); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s (%d bytes)\n", path, len(out.Body))
	return nil
}
