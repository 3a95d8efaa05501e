package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a parking ticket appeal to the API",
	Long:  `Reads the appeal fields as JSON from --payload (or stdin with "-") and posts them to /submissions.`,
	RunE:  runSubmit,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Look up the status of a submitted appeal",
	RunE:  runStatus,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the API server is up",
	RunE:  runHealth,
}

var (
	payloadPath        string
	confirmationNumber string
	ticketNumber       string
)

func init() {
	submitCmd.Flags().StringVar(&payloadPath, "payload", "-", `JSON file with the appeal fields, "-" for stdin`)
	statusCmd.Flags().StringVar(&confirmationNumber, "confirmation", "", "Confirmation number (APPEAL-...)")
	statusCmd.Flags().StringVar(&ticketNumber, "ticket", "", "Ticket number")
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

type confirmationOutput struct {
	ConfirmationNumber string   `json:"confirmationNumber"`
	SubmittedAt        string   `json:"submittedAt"`
	NextSteps          []string `json:"nextSteps"`
	SupportInfo        struct {
		TrackingURL string `json:"trackingUrl"`
	} `json:"supportInfo"`
}

func runSubmit(cmd *cobra.Command, args []string) error {
	payload, err := readInput(payloadPath)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload is not valid JSON")
	}

	body, err := apiPost("/submissions", payload)
	if err != nil {
		return err
	}

	var out confirmationOutput
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("✓ Appeal submitted\n")
	fmt.Printf("  Confirmation: %s\n", out.ConfirmationNumber)
	fmt.Printf("  Submitted:    %s\n", out.SubmittedAt)
	if out.SupportInfo.TrackingURL != "" {
		fmt.Printf("  Track at:     %s\n", out.SupportInfo.TrackingURL)
	}
	fmt.Println("\nNext steps:")
	for i, step := range out.NextSteps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	return nil
}

type statusOutput struct {
	Status             string `json:"status"`
	Description        string `json:"description"`
	IsResolved         bool   `json:"isResolved"`
	TicketNumber       string `json:"ticketNumber"`
	ConfirmationNumber string `json:"confirmationNumber"`
	SubmittedDate      string `json:"submittedDate"`
	LastUpdated        string `json:"lastUpdated"`
	Decision           *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
		Date   string `json:"date"`
	} `json:"decision"`
	NextSteps []string `json:"nextSteps"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if confirmationNumber != "" {
		q.Set("confirmationNumber", confirmationNumber)
	}
	if ticketNumber != "" {
		q.Set("ticketNumber", ticketNumber)
	}
	if len(q) == 0 {
		return fmt.Errorf("one of --confirmation or --ticket is required")
	}

	body, err := apiGet("/status?" + q.Encode())
	if err != nil {
		return err
	}

	var st statusOutput
	if err := json.Unmarshal(body, &st); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", st.Status)
	fmt.Fprintf(w, "Description:\t%s\n", st.Description)
	if st.ConfirmationNumber != "" {
		fmt.Fprintf(w, "Confirmation:\t%s\n", st.ConfirmationNumber)
	}
	if st.TicketNumber != "" {
		fmt.Fprintf(w, "Ticket:\t%s\n", st.TicketNumber)
	}
	if st.SubmittedDate != "" {
		fmt.Fprintf(w, "Submitted:\t%s\n", st.SubmittedDate)
	}
	if st.LastUpdated != "" {
		fmt.Fprintf(w, "Last updated:\t%s\n", st.LastUpdated)
	}
	if st.Decision != nil {
		fmt.Fprintf(w, "Decision:\t%s (%s)\n", st.Decision.Type, st.Decision.Date)
		if st.Decision.Reason != "" {
			fmt.Fprintf(w, "Reason:\t%s\n", st.Decision.Reason)
		}
	}
	w.Flush()

	if len(st.NextSteps) > 0 {
		fmt.Println("\nNext steps:")
		for _, step := range st.NextSteps {
			fmt.Printf("  • %s\n", step)
		}
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	health, err := CheckHealth()
	if health != nil {
		fmt.Printf("Server %s (version %s, mode %s, db %s)\n", apiAddr, health.Version, health.Mode, health.DB)
	}
	return err
}
