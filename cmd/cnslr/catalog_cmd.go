package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Lawguy81/cnslr-legal-platform/internal/catalog"
	"github.com/Lawguy81/cnslr-legal-platform/internal/efiling"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [task-id]",
	Short: "List the supported legal tasks, or show one task's steps",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalog,
}

var efilingCmd = &cobra.Command{
	Use:   "efiling [task-id]",
	Short: "Show e-filing guidance for New York courts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEfiling,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	c := catalog.Default()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if len(args) == 0 {
		fmt.Fprintln(w, "ID\tTITLE\tTIME\tE-FILE")
		for _, t := range c.List() {
			efile := "no"
			if t.EFileAvailable {
				efile = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Title, t.EstimatedTime, efile)
		}
		return nil
	}

	task, ok := c.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown task %q", args[0])
	}
	fmt.Fprintf(w, "%s\n%s\n\n", task.Title, task.Description)
	for i, step := range task.Steps {
		fmt.Fprintf(w, "%d. %s\t%s\n", i+1, step.Title, step.Description)
		for _, f := range task.FieldsFor(step.ID) {
			req := ""
			if f.Required {
				req = "required"
			}
			fmt.Fprintf(w, "   %s\t%s\t%s\t%s\n", f.Name, f.Label, f.Kind, req)
		}
	}
	return nil
}

func runEfiling(cmd *cobra.Command, args []string) error {
	g := efiling.Default()

	if len(args) == 1 {
		info, ok := g.ForTask(args[0])
		if !ok {
			fmt.Println(info.Message)
			fmt.Println(info.Recommendation)
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Court:\t%s\n", info.Court)
		fmt.Fprintf(w, "E-filing:\t%s\n", info.EFiling)
		for _, kv := range [][2]string{
			{"System", info.System}, {"Website", info.Website}, {"Deadline", info.Deadline},
			{"Fee", info.Fee}, {"Limit", info.Limit}, {"Tip", info.Tip},
		} {
			if kv[1] != "" {
				fmt.Fprintf(w, "%s:\t%s\n", kv[0], kv[1])
			}
		}
		w.Flush()
		for i, step := range info.Process {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
		return nil
	}

	ids := make([]string, 0, len(g.Systems))
	for id := range g.Systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYSTEM\tNAME\tURL")
	for _, id := range ids {
		s := g.Systems[id]
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, s.Name, s.URL)
	}
	fmt.Fprintln(w, "\nCOURT\tE-FILING\tSYSTEM")
	for _, c := range g.Courts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.EFiling, c.System)
	}
	w.Flush()

	fmt.Println("\nRequirements:")
	for _, r := range g.Requirements.General {
		fmt.Printf("  • %s\n", r)
	}
	return nil
}
