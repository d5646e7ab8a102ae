package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/checklist"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/tradelane"
	"github.com/spf13/cobra"
)

// promptConfirmer asks on the command's output and reads y/N from in
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(c.in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (a *app) wizard(cmd *cobra.Command, yes bool) (*tradelane.Wizard, error) {
	if _, err := a.user(); err != nil {
		return nil, err
	}
	var confirm tradelane.Confirmer = promptConfirmer{in: a.in, out: cmd.OutOrStdout()}
	if yes {
		confirm = tradelane.ConfirmFunc(func(string) bool { return true })
	}
	w := tradelane.New(a.api, checklist.Bundled(), confirm)
	if err := w.Load(cmd.Context()); err != nil {
		return nil, errors.New(w.Alert())
	}
	return w, nil
}

func (a *app) lanesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lanes",
		Short: "Manage trade lanes",
	}
	cmd.AddCommand(a.lanesListCmd(), a.lanesNewCmd(), a.lanesRemoveCmd(), a.lanesShowCmd())
	return cmd
}

func (a *app) lanesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your trade lanes",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.wizard(cmd, false)
			if err != nil {
				return err
			}
			printLanes(cmd.OutOrStdout(), w)
			return nil
		},
	}
}

func printLanes(out io.Writer, w *tradelane.Wizard) {
	lanes := w.Lanes()
	if len(lanes) == 0 {
		fmt.Fprintln(out, "No trade lanes yet. Create one with: clearance lanes new")
		return
	}
	selected := w.Selected()
	for _, l := range lanes {
		marker := " "
		if selected != nil && selected.ID == l.ID {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s  %-16s %s\n", marker, l.ID, l.Route(), l.Category)
	}
}

func (a *app) lanesNewCmd() *cobra.Command {
	var from, to, category string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a trade lane",
		Long: fmt.Sprintf(`Create a trade lane from an origin to a destination for a product category.

Countries: %s
Categories: %s`, strings.Join(model.Countries, ", "), strings.Join(model.Categories, ", ")),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.wizard(cmd, false)
			if err != nil {
				return err
			}
			w.Open()
			if err := w.SetFrom(matchCountry(from)); err != nil {
				return err
			}
			if err := w.SetTo(matchCountry(to)); err != nil {
				return err
			}
			if err := w.Next(); err != nil {
				return err
			}
			if err := w.SetCategory(matchCategory(category)); err != nil {
				return err
			}
			lane, err := w.Save(cmd.Context())
			if err != nil {
				return errors.New(w.Alert())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s) as %s\n", lane.Route(), lane.Category, lane.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Origin country")
	cmd.Flags().StringVar(&to, "to", "", "Destination country")
	cmd.Flags().StringVar(&category, "category", "", "Product category")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("category")
	return cmd
}

// matchCountry resolves a unique case-insensitive prefix to a country name
func matchCountry(s string) string {
	matches := tradelane.MatchCountries(s)
	for _, m := range matches {
		if strings.EqualFold(m, s) {
			return m
		}
	}
	if len(matches) == 1 {
		return matches[0]
	}
	return s
}

func matchCategory(s string) string {
	for _, c := range model.Categories {
		if strings.EqualFold(c, s) {
			return c
		}
	}
	return s
}

func (a *app) lanesRemoveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm <lane-id>",
		Short: "Remove a trade lane",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.wizard(cmd, yes)
			if err != nil {
				return err
			}
			err = w.Remove(cmd.Context(), args[0])
			switch {
			case errors.Is(err, tradelane.ErrCancelled):
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			case errors.Is(err, tradelane.ErrLaneNotFound):
				return err
			case err != nil:
				return errors.New(w.Alert())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed.")
			printLanes(cmd.OutOrStdout(), w)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (a *app) lanesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [lane-id]",
		Short: "Show the checklist of a trade lane (default: the first one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.wizard(cmd, false)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := w.Select(args[0]); err != nil {
					return err
				}
			}
			result, ok := w.Checklist()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No trade lanes yet. Create one with: clearance lanes new")
				return nil
			}
			printChecklist(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printChecklist(out io.Writer, c model.Checklist) {
	fmt.Fprintf(out, "%s to %s: %s\n", c.From, c.To, c.Category)
	if !c.Available {
		fmt.Fprintln(out, "Checklist for this route is coming soon.")
		return
	}
	if len(c.Items) == 0 {
		fmt.Fprintln(out, "No checklist items for this category.")
		return
	}
	for _, item := range c.Items {
		tb := item.TaxBreakdown
		fmt.Fprintf(out, "\n%s (HS %s)\n", item.Name, item.HSCode)
		fmt.Fprintf(out, "  Import duty %g%%  VAT %g%%  Other %g%%  Total %g%%\n",
			tb.ImportDutyPercent, tb.VATPercent, tb.OtherChargesPercent, tb.TotalPercent())
		if tb.Notes != "" {
			fmt.Fprintf(out, "  Note: %s\n", tb.Notes)
		}
		fmt.Fprintf(out, "  Documents: %s\n", strings.Join(item.RequiredDocuments, ", "))
	}
}
