package export

import (
	"bufio"
	"fmt"
	"io"
)

// WriteText writes the sheet as plain text.
func WriteText(w io.Writer, s Sheet) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Job #%d: %s\n", s.JobID, s.Title)
	fmt.Fprintf(bw, "Customer: %s\n", s.Customer)
	fmt.Fprintf(bw, "Status: %s\n", s.Status)
	if s.DueDate != "" {
		fmt.Fprintf(bw, "Due: %s\n", s.DueDate)
	}
	fmt.Fprintf(bw, "Price: %s\n", s.money(s.Price))

	writeSection(bw, s, s.Estimated)
	if s.Actual == nil {
		fmt.Fprintf(bw, "\nActual costs: not recorded\n")
	} else {
		writeSection(bw, s, *s.Actual)
	}

	if s.Variance != nil {
		fmt.Fprintf(bw, "\nVariance: %s (%s)\n", s.money(s.Variance.Amount), s.Variance.Label)
	}
	if !s.GeneratedAt.IsZero() {
		fmt.Fprintf(bw, "\nGenerated: %s\n", s.GeneratedAt.Format("2006-01-02 15:04"))
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write text sheet: %w", err)
	}
	return nil
}

func writeSection(w io.Writer, s Sheet, sec Section) {
	fmt.Fprintf(w, "\n%s:\n", sec.Title)
	group := ""
	for _, l := range sec.Lines {
		if l.Group != group {
			group = l.Group
			fmt.Fprintf(w, "  %s:\n", group)
		}
		fmt.Fprintf(w, "    %-24s %8s x %10s = %12s\n", l.Label, quantity(l.Quantity), amount(l.Rate), amount(l.Total))
	}
	fmt.Fprintf(w, "  Subtotal: %s\n", s.money(sec.Subtotal))
	fmt.Fprintf(w, "  Overhead (%s%%): %s\n", quantity(sec.OverheadPercent), s.money(sec.Overhead))
	fmt.Fprintf(w, "  Total: %s\n", s.money(sec.Total))
	fmt.Fprintf(w, "  Profit: %s\n", s.money(sec.Summary.Profit))
	fmt.Fprintf(w, "  Margin: %s%%\n", amount(sec.Summary.MarginPercent))
}
