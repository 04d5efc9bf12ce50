package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	headingStyle = props.Text{Size: 14, Style: fontstyle.Bold}
	labelStyle   = props.Text{Size: 9, Style: fontstyle.Bold}
	bodyStyle    = props.Text{Size: 9}
	numberStyle  = props.Text{Size: 9, Align: align.Right}
	totalStyle   = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
)

// RenderPDF lays the sheet out on A4 pages and returns the PDF bytes.
func RenderPDF(s Sheet) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(12).
		WithRightMargin(12).
		WithTopMargin(12).
		Build()
	m := maroto.New(cfg)

	m.AddRows(text.NewRow(10, fmt.Sprintf("Job #%d: %s", s.JobID, s.Title), headingStyle))
	m.AddRow(6, text.NewCol(3, "Customer", labelStyle), text.NewCol(9, s.Customer, bodyStyle))
	m.AddRow(6, text.NewCol(3, "Status", labelStyle), text.NewCol(9, s.Status, bodyStyle))
	if s.DueDate != "" {
		m.AddRow(6, text.NewCol(3, "Due", labelStyle), text.NewCol(9, s.DueDate, bodyStyle))
	}
	m.AddRow(6, text.NewCol(3, "Price", labelStyle), text.NewCol(9, s.money(s.Price), bodyStyle))

	m.AddRows(sectionRows(s, s.Estimated)...)
	if s.Actual != nil {
		m.AddRows(sectionRows(s, *s.Actual)...)
	} else {
		m.AddRows(text.NewRow(10, "Actual costs: not recorded", props.Text{Top: 4, Size: 9, Style: fontstyle.Italic}))
	}

	if s.Variance != nil {
		m.AddRow(10,
			text.NewCol(8, "Variance", props.Text{Top: 4, Size: 10, Style: fontstyle.Bold}),
			text.NewCol(4, fmt.Sprintf("%s (%s)", s.money(s.Variance.Amount), s.Variance.Label),
				props.Text{Top: 4, Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render pdf sheet: %w", err)
	}
	return doc.GetBytes(), nil
}

func sectionRows(s Sheet, sec Section) []core.Row {
	rows := []core.Row{
		text.NewRow(12, sec.Title, props.Text{Top: 5, Size: 11, Style: fontstyle.Bold}),
		row.New(7).Add(
			text.NewCol(6, "Item", labelStyle),
			text.NewCol(2, "Qty / hours", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			text.NewCol(2, "Rate", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		),
		line.NewRow(1),
	}
	for _, l := range sec.Lines {
		rows = append(rows, row.New(6).Add(
			text.NewCol(6, l.Group+": "+l.Label, bodyStyle),
			text.NewCol(2, quantity(l.Quantity), numberStyle),
			text.NewCol(2, amount(l.Rate), numberStyle),
			text.NewCol(2, amount(l.Total), numberStyle),
		))
	}
	rows = append(rows,
		line.NewRow(1),
		summaryRow("Subtotal", s.money(sec.Subtotal)),
		summaryRow(fmt.Sprintf("Overhead (%s%%)", quantity(sec.OverheadPercent)), s.money(sec.Overhead)),
		summaryRow("Total cost", s.money(sec.Total)),
		summaryRow("Profit", s.money(sec.Summary.Profit)),
		summaryRow("Margin", amount(sec.Summary.MarginPercent)+"%"),
	)
	return rows
}

func summaryRow(label, value string) core.Row {
	return row.New(6).Add(col.New(6), text.NewCol(3, label, labelStyle), text.NewCol(3, value, totalStyle))
}
