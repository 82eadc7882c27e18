package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var ErrDisabled = errors.New("pdf_disabled")

const dateLayout = "02 Jan 2006"

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateCommissionStatement(ctx context.Context, data CommissionStatement) (io.Reader, error) {
	if strings.TrimSpace(data.CommissionID) == "" {
		return nil, fmt.Errorf("commission statement requires a commission id")
	}
	platform := strings.TrimSpace(data.PlatformName)
	if platform == "" {
		platform = "FixDesk"
	}
	issued := data.IssuedAt
	if issued.IsZero() {
		issued = time.Now().UTC()
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(30,
		text.NewCol(8, "Commission statement", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, platform, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Statement for: "+data.CommissionID, props.Text{Top: 0}),
			text.New("Booking: "+data.BookingID, props.Text{Top: 4}),
			text.New("Issued: "+issued.Format(dateLayout), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Provider", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(data.ProviderID, props.Text{Top: 5, Align: align.Right}),
		),
	)

	headline := fmt.Sprintf("%s due on %s", formatAmount(data.Amount), data.DueDate.Format(dateLayout))
	if data.CollectedAt != nil {
		headline = fmt.Sprintf("%s collected on %s", formatAmount(data.Amount), data.CollectedAt.Format(dateLayout))
	}
	m.AddRow(15,
		text.NewCol(12, headline, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Method", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		text.NewCol(6, "Platform commission on cash collected for booking "+data.BookingID, props.Text{Size: 9}),
		text.NewCol(3, data.CollectionMethod, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(3, formatAmount(data.Amount), props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Status", props.Text{Size: 9}),
		text.NewCol(2, data.Status, props.Text{Size: 9, Align: align.Right}),
	)
	if ref := strings.TrimSpace(data.Reference); ref != "" {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Reference", props.Text{Size: 9}),
			text.NewCol(2, ref, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func formatAmount(amount int64) string {
	return fmt.Sprintf("%d", amount)
}
