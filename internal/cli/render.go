package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vbonduro/shelflife/internal/domain"
)

const dateLayout = "2006-01-02"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	expiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	soonStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var columnWidths = []int{36, 20, 10, 12, 9, 11, 10}

func renderRow(cells ...string) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = lipgloss.NewStyle().Width(columnWidths[i]).MaxWidth(columnWidths[i]).Render(c)
	}
	return strings.Join(parts, " ")
}

// printProducts writes one row per product, coloured by how close it is to
// expiring.
func printProducts(w io.Writer, products []*domain.Product, now time.Time, soonDays int) {
	if len(products) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No products."))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(renderRow("ID", "NAME", "QTY", "CATEGORY", "LOCATION", "EXPIRES", "LOT")))
	for _, p := range products {
		row := renderRow(
			p.ID.String(),
			p.Name,
			formatQuantity(p),
			string(p.Category),
			string(p.Location),
			p.ExpirationDate.Format(dateLayout),
			p.LotNumber,
		)
		fmt.Fprintln(w, styleFor(p, now, soonDays).Render(row))
	}
}

func styleFor(p *domain.Product, now time.Time, soonDays int) lipgloss.Style {
	switch days := p.DaysUntilExpiration(now); {
	case p.IsExpired(now):
		return expiredStyle
	case days <= soonDays:
		return soonStyle
	default:
		return lipgloss.NewStyle()
	}
}

func formatQuantity(p *domain.Product) string {
	q := strconv.FormatFloat(p.Quantity, 'f', -1, 64)
	if p.Unit == "" {
		return q
	}
	return q + " " + p.Unit
}

func describeExpiry(p *domain.Product, now time.Time) string {
	days := p.DaysUntilExpiration(now)
	switch {
	case p.IsExpired(now):
		return fmt.Sprintf("expired on %s", p.ExpirationDate.Format(dateLayout))
	case days == 0:
		return "expires today"
	case days == 1:
		return "expires tomorrow"
	default:
		return fmt.Sprintf("expires in %d days", days)
	}
}

// parseDate reads a calendar date and returns the last second of that day in
// local time, so a product expiring today is not yet past.
func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d.AddDate(0, 0, 1).Add(-time.Second), nil
}

var timeNow = time.Now
