// Package pricesheet renders WhatsApp-ready price lists from catalog entries.
package pricesheet

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jaliltomas/preciosbot/internal/db"
)

// Sheet is a rendered retail/reseller list pair.
type Sheet struct {
	Retail          string
	Reseller        string
	TotalProducts   int
	TotalCategories int
}

// Render builds both lists from rows already ordered by category name and
// product name. Prices are rounded to whole dollars for display.
func Render(rows []db.SheetRow, now time.Time) Sheet {
	categories := countCategories(rows)

	return Sheet{
		Retail:          renderList("CONSUMIDOR FINAL", rows, now, func(row db.SheetRow) float64 { return row.RetailPrice }),
		Reseller:        renderList("REVENDEDOR", rows, now, func(row db.SheetRow) float64 { return row.ResellerPrice }),
		TotalProducts:   len(rows),
		TotalCategories: categories,
	}
}

func renderList(title string, rows []db.SheetRow, now time.Time, price func(db.SheetRow) float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💎 *LISTADO %s* 💎\n📅 %s\n", title, now.Format("02/01/2006"))

	currentCategory := ""
	for _, row := range rows {
		if row.CategoryName != currentCategory {
			currentCategory = row.CategoryName
			fmt.Fprintf(&b, "\n*▪️ %s*\n", currentCategory)
		}
		fmt.Fprintf(&b, "▪️ %s – u$%d\n", row.ProductName, int64(math.Round(price(row))))
	}

	return strings.TrimSpace(b.String())
}

func countCategories(rows []db.SheetRow) int {
	seen := make(map[string]struct{}, 8)
	for _, row := range rows {
		seen[row.CategoryName] = struct{}{}
	}
	return len(seen)
}
