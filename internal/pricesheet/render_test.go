package pricesheet

import (
	"strings"
	"testing"
	"time"

	"github.com/jaliltomas/preciosbot/internal/db"
)

func sampleRows() []db.SheetRow {
	return []db.SheetRow{
		{CategoryName: "iPhone", ProductName: "iPhone 13 128GB Blue", RetailPrice: 517.5, ResellerPrice: 472.5},
		{CategoryName: "iPhone", ProductName: "iPhone 14 256GB", RetailPrice: 750, ResellerPrice: 690},
		{CategoryName: "Samsung", ProductName: "Samsung S23 FE 128GB", RetailPrice: 460, ResellerPrice: 420},
	}
}

func TestRenderGroupsByCategory(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	sheet := Render(sampleRows(), now)

	if sheet.TotalProducts != 3 {
		t.Fatalf("unexpected total products: %d", sheet.TotalProducts)
	}
	if sheet.TotalCategories != 2 {
		t.Fatalf("unexpected total categories: %d", sheet.TotalCategories)
	}

	if !strings.HasPrefix(sheet.Retail, "💎 *LISTADO CONSUMIDOR FINAL* 💎\n📅 31/08/2026\n") {
		t.Fatalf("unexpected retail header:\n%s", sheet.Retail)
	}
	if !strings.HasPrefix(sheet.Reseller, "💎 *LISTADO REVENDEDOR* 💎") {
		t.Fatalf("unexpected reseller header:\n%s", sheet.Reseller)
	}

	if !strings.Contains(sheet.Retail, "*▪️ iPhone*") {
		t.Fatalf("missing iPhone category header:\n%s", sheet.Retail)
	}
	if !strings.Contains(sheet.Retail, "*▪️ Samsung*") {
		t.Fatalf("missing Samsung category header:\n%s", sheet.Retail)
	}
	if strings.Count(sheet.Retail, "*▪️ iPhone*") != 1 {
		t.Fatalf("category header should appear once:\n%s", sheet.Retail)
	}
}

func TestRenderRoundsPrices(t *testing.T) {
	t.Parallel()

	sheet := Render(sampleRows(), time.Now())

	if !strings.Contains(sheet.Retail, "▪️ iPhone 13 128GB Blue – u$518") {
		t.Fatalf("retail price should round to whole dollars:\n%s", sheet.Retail)
	}
	if !strings.Contains(sheet.Reseller, "▪️ iPhone 13 128GB Blue – u$473") {
		t.Fatalf("reseller price should round to whole dollars:\n%s", sheet.Reseller)
	}
}

func TestRenderEmptyCatalog(t *testing.T) {
	t.Parallel()

	sheet := Render(nil, time.Now())

	if sheet.TotalProducts != 0 || sheet.TotalCategories != 0 {
		t.Fatalf("unexpected totals: %+v", sheet)
	}
	if !strings.HasPrefix(sheet.Retail, "💎 *LISTADO CONSUMIDOR FINAL* 💎") {
		t.Fatalf("header should render without rows:\n%s", sheet.Retail)
	}
}
