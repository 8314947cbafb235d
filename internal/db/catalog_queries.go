package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ProviderItem is used by the providers API and the inbound phone gate.
type ProviderItem struct {
	ProviderID   int64     `json:"provider_id"`
	ProviderUUID string    `json:"provider_uuid"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CategoryItem carries a category with its markup policy. The description
// guides the classifier.
type CategoryItem struct {
	CategoryID           int64   `json:"category_id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	MarkupRetail         float64 `json:"markup_retail"`
	MarkupReseller       float64 `json:"markup_reseller"`
	IsRetailPercentage   bool    `json:"is_retail_percentage"`
	IsResellerPercentage bool    `json:"is_reseller_percentage"`
}

// MatchCandidate is the nearest catalog entry above the match threshold.
type MatchCandidate struct {
	ProductID      int64
	NormalizedName string
	CategoryID     int64
	LastPrice      float64
	Similarity     float64
}

// NewProduct is the input for inserting a catalog entry with its embedding.
// RawName is the supplier's original wording, kept as provenance metadata.
type NewProduct struct {
	NormalizedName         string
	RawName                string
	CategoryID             int64
	Price                  float64
	ProviderID             int64
	SuggestedPriceRetail   float64
	SuggestedPriceReseller float64
	Embedding              []float64
}

// ProductListItem is used by the products API.
type ProductListItem struct {
	ProductID              int64     `json:"product_id"`
	ProductUUID            string    `json:"product_uuid"`
	NormalizedName         string    `json:"normalized_name"`
	CategoryID             int64     `json:"category_id"`
	CategoryName           string    `json:"category_name"`
	LastPrice              float64   `json:"last_price"`
	BestProviderID         *int64    `json:"best_provider_id,omitempty"`
	BestProviderName       *string   `json:"best_provider_name,omitempty"`
	SuggestedPriceRetail   float64   `json:"suggested_price_retail"`
	SuggestedPriceReseller float64   `json:"suggested_price_reseller"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// HistoryItem is one append-only price observation. RawName is the supplier's
// wording as it arrived in the message.
type HistoryItem struct {
	HistoryID    int64     `json:"history_id"`
	ProductID    int64     `json:"product_id"`
	ProviderID   int64     `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	RawName      string    `json:"raw_name"`
	Price        float64   `json:"price"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// CatalogStats summarizes catalog size.
type CatalogStats struct {
	Products   int64 `json:"products"`
	Categories int64 `json:"categories"`
	Providers  int64 `json:"providers"`
	History    int64 `json:"history"`
}

// SheetRow is one product line for price sheet rendering.
type SheetRow struct {
	CategoryName  string
	ProductName   string
	RetailPrice   float64
	ResellerPrice float64
}

// PriceListItem is a persisted rendered sheet pair.
type PriceListItem struct {
	PriceListID     int64     `json:"price_list_id"`
	ListRetail      string    `json:"list_retail"`
	ListReseller    string    `json:"list_reseller"`
	TotalProducts   int       `json:"total_products"`
	TotalCategories int       `json:"total_categories"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// FindProviderByPhone looks up a provider by its normalized phone number.
func (p *Pool) FindProviderByPhone(ctx context.Context, phone string) (*ProviderItem, error) {
	const q = `
SELECT provider_id, provider_uuid::text, name, phone, active, created_at
FROM catalog.providers
WHERE phone = $1
`

	var item ProviderItem
	err := p.QueryRow(ctx, q, phone).Scan(
		&item.ProviderID,
		&item.ProviderUUID,
		&item.Name,
		&item.Phone,
		&item.Active,
		&item.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("find provider by phone: %w", err)
	}
	return &item, nil
}

// ListProviders returns all providers ordered by name.
func (p *Pool) ListProviders(ctx context.Context) ([]ProviderItem, error) {
	const q = `
SELECT provider_id, provider_uuid::text, name, phone, active, created_at
FROM catalog.providers
ORDER BY name ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query providers: %w", err)
	}
	defer rows.Close()

	items := make([]ProviderItem, 0, 16)
	for rows.Next() {
		var item ProviderItem
		if err := rows.Scan(&item.ProviderID, &item.ProviderUUID, &item.Name, &item.Phone, &item.Active, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan provider row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider rows: %w", err)
	}
	return items, nil
}

// CreateProvider inserts a provider keyed by its normalized phone.
func (p *Pool) CreateProvider(ctx context.Context, name, phone string, active bool) (int64, error) {
	const q = `
INSERT INTO catalog.providers (name, phone, active)
VALUES ($1, $2, $3)
RETURNING provider_id
`

	var providerID int64
	if err := p.QueryRow(ctx, q, name, phone, active).Scan(&providerID); err != nil {
		return 0, fmt.Errorf("insert provider: %w", err)
	}
	return providerID, nil
}

// UpdateProvider updates a provider's name, phone and active flag.
func (p *Pool) UpdateProvider(ctx context.Context, providerID int64, name, phone string, active bool) error {
	const q = `
UPDATE catalog.providers
SET name = $2,
    phone = $3,
    active = $4,
    updated_at = NOW()
WHERE provider_id = $1
`
	tag, err := p.Exec(ctx, q, providerID, name, phone, active)
	if err != nil {
		return fmt.Errorf("update provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// DeleteProvider removes a provider by id.
func (p *Pool) DeleteProvider(ctx context.Context, providerID int64) error {
	tag, err := p.Exec(ctx, `DELETE FROM catalog.providers WHERE provider_id = $1`, providerID)
	if err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// ListCategories returns all categories with their markup policies, ordered by name.
func (p *Pool) ListCategories(ctx context.Context) ([]CategoryItem, error) {
	const q = `
SELECT category_id, name, description, markup_retail, markup_reseller, is_retail_percentage, is_reseller_percentage
FROM catalog.categories
ORDER BY name ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	items := make([]CategoryItem, 0, 16)
	for rows.Next() {
		var item CategoryItem
		if err := rows.Scan(
			&item.CategoryID,
			&item.Name,
			&item.Description,
			&item.MarkupRetail,
			&item.MarkupReseller,
			&item.IsRetailPercentage,
			&item.IsResellerPercentage,
		); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return items, nil
}

// UpsertCategory inserts a category or updates its markup policy by name.
func (p *Pool) UpsertCategory(ctx context.Context, item CategoryItem) (int64, error) {
	const q = `
INSERT INTO catalog.categories (name, description, markup_retail, markup_reseller, is_retail_percentage, is_reseller_percentage)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO UPDATE
SET description = EXCLUDED.description,
    markup_retail = EXCLUDED.markup_retail,
    markup_reseller = EXCLUDED.markup_reseller,
    is_retail_percentage = EXCLUDED.is_retail_percentage,
    is_reseller_percentage = EXCLUDED.is_reseller_percentage,
    updated_at = NOW()
RETURNING category_id
`

	var categoryID int64
	err := p.QueryRow(ctx, q,
		item.Name,
		item.Description,
		item.MarkupRetail,
		item.MarkupReseller,
		item.IsRetailPercentage,
		item.IsResellerPercentage,
	).Scan(&categoryID)
	if err != nil {
		return 0, fmt.Errorf("upsert category: %w", err)
	}
	return categoryID, nil
}

// SeedCategories inserts categories that do not exist yet and reports how many
// were created. Existing categories keep their configured markups.
func (p *Pool) SeedCategories(ctx context.Context, items []CategoryItem) (int, error) {
	const q = `
INSERT INTO catalog.categories (name, description, markup_retail, markup_reseller, is_retail_percentage, is_reseller_percentage)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO NOTHING
`

	created := 0
	for _, item := range items {
		tag, err := p.Exec(ctx, q,
			item.Name,
			item.Description,
			item.MarkupRetail,
			item.MarkupReseller,
			item.IsRetailPercentage,
			item.IsResellerPercentage,
		)
		if err != nil {
			return created, fmt.Errorf("seed category %q: %w", item.Name, err)
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

// DeleteCategory removes a category by id. Fails if catalog entries still
// reference it.
func (p *Pool) DeleteCategory(ctx context.Context, categoryID int64) error {
	tag, err := p.Exec(ctx, `DELETE FROM catalog.categories WHERE category_id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// DefaultCategories is the starting category set. Markups are percentages
// over the supplier price; descriptions guide the classifier.
func DefaultCategories() []CategoryItem {
	pct := func(name, description string, retail, reseller float64) CategoryItem {
		return CategoryItem{
			Name:                 name,
			Description:          description,
			MarkupRetail:         retail,
			MarkupReseller:       reseller,
			IsRetailPercentage:   true,
			IsResellerPercentage: true,
		}
	}

	return []CategoryItem{
		pct("iPhone", "iPhones nuevos o sellados, sin porcentaje de batería", 0.15, 0.05),
		pct("iPhone Usado", "iPhones usados o con porcentaje de batería en el nombre", 0.12, 0.04),
		pct("Samsung", "Celulares Samsung nuevos o sellados", 0.15, 0.05),
		pct("Samsung Usado", "Celulares Samsung usados o con porcentaje de batería", 0.12, 0.04),
		pct("Motorola", "Celulares Motorola", 0.15, 0.05),
		pct("Xiaomi", "Celulares Xiaomi, Redmi y Poco", 0.15, 0.05),
		pct("Apple Watch", "Relojes Apple Watch de cualquier serie", 0.12, 0.04),
		pct("iPad", "Tablets iPad de cualquier modelo", 0.12, 0.04),
		pct("MacBook", "Notebooks MacBook Air y Pro", 0.12, 0.04),
		pct("AirPods", "Auriculares AirPods de cualquier generación", 0.15, 0.05),
		pct("Accesorios", "Cargadores, fundas, cables y otros accesorios", 0.25, 0.10),
		pct("Otros", "Productos que no encajan en ninguna otra categoría", 0.15, 0.05),
	}
}

// FindNearestProduct returns the closest catalog entry whose cosine similarity
// with the query embedding clears the threshold, or ErrNoRows.
func (p *Pool) FindNearestProduct(ctx context.Context, embedding []float64, threshold float64) (*MatchCandidate, error) {
	literal, err := VectorLiteral(embedding)
	if err != nil {
		return nil, fmt.Errorf("render query vector: %w", err)
	}

	const q = `
SELECT
	pu.product_id,
	pu.normalized_name,
	pu.category_id,
	pu.last_price,
	(1 - (pu.embedding <=> $1::vector))::DOUBLE PRECISION AS similarity
FROM catalog.products_unique pu
WHERE pu.embedding IS NOT NULL
  AND (1 - (pu.embedding <=> $1::vector)) >= $2
ORDER BY pu.embedding <=> $1::vector ASC
LIMIT 1
`

	var candidate MatchCandidate
	err = p.QueryRow(ctx, q, literal, threshold).Scan(
		&candidate.ProductID,
		&candidate.NormalizedName,
		&candidate.CategoryID,
		&candidate.LastPrice,
		&candidate.Similarity,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query nearest product: %w", err)
	}
	return &candidate, nil
}

// FindSimilarProducts is the read-side similarity search used by the API.
func (p *Pool) FindSimilarProducts(ctx context.Context, embedding []float64, threshold float64, limit int) ([]MatchCandidate, error) {
	if limit <= 0 {
		limit = 5
	}
	literal, err := VectorLiteral(embedding)
	if err != nil {
		return nil, fmt.Errorf("render query vector: %w", err)
	}

	const q = `
SELECT
	pu.product_id,
	pu.normalized_name,
	pu.category_id,
	pu.last_price,
	(1 - (pu.embedding <=> $1::vector))::DOUBLE PRECISION AS similarity
FROM catalog.products_unique pu
WHERE pu.embedding IS NOT NULL
  AND (1 - (pu.embedding <=> $1::vector)) > $2
ORDER BY pu.embedding <=> $1::vector ASC
LIMIT $3
`

	rows, err := p.Query(ctx, q, literal, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar products: %w", err)
	}
	defer rows.Close()

	items := make([]MatchCandidate, 0, limit)
	for rows.Next() {
		var candidate MatchCandidate
		if err := rows.Scan(
			&candidate.ProductID,
			&candidate.NormalizedName,
			&candidate.CategoryID,
			&candidate.LastPrice,
			&candidate.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan similar product row: %w", err)
		}
		items = append(items, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar product rows: %w", err)
	}
	return items, nil
}

// InsertProductWithEmbedding creates a catalog entry and returns its id. The
// supplier's original wording goes into the metadata column.
func (p *Pool) InsertProductWithEmbedding(ctx context.Context, product NewProduct) (int64, error) {
	literal, err := VectorLiteral(product.Embedding)
	if err != nil {
		return 0, fmt.Errorf("render document vector: %w", err)
	}

	metadata, err := json.Marshal(map[string]string{"original_name": product.RawName})
	if err != nil {
		return 0, fmt.Errorf("render product metadata: %w", err)
	}

	const q = `
INSERT INTO catalog.products_unique
	(normalized_name, category_id, last_price, best_provider_id, suggested_price_retail, suggested_price_reseller, embedding, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7::vector, $8::jsonb)
RETURNING product_id
`

	var productID int64
	err = p.QueryRow(ctx, q,
		product.NormalizedName,
		product.CategoryID,
		product.Price,
		product.ProviderID,
		product.SuggestedPriceRetail,
		product.SuggestedPriceReseller,
		literal,
		string(metadata),
	).Scan(&productID)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return productID, nil
}

// AppendPriceHistory records one price observation. History is append-only and
// keeps the supplier's raw wording next to the price.
func (p *Pool) AppendPriceHistory(ctx context.Context, productID, providerID int64, rawName string, price float64) error {
	const q = `
INSERT INTO catalog.price_history (product_id, provider_id, raw_name, price)
VALUES ($1, $2, $3, $4)
`
	if _, err := p.Exec(ctx, q, productID, providerID, rawName, price); err != nil {
		return fmt.Errorf("append price history: %w", err)
	}
	return nil
}

// ApplyBestPrice moves a catalog entry to the offered price when it improves on
// the stored one. The guard runs inside the statement so concurrent offers for
// the same entry cannot both win: last_price = 0 marks an unpriced entry and
// always loses to a concrete offer.
func (p *Pool) ApplyBestPrice(ctx context.Context, productID, providerID int64, price, retail, reseller float64) (bool, error) {
	const q = `
UPDATE catalog.products_unique
SET last_price = $2,
    best_provider_id = $3,
    suggested_price_retail = $4,
    suggested_price_reseller = $5,
    version = version + 1,
    updated_at = NOW()
WHERE product_id = $1
  AND (last_price > $2 OR last_price = 0)
`
	tag, err := p.Exec(ctx, q, productID, price, providerID, retail, reseller)
	if err != nil {
		return false, fmt.Errorf("apply best price: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListProducts returns catalog entries newest-first with a total count for paging.
func (p *Pool) ListProducts(ctx context.Context, limit, offset int) ([]ProductListItem, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := p.QueryRow(ctx, `SELECT COUNT(*) FROM catalog.products_unique`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	const q = `
SELECT
	pu.product_id,
	pu.product_uuid::text,
	pu.normalized_name,
	pu.category_id,
	c.name,
	pu.last_price,
	pu.best_provider_id,
	pr.name,
	pu.suggested_price_retail,
	pu.suggested_price_reseller,
	pu.updated_at
FROM catalog.products_unique pu
JOIN catalog.categories c ON c.category_id = pu.category_id
LEFT JOIN catalog.providers pr ON pr.provider_id = pu.best_provider_id
ORDER BY pu.updated_at DESC, pu.product_id DESC
LIMIT $1 OFFSET $2
`

	rows, err := p.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	items := make([]ProductListItem, 0, limit)
	for rows.Next() {
		var item ProductListItem
		if err := rows.Scan(
			&item.ProductID,
			&item.ProductUUID,
			&item.NormalizedName,
			&item.CategoryID,
			&item.CategoryName,
			&item.LastPrice,
			&item.BestProviderID,
			&item.BestProviderName,
			&item.SuggestedPriceRetail,
			&item.SuggestedPriceReseller,
			&item.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return items, total, nil
}

// GetProduct returns one catalog entry by id.
func (p *Pool) GetProduct(ctx context.Context, productID int64) (*ProductListItem, error) {
	const q = `
SELECT
	pu.product_id,
	pu.product_uuid::text,
	pu.normalized_name,
	pu.category_id,
	c.name,
	pu.last_price,
	pu.best_provider_id,
	pr.name,
	pu.suggested_price_retail,
	pu.suggested_price_reseller,
	pu.updated_at
FROM catalog.products_unique pu
JOIN catalog.categories c ON c.category_id = pu.category_id
LEFT JOIN catalog.providers pr ON pr.provider_id = pu.best_provider_id
WHERE pu.product_id = $1
`

	var item ProductListItem
	err := p.QueryRow(ctx, q, productID).Scan(
		&item.ProductID,
		&item.ProductUUID,
		&item.NormalizedName,
		&item.CategoryID,
		&item.CategoryName,
		&item.LastPrice,
		&item.BestProviderID,
		&item.BestProviderName,
		&item.SuggestedPriceRetail,
		&item.SuggestedPriceReseller,
		&item.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &item, nil
}

// DeleteProduct removes a catalog entry and its price history.
func (p *Pool) DeleteProduct(ctx context.Context, productID int64) error {
	if _, err := p.Exec(ctx, `DELETE FROM catalog.price_history WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete product history: %w", err)
	}
	tag, err := p.Exec(ctx, `DELETE FROM catalog.products_unique WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// GetProductHistory returns price observations for one product, newest first.
func (p *Pool) GetProductHistory(ctx context.Context, productID int64, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}

	const q = `
SELECT
	h.history_id,
	h.product_id,
	h.provider_id,
	pr.name,
	h.raw_name,
	h.price,
	h.recorded_at
FROM catalog.price_history h
JOIN catalog.providers pr ON pr.provider_id = h.provider_id
WHERE h.product_id = $1
ORDER BY h.recorded_at DESC, h.history_id DESC
LIMIT $2
`

	rows, err := p.Query(ctx, q, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	items := make([]HistoryItem, 0, limit)
	for rows.Next() {
		var item HistoryItem
		if err := rows.Scan(
			&item.HistoryID,
			&item.ProductID,
			&item.ProviderID,
			&item.ProviderName,
			&item.RawName,
			&item.Price,
			&item.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return items, nil
}

// ListPriceHistory returns observations across all products, newest first,
// with a total count for paging.
func (p *Pool) ListPriceHistory(ctx context.Context, limit, offset int) ([]HistoryItem, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := p.QueryRow(ctx, `SELECT COUNT(*) FROM catalog.price_history`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count price history: %w", err)
	}

	const q = `
SELECT
	h.history_id,
	h.product_id,
	h.provider_id,
	pr.name,
	h.raw_name,
	h.price,
	h.recorded_at
FROM catalog.price_history h
JOIN catalog.providers pr ON pr.provider_id = h.provider_id
ORDER BY h.recorded_at DESC, h.history_id DESC
LIMIT $1 OFFSET $2
`

	rows, err := p.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	items := make([]HistoryItem, 0, limit)
	for rows.Next() {
		var item HistoryItem
		if err := rows.Scan(
			&item.HistoryID,
			&item.ProductID,
			&item.ProviderID,
			&item.ProviderName,
			&item.RawName,
			&item.Price,
			&item.RecordedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history rows: %w", err)
	}
	return items, total, nil
}

// RemoveHistoryBefore deletes observations recorded before the cutoff.
func (p *Pool) RemoveHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.Exec(ctx, `DELETE FROM catalog.price_history WHERE recorded_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("remove price history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetCatalogStats reports catalog table sizes.
func (p *Pool) GetCatalogStats(ctx context.Context) (*CatalogStats, error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM catalog.products_unique),
	(SELECT COUNT(*) FROM catalog.categories),
	(SELECT COUNT(*) FROM catalog.providers),
	(SELECT COUNT(*) FROM catalog.price_history)
`

	var stats CatalogStats
	if err := p.QueryRow(ctx, q).Scan(&stats.Products, &stats.Categories, &stats.Providers, &stats.History); err != nil {
		return nil, fmt.Errorf("query catalog stats: %w", err)
	}
	return &stats, nil
}

// ListSheetRows returns the rows a price sheet renders, ordered by category
// name and product name.
func (p *Pool) ListSheetRows(ctx context.Context) ([]SheetRow, error) {
	const q = `
SELECT
	c.name,
	pu.normalized_name,
	pu.suggested_price_retail,
	pu.suggested_price_reseller
FROM catalog.products_unique pu
JOIN catalog.categories c ON c.category_id = pu.category_id
WHERE pu.last_price > 0
ORDER BY c.name ASC, pu.normalized_name ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query sheet rows: %w", err)
	}
	defer rows.Close()

	items := make([]SheetRow, 0, 64)
	for rows.Next() {
		var item SheetRow
		if err := rows.Scan(&item.CategoryName, &item.ProductName, &item.RetailPrice, &item.ResellerPrice); err != nil {
			return nil, fmt.Errorf("scan sheet row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheet rows: %w", err)
	}
	return items, nil
}

// SavePriceList persists a rendered sheet pair.
func (p *Pool) SavePriceList(ctx context.Context, listRetail, listReseller string, totalProducts, totalCategories int) (int64, error) {
	const q = `
INSERT INTO catalog.price_lists (list_retail, list_reseller, total_products, total_categories)
VALUES ($1, $2, $3, $4)
RETURNING price_list_id
`

	var priceListID int64
	if err := p.QueryRow(ctx, q, listRetail, listReseller, totalProducts, totalCategories).Scan(&priceListID); err != nil {
		return 0, fmt.Errorf("insert price list: %w", err)
	}
	return priceListID, nil
}

// ListPriceLists returns generated sheet pairs newest-first, without the
// rendered bodies.
func (p *Pool) ListPriceLists(ctx context.Context, limit, offset int) ([]PriceListItem, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := p.QueryRow(ctx, `SELECT COUNT(*) FROM catalog.price_lists`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count price lists: %w", err)
	}

	const q = `
SELECT price_list_id, total_products, total_categories, generated_at
FROM catalog.price_lists
ORDER BY generated_at DESC, price_list_id DESC
LIMIT $1 OFFSET $2
`

	rows, err := p.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query price lists: %w", err)
	}
	defer rows.Close()

	items := make([]PriceListItem, 0, limit)
	for rows.Next() {
		var item PriceListItem
		if err := rows.Scan(&item.PriceListID, &item.TotalProducts, &item.TotalCategories, &item.GeneratedAt); err != nil {
			return nil, 0, fmt.Errorf("scan price list row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate price list rows: %w", err)
	}
	return items, total, nil
}

// GetPriceList returns one generated sheet pair by id.
func (p *Pool) GetPriceList(ctx context.Context, priceListID int64) (*PriceListItem, error) {
	const q = `
SELECT price_list_id, list_retail, list_reseller, total_products, total_categories, generated_at
FROM catalog.price_lists
WHERE price_list_id = $1
`

	var item PriceListItem
	err := p.QueryRow(ctx, q, priceListID).Scan(
		&item.PriceListID,
		&item.ListRetail,
		&item.ListReseller,
		&item.TotalProducts,
		&item.TotalCategories,
		&item.GeneratedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query price list: %w", err)
	}
	return &item, nil
}

// DeletePriceList removes a generated sheet pair by id.
func (p *Pool) DeletePriceList(ctx context.Context, priceListID int64) error {
	tag, err := p.Exec(ctx, `DELETE FROM catalog.price_lists WHERE price_list_id = $1`, priceListID)
	if err != nil {
		return fmt.Errorf("delete price list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// LatestPriceList returns the most recently generated sheet pair.
func (p *Pool) LatestPriceList(ctx context.Context) (*PriceListItem, error) {
	const q = `
SELECT price_list_id, list_retail, list_reseller, total_products, total_categories, generated_at
FROM catalog.price_lists
ORDER BY generated_at DESC, price_list_id DESC
LIMIT 1
`

	var item PriceListItem
	err := p.QueryRow(ctx, q).Scan(
		&item.PriceListID,
		&item.ListRetail,
		&item.ListReseller,
		&item.TotalProducts,
		&item.TotalCategories,
		&item.GeneratedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query latest price list: %w", err)
	}
	return &item, nil
}
