// Package intel wraps the language model and embedding service calls the
// ingestion pipeline depends on: price list detection, line item extraction,
// name normalization, identity confirmation, category classification and
// asymmetric text embeddings.
package intel

import (
	"context"
)

// LineItem is one extracted product offer from a supplier message.
type LineItem struct {
	Name  string
	Price float64
}

// CategoryOption is one entry of the closed category set offered to the
// classifier. The description tells the model what belongs in the category.
type CategoryOption struct {
	Name        string
	Description string
}

// Client is the language model surface used by the pipeline.
type Client interface {
	// IsPriceList reports whether the message contains at least one product
	// with a price.
	IsPriceList(ctx context.Context, message string) (bool, error)

	// ExtractItems parses the message into line items. isList is false when
	// the model decides the message carries no offers.
	ExtractItems(ctx context.Context, message string) (isList bool, items []LineItem, err error)

	// NormalizeName rewrites a raw product description into its standard
	// commercial name.
	NormalizeName(ctx context.Context, rawName string) (string, error)

	// ConfirmIdentity decides whether an offered product and a catalog
	// candidate are the same commercial product.
	ConfirmIdentity(ctx context.Context, offered, candidate string) (bool, error)

	// ClassifyCategory picks one of the given categories for the product.
	// The caller validates the answer against its closed category set.
	ClassifyCategory(ctx context.Context, productName string, price float64, categories []CategoryOption) (string, error)
}

// Embedder produces asymmetric embeddings: documents are embedded for storage,
// queries for lookup against stored documents.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}
