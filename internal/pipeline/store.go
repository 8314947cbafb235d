package pipeline

import (
	"context"

	"github.com/jaliltomas/preciosbot/internal/db"
)

// Store is the persistence surface the pipeline runs against. *db.Pool
// implements it.
type Store interface {
	CreateRawMessage(ctx context.Context, externalID, senderPhone, body string) (int64, bool, error)
	LinkMessageProvider(ctx context.Context, messageID, providerID int64) error
	MarkMessageIgnored(ctx context.Context, messageID int64, reason string) error
	MarkMessageProcessed(ctx context.Context, messageID int64, productsCount int) error
	NextPendingMessage(ctx context.Context) (*db.MessageListItem, bool, error)

	FindProviderByPhone(ctx context.Context, phone string) (*db.ProviderItem, error)
	ListCategories(ctx context.Context) ([]db.CategoryItem, error)

	FindNearestProduct(ctx context.Context, embedding []float64, threshold float64) (*db.MatchCandidate, error)
	InsertProductWithEmbedding(ctx context.Context, product db.NewProduct) (int64, error)
	AppendPriceHistory(ctx context.Context, productID, providerID int64, rawName string, price float64) error
	ApplyBestPrice(ctx context.Context, productID, providerID int64, price, retail, reseller float64) (bool, error)
}

var _ Store = (*db.Pool)(nil)
