package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jaliltomas/preciosbot/internal/db"
	"github.com/jaliltomas/preciosbot/internal/intel"
	"github.com/jaliltomas/preciosbot/internal/pricing"
)

const (
	// DefaultMatchThreshold is the minimum cosine similarity for a catalog
	// candidate to reach identity confirmation.
	DefaultMatchThreshold = 0.65

	// DefaultCategoryName absorbs products the classifier cannot place.
	DefaultCategoryName = "Otros"
)

// Ignore reasons recorded on messages that never reach item processing.
const (
	ReasonProviderNotFound = "provider not found"
	ReasonProviderInactive = "provider inactive"
	ReasonNotPriceList     = "not a price list"
	ReasonNoProducts       = "no products found"
)

// Message statuses.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusIgnored   = "ignored"
	StatusDuplicate = "duplicate"
)

// OutcomeKind tags what happened to one line item.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeFailed  OutcomeKind = "failed"
)

// ItemOutcome is the per-item result of a processed message. Failures carry a
// reason and never abort the remaining items.
type ItemOutcome struct {
	Kind         OutcomeKind
	Name         string
	ProductID    int64
	PriceApplied bool
	Reason       string
}

// Result summarizes one message run.
type Result struct {
	MessageID int64
	Status    string
	Reason    string
	Outcomes  []ItemOutcome
}

type Service struct {
	store          Store
	llm            intel.Client
	embedder       intel.Embedder
	matchThreshold float64
	logger         zerolog.Logger
}

func NewService(store Store, llm intel.Client, embedder intel.Embedder, matchThreshold float64, logger zerolog.Logger) *Service {
	if matchThreshold <= 0 || matchThreshold >= 1 {
		matchThreshold = DefaultMatchThreshold
	}
	return &Service{
		store:          store,
		llm:            llm,
		embedder:       embedder,
		matchThreshold: matchThreshold,
		logger:         logger,
	}
}

// NormalizePhone strips everything but digits from a sender identifier.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IngestAndProcess stores an inbound message and runs it. A replayed external
// id returns the original message id with status "duplicate" and does not run
// again.
func (s *Service) IngestAndProcess(ctx context.Context, externalID, senderPhone, body string) (Result, error) {
	phone := NormalizePhone(senderPhone)

	messageID, created, err := s.store.CreateRawMessage(ctx, externalID, phone, body)
	if err != nil {
		return Result{}, fmt.Errorf("ingest message: %w", err)
	}
	if !created {
		s.logger.Info().
			Int64("message_id", messageID).
			Str("external_id", externalID).
			Msg("duplicate message ignored")
		return Result{MessageID: messageID, Status: StatusDuplicate}, nil
	}

	return s.process(ctx, messageID, phone, body)
}

// ProcessPending drains up to limit pending messages, oldest first. A message
// whose run fails is marked ignored with the error as reason; only a store
// failure while recording that terminal state stops the drain.
func (s *Service) ProcessPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	processed := 0
	for processed < limit {
		msg, found, err := s.store.NextPendingMessage(ctx)
		if err != nil {
			return processed, err
		}
		if !found {
			break
		}

		if _, err := s.process(ctx, msg.MessageID, msg.SenderPhone, msg.Body); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// process guarantees the message leaves pending: any error escaping the run
// is persisted as the ignore reason so the message never sticks in pending.
func (s *Service) process(ctx context.Context, messageID int64, phone, body string) (Result, error) {
	result, err := s.run(ctx, messageID, phone, body)
	if err == nil {
		return result, nil
	}

	if markErr := s.store.MarkMessageIgnored(ctx, messageID, err.Error()); markErr != nil {
		return Result{}, fmt.Errorf("mark message ignored after %q: %w", err.Error(), markErr)
	}
	s.logger.Error().
		Err(err).
		Int64("message_id", messageID).
		Msg("message failed and was ignored")
	return Result{MessageID: messageID, Status: StatusIgnored, Reason: err.Error()}, nil
}

// run is the state machine for one pending message: provider gate, price list
// detection, extraction, then strictly sequential item processing.
func (s *Service) run(ctx context.Context, messageID int64, phone, body string) (Result, error) {
	logger := s.logger.With().Int64("message_id", messageID).Logger()

	provider, err := s.store.FindProviderByPhone(ctx, phone)
	if err != nil {
		if db.IsNoRows(err) {
			return s.ignore(ctx, messageID, ReasonProviderNotFound)
		}
		return Result{}, fmt.Errorf("resolve provider: %w", err)
	}
	if !provider.Active {
		return s.ignore(ctx, messageID, ReasonProviderInactive)
	}

	if err := s.store.LinkMessageProvider(ctx, messageID, provider.ProviderID); err != nil {
		return Result{}, err
	}

	isList, err := s.llm.IsPriceList(ctx, body)
	if err != nil {
		return Result{}, fmt.Errorf("detect price list: %w", err)
	}
	if !isList {
		return s.ignore(ctx, messageID, ReasonNotPriceList)
	}

	extracted, items, err := s.llm.ExtractItems(ctx, body)
	if err != nil {
		return Result{}, fmt.Errorf("extract items: %w", err)
	}
	if !extracted || len(items) == 0 {
		return s.ignore(ctx, messageID, ReasonNoProducts)
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load categories: %w", err)
	}

	outcomes := make([]ItemOutcome, 0, len(items))
	succeeded := 0
	for _, item := range items {
		outcome := s.processItem(ctx, provider, categories, item)
		if outcome.Kind == OutcomeFailed {
			logger.Warn().
				Str("product", item.Name).
				Str("reason", outcome.Reason).
				Msg("line item failed")
		} else {
			succeeded++
		}
		outcomes = append(outcomes, outcome)
	}

	// The success count excludes items that failed their sub-pipeline.
	if err := s.store.MarkMessageProcessed(ctx, messageID, succeeded); err != nil {
		return Result{}, err
	}

	logger.Info().
		Int64("provider_id", provider.ProviderID).
		Int("items", len(items)).
		Int("succeeded", succeeded).
		Msg("message processed")

	return Result{
		MessageID: messageID,
		Status:    StatusProcessed,
		Outcomes:  outcomes,
	}, nil
}

func (s *Service) ignore(ctx context.Context, messageID int64, reason string) (Result, error) {
	if err := s.store.MarkMessageIgnored(ctx, messageID, reason); err != nil {
		return Result{}, err
	}
	s.logger.Info().
		Int64("message_id", messageID).
		Str("reason", reason).
		Msg("message ignored")
	return Result{MessageID: messageID, Status: StatusIgnored, Reason: reason}, nil
}

// processItem runs one line item end to end. Any failure is contained in the
// returned outcome.
func (s *Service) processItem(ctx context.Context, provider *db.ProviderItem, categories []db.CategoryItem, item intel.LineItem) ItemOutcome {
	candidate, err := s.matchCatalog(ctx, item.Name)
	if err != nil {
		return failedOutcome(item.Name, err)
	}

	if candidate != nil {
		return s.updateExisting(ctx, provider, categories, item, candidate)
	}
	return s.createNew(ctx, provider, categories, item)
}

// updateExisting appends the observation to history and moves the entry to the
// offered price only when the best price guard admits it.
func (s *Service) updateExisting(ctx context.Context, provider *db.ProviderItem, categories []db.CategoryItem, item intel.LineItem, candidate *db.MatchCandidate) ItemOutcome {
	retail, reseller := suggestedPrices(item.Price, categoryByID(categories, candidate.CategoryID))

	if err := s.store.AppendPriceHistory(ctx, candidate.ProductID, provider.ProviderID, item.Name, item.Price); err != nil {
		return failedOutcome(item.Name, err)
	}

	applied, err := s.store.ApplyBestPrice(ctx, candidate.ProductID, provider.ProviderID, item.Price, retail, reseller)
	if err != nil {
		return failedOutcome(item.Name, err)
	}

	return ItemOutcome{
		Kind:         OutcomeUpdated,
		Name:         candidate.NormalizedName,
		ProductID:    candidate.ProductID,
		PriceApplied: applied,
	}
}

// createNew normalizes the name, classifies it into the closed category set,
// embeds the document and inserts the catalog entry with its first observation.
func (s *Service) createNew(ctx context.Context, provider *db.ProviderItem, categories []db.CategoryItem, item intel.LineItem) ItemOutcome {
	normalized, err := s.llm.NormalizeName(ctx, item.Name)
	if err != nil {
		return failedOutcome(item.Name, err)
	}

	options := categoryOptions(categories)
	if len(options) == 0 {
		options = []intel.CategoryOption{{Name: DefaultCategoryName}}
	}

	categoryName, err := s.llm.ClassifyCategory(ctx, normalized, item.Price, options)
	if err != nil {
		return failedOutcome(item.Name, err)
	}

	category := resolveCategory(categories, categoryName)
	if category == nil {
		// Answers outside the closed set coerce to the default category.
		category = resolveCategory(categories, DefaultCategoryName)
	}
	if category == nil {
		return failedOutcome(item.Name, fmt.Errorf("category %q not found and no default category exists", categoryName))
	}

	retail, reseller := suggestedPrices(item.Price, category)

	embedding, err := s.embedder.EmbedDocument(ctx, normalized)
	if err != nil {
		return failedOutcome(item.Name, err)
	}

	productID, err := s.store.InsertProductWithEmbedding(ctx, db.NewProduct{
		NormalizedName:         normalized,
		RawName:                item.Name,
		CategoryID:             category.CategoryID,
		Price:                  item.Price,
		ProviderID:             provider.ProviderID,
		SuggestedPriceRetail:   retail,
		SuggestedPriceReseller: reseller,
		Embedding:              embedding,
	})
	if err != nil {
		return failedOutcome(item.Name, err)
	}

	if err := s.store.AppendPriceHistory(ctx, productID, provider.ProviderID, item.Name, item.Price); err != nil {
		return failedOutcome(item.Name, err)
	}

	return ItemOutcome{
		Kind:         OutcomeCreated,
		Name:         normalized,
		ProductID:    productID,
		PriceApplied: true,
	}
}

func failedOutcome(name string, err error) ItemOutcome {
	return ItemOutcome{
		Kind:   OutcomeFailed,
		Name:   name,
		Reason: err.Error(),
	}
}

func categoryOptions(categories []db.CategoryItem) []intel.CategoryOption {
	options := make([]intel.CategoryOption, 0, len(categories))
	for _, category := range categories {
		options = append(options, intel.CategoryOption{
			Name:        category.Name,
			Description: category.Description,
		})
	}
	return options
}

func resolveCategory(categories []db.CategoryItem, name string) *db.CategoryItem {
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i]
		}
	}
	return nil
}

func categoryByID(categories []db.CategoryItem, categoryID int64) *db.CategoryItem {
	for i := range categories {
		if categories[i].CategoryID == categoryID {
			return &categories[i]
		}
	}
	return nil
}

func suggestedPrices(price float64, category *db.CategoryItem) (retail, reseller float64) {
	if category == nil {
		return pricing.DefaultSuggested(price)
	}
	return pricing.Suggested(price, pricing.Markup{
		Retail:               category.MarkupRetail,
		Reseller:             category.MarkupReseller,
		IsRetailPercentage:   category.IsRetailPercentage,
		IsResellerPercentage: category.IsResellerPercentage,
	})
}
