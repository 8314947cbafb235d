package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jaliltomas/preciosbot/internal/db"
	"github.com/jaliltomas/preciosbot/internal/intel"
)

type historyRecord struct {
	ProductID  int64
	ProviderID int64
	RawName    string
	Price      float64
}

type applyRecord struct {
	ProductID  int64
	ProviderID int64
	Price      float64
	Retail     float64
	Reseller   float64
}

type fakeStore struct {
	nextMessageID int64
	externalIDs   map[string]int64
	linked        map[int64]int64
	ignored       map[int64]string
	processed     map[int64]int

	providers  map[string]db.ProviderItem
	categories []db.CategoryItem

	nearest     *db.MatchCandidate
	applyResult bool

	history       []historyRecord
	applies       []applyRecord
	inserted      []db.NewProduct
	nextProductID int64
	insertErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		externalIDs:   make(map[string]int64),
		linked:        make(map[int64]int64),
		ignored:       make(map[int64]string),
		processed:     make(map[int64]int),
		providers:     make(map[string]db.ProviderItem),
		nextProductID: 100,
		applyResult:   true,
	}
}

func (f *fakeStore) CreateRawMessage(_ context.Context, externalID, _, _ string) (int64, bool, error) {
	if id, ok := f.externalIDs[externalID]; ok {
		return id, false, nil
	}
	f.nextMessageID++
	f.externalIDs[externalID] = f.nextMessageID
	return f.nextMessageID, true, nil
}

func (f *fakeStore) LinkMessageProvider(_ context.Context, messageID, providerID int64) error {
	f.linked[messageID] = providerID
	return nil
}

func (f *fakeStore) MarkMessageIgnored(_ context.Context, messageID int64, reason string) error {
	f.ignored[messageID] = reason
	return nil
}

func (f *fakeStore) MarkMessageProcessed(_ context.Context, messageID int64, productsCount int) error {
	f.processed[messageID] = productsCount
	return nil
}

func (f *fakeStore) NextPendingMessage(context.Context) (*db.MessageListItem, bool, error) {
	return nil, false, nil
}

func (f *fakeStore) FindProviderByPhone(_ context.Context, phone string) (*db.ProviderItem, error) {
	provider, ok := f.providers[phone]
	if !ok {
		return nil, db.ErrNoRows
	}
	return &provider, nil
}

func (f *fakeStore) ListCategories(context.Context) ([]db.CategoryItem, error) {
	return f.categories, nil
}

func (f *fakeStore) FindNearestProduct(_ context.Context, _ []float64, _ float64) (*db.MatchCandidate, error) {
	if f.nearest == nil {
		return nil, db.ErrNoRows
	}
	return f.nearest, nil
}

func (f *fakeStore) InsertProductWithEmbedding(_ context.Context, product db.NewProduct) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextProductID++
	f.inserted = append(f.inserted, product)
	return f.nextProductID, nil
}

func (f *fakeStore) AppendPriceHistory(_ context.Context, productID, providerID int64, rawName string, price float64) error {
	f.history = append(f.history, historyRecord{ProductID: productID, ProviderID: providerID, RawName: rawName, Price: price})
	return nil
}

func (f *fakeStore) ApplyBestPrice(_ context.Context, productID, providerID int64, price, retail, reseller float64) (bool, error) {
	f.applies = append(f.applies, applyRecord{
		ProductID:  productID,
		ProviderID: providerID,
		Price:      price,
		Retail:     retail,
		Reseller:   reseller,
	})
	return f.applyResult, nil
}

type fakeIntel struct {
	isList  bool
	items   []intel.LineItem
	confirm bool

	detectErr    error
	normalizeErr error
	failName     string
	category     string

	confirmCalls    int
	classifyCalls   int
	normalizeCalls  int
	classifyOptions []intel.CategoryOption
}

func (f *fakeIntel) IsPriceList(context.Context, string) (bool, error) {
	if f.detectErr != nil {
		return false, f.detectErr
	}
	return f.isList, nil
}

func (f *fakeIntel) ExtractItems(context.Context, string) (bool, []intel.LineItem, error) {
	return f.isList, f.items, nil
}

func (f *fakeIntel) NormalizeName(_ context.Context, rawName string) (string, error) {
	f.normalizeCalls++
	if f.normalizeErr != nil && (f.failName == "" || f.failName == rawName) {
		return "", f.normalizeErr
	}
	return "Normalized " + rawName, nil
}

func (f *fakeIntel) ConfirmIdentity(context.Context, string, string) (bool, error) {
	f.confirmCalls++
	return f.confirm, nil
}

func (f *fakeIntel) ClassifyCategory(_ context.Context, _ string, _ float64, categories []intel.CategoryOption) (string, error) {
	f.classifyCalls++
	f.classifyOptions = categories
	return f.category, nil
}

type fakeEmbedder struct {
	queryCalls    int
	documentCalls int
}

func (f *fakeEmbedder) EmbedDocument(context.Context, string) ([]float64, error) {
	f.documentCalls++
	return []float64{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float64, error) {
	f.queryCalls++
	return []float64{0.3, 0.2, 0.1}, nil
}

func testCategories() []db.CategoryItem {
	return []db.CategoryItem{
		{CategoryID: 1, Name: "iPhone", Description: "iPhones nuevos o sellados", MarkupRetail: 0.15, MarkupReseller: 0.05, IsRetailPercentage: true, IsResellerPercentage: true},
		{CategoryID: 2, Name: "Otros", Description: "Todo lo demás", MarkupRetail: 0.15, MarkupReseller: 0.05, IsRetailPercentage: true, IsResellerPercentage: true},
	}
}

func newTestService(store *fakeStore, llm *fakeIntel, embedder *fakeEmbedder) *Service {
	return NewService(store, llm, embedder, DefaultMatchThreshold, zerolog.Nop())
}

func TestProcessIgnoresUnknownProvider(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeIntel{isList: true}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000@c.us", "iPhone 13 450")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusIgnored {
		t.Fatalf("unexpected status: %q", result.Status)
	}
	if result.Reason != ReasonProviderNotFound {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if store.ignored[result.MessageID] != ReasonProviderNotFound {
		t.Fatalf("ignored reason not persisted: %q", store.ignored[result.MessageID])
	}
}

func TestProcessIgnoresInactiveProvider(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Name: "Proveedor", Phone: "5491100000000", Active: false}
	llm := &fakeIntel{isList: true}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "+54 9 11 0000-0000", "iPhone 13 450")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reason != ReasonProviderInactive {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
}

func TestProcessIgnoresNonPriceList(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	llm := &fakeIntel{isList: false}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "Hola, buenos días!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reason != ReasonNotPriceList {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if store.linked[result.MessageID] != 7 {
		t.Fatalf("provider should be linked before detection, got %d", store.linked[result.MessageID])
	}
}

func TestProcessCreatesNewProduct(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	store.categories = testCategories()
	llm := &fakeIntel{
		isList:   true,
		items:    []intel.LineItem{{Name: "iphone 13 128 blue", Price: 450}},
		category: "iPhone",
	}
	embedder := &fakeEmbedder{}
	service := newTestService(store, llm, embedder)

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "iphone 13 128 blue 450usd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusProcessed {
		t.Fatalf("unexpected status: %q", result.Status)
	}
	if len(result.Outcomes) != 1 {
		t.Fatalf("unexpected outcome count: %d", len(result.Outcomes))
	}

	outcome := result.Outcomes[0]
	if outcome.Kind != OutcomeCreated {
		t.Fatalf("unexpected outcome kind: %q (reason %q)", outcome.Kind, outcome.Reason)
	}
	if !outcome.PriceApplied {
		t.Fatalf("created entry should carry its first price")
	}

	if len(store.inserted) != 1 {
		t.Fatalf("unexpected insert count: %d", len(store.inserted))
	}
	product := store.inserted[0]
	if product.NormalizedName != "Normalized iphone 13 128 blue" {
		t.Fatalf("unexpected normalized name: %q", product.NormalizedName)
	}
	if product.RawName != "iphone 13 128 blue" {
		t.Fatalf("entry must keep the supplier wording, got %q", product.RawName)
	}
	if product.CategoryID != 1 {
		t.Fatalf("unexpected category id: %d", product.CategoryID)
	}
	if product.SuggestedPriceRetail != 517.5 {
		t.Fatalf("unexpected retail price: %v", product.SuggestedPriceRetail)
	}
	if product.SuggestedPriceReseller != 472.5 {
		t.Fatalf("unexpected reseller price: %v", product.SuggestedPriceReseller)
	}

	if len(store.history) != 1 || store.history[0].Price != 450 {
		t.Fatalf("expected one history row at 450, got %#v", store.history)
	}
	if store.history[0].RawName != "iphone 13 128 blue" {
		t.Fatalf("history must keep the supplier wording, got %q", store.history[0].RawName)
	}
	if embedder.documentCalls != 1 {
		t.Fatalf("expected one document embedding, got %d", embedder.documentCalls)
	}
	if store.processed[result.MessageID] != 1 {
		t.Fatalf("unexpected products count: %d", store.processed[result.MessageID])
	}

	if len(llm.classifyOptions) != 2 {
		t.Fatalf("classifier must see the whole category set, got %d", len(llm.classifyOptions))
	}
	if llm.classifyOptions[0].Name != "iPhone" || llm.classifyOptions[0].Description != "iPhones nuevos o sellados" {
		t.Fatalf("classifier must receive name and description, got %#v", llm.classifyOptions[0])
	}
}

func TestProcessUpdatesExistingProduct(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	store.categories = testCategories()
	store.nearest = &db.MatchCandidate{
		ProductID:      42,
		NormalizedName: "iPhone 13 128GB Blue",
		CategoryID:     1,
		LastPrice:      500,
		Similarity:     0.91,
	}
	llm := &fakeIntel{
		isList:  true,
		items:   []intel.LineItem{{Name: "iphone 13 128", Price: 450}},
		confirm: true,
	}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "iphone 13 128 450")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if outcome.Kind != OutcomeUpdated {
		t.Fatalf("unexpected outcome kind: %q (reason %q)", outcome.Kind, outcome.Reason)
	}
	if outcome.ProductID != 42 {
		t.Fatalf("unexpected product id: %d", outcome.ProductID)
	}
	if !outcome.PriceApplied {
		t.Fatalf("lower offer should win the best price guard")
	}

	if len(store.history) != 1 || store.history[0].ProductID != 42 {
		t.Fatalf("history should record the observation, got %#v", store.history)
	}
	if len(store.applies) != 1 {
		t.Fatalf("unexpected apply count: %d", len(store.applies))
	}
	if store.applies[0].Retail != 517.5 || store.applies[0].Reseller != 472.5 {
		t.Fatalf("unexpected suggested prices: %#v", store.applies[0])
	}
	if len(store.inserted) != 0 {
		t.Fatalf("update path must not create entries")
	}
	if llm.normalizeCalls != 0 || llm.classifyCalls != 0 {
		t.Fatalf("update path must not normalize or classify")
	}
}

func TestProcessRecordsHistoryWhenGuardRejects(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	store.categories = testCategories()
	store.nearest = &db.MatchCandidate{
		ProductID:      42,
		NormalizedName: "iPhone 13 128GB Blue",
		CategoryID:     1,
		LastPrice:      400,
		Similarity:     0.91,
	}
	store.applyResult = false
	llm := &fakeIntel{
		isList:  true,
		items:   []intel.LineItem{{Name: "iphone 13 128", Price: 450}},
		confirm: true,
	}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "iphone 13 128 450")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if outcome.Kind != OutcomeUpdated {
		t.Fatalf("unexpected outcome kind: %q", outcome.Kind)
	}
	if outcome.PriceApplied {
		t.Fatalf("higher offer must not win the best price guard")
	}
	if len(store.history) != 1 {
		t.Fatalf("history is append-only and unconditional, got %#v", store.history)
	}
}

func TestProcessCoercesUnknownCategoryToDefault(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	store.categories = testCategories()
	llm := &fakeIntel{
		isList:   true,
		items:    []intel.LineItem{{Name: "parlante jbl", Price: 80}},
		category: "Parlantes",
	}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "parlante jbl 80")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if outcome.Kind != OutcomeCreated {
		t.Fatalf("unexpected outcome kind: %q (reason %q)", outcome.Kind, outcome.Reason)
	}
	if store.inserted[0].CategoryID != 2 {
		t.Fatalf("unknown category should coerce to default, got %d", store.inserted[0].CategoryID)
	}
}

func TestProcessIsolatesItemFailures(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	store.categories = testCategories()
	llm := &fakeIntel{
		isList: true,
		items: []intel.LineItem{
			{Name: "primero", Price: 100},
			{Name: "segundo", Price: 200},
		},
		category:     "Otros",
		normalizeErr: errors.New("model unavailable"),
	}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "primero 100\nsegundo 200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusProcessed {
		t.Fatalf("item failures must not ignore the message, got %q", result.Status)
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("unexpected outcome count: %d", len(result.Outcomes))
	}
	for _, outcome := range result.Outcomes {
		if outcome.Kind != OutcomeFailed {
			t.Fatalf("unexpected outcome kind: %q", outcome.Kind)
		}
		if outcome.Reason == "" {
			t.Fatalf("failed outcome must carry a reason")
		}
	}
	if store.processed[result.MessageID] != 0 {
		t.Fatalf("failed items must not count as processed products, got %d", store.processed[result.MessageID])
	}
}

func TestProcessCountsOnlySuccessfulItems(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	store.categories = testCategories()
	llm := &fakeIntel{
		isList: true,
		items: []intel.LineItem{
			{Name: "primero", Price: 100},
			{Name: "segundo", Price: 200},
		},
		category:     "Otros",
		normalizeErr: errors.New("model unavailable"),
		failName:     "primero",
	}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "primero 100\nsegundo 200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcomes[0].Kind != OutcomeFailed {
		t.Fatalf("first item should fail, got %q", result.Outcomes[0].Kind)
	}
	if result.Outcomes[1].Kind != OutcomeCreated {
		t.Fatalf("second item should succeed, got %q (reason %q)", result.Outcomes[1].Kind, result.Outcomes[1].Reason)
	}
	if store.processed[result.MessageID] != 1 {
		t.Fatalf("success count must exclude the failed item, got %d", store.processed[result.MessageID])
	}
}

func TestProcessFatalErrorMarksIgnored(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	llm := &fakeIntel{detectErr: errors.New("model unavailable")}
	service := newTestService(store, llm, &fakeEmbedder{})

	result, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "iphone 13 450")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusIgnored {
		t.Fatalf("a fatal error must leave the message ignored, got %q", result.Status)
	}

	reason := store.ignored[result.MessageID]
	if reason == "" {
		t.Fatal("the message must not stay pending after a fatal error")
	}
	if !strings.Contains(reason, "model unavailable") {
		t.Fatalf("ignore reason must carry the error, got %q", reason)
	}
	if _, ok := store.processed[result.MessageID]; ok {
		t.Fatal("a failed run must not mark the message processed")
	}
}

func TestIngestDuplicateExternalIDDoesNotRun(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.providers["5491100000000"] = db.ProviderItem{ProviderID: 7, Active: true}
	store.categories = testCategories()
	llm := &fakeIntel{
		isList:   true,
		items:    []intel.LineItem{{Name: "iphone 13", Price: 450}},
		category: "iPhone",
	}
	service := newTestService(store, llm, &fakeEmbedder{})

	first, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "iphone 13 450")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := service.IngestAndProcess(context.Background(), "msg-1", "5491100000000", "iphone 13 450")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Status != StatusDuplicate {
		t.Fatalf("unexpected status: %q", second.Status)
	}
	if second.MessageID != first.MessageID {
		t.Fatalf("duplicate should return the original message id")
	}
	if len(store.history) != 1 {
		t.Fatalf("duplicate must not process again, got %d history rows", len(store.history))
	}
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"5491100000000@c.us", "5491100000000"},
		{"+54 9 11 0000-0000", "5491100000000"},
		{"abc", ""},
	}

	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
