package db

import (
	"time"
)

// RawMessage maps catalog.raw_messages.
type RawMessage struct {
	MessageID      int64      `gorm:"column:message_id;primaryKey;autoIncrement"`
	MessageUUID    string     `gorm:"column:message_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	ExternalID     string     `gorm:"column:external_id;type:text;not null;unique"`
	SenderPhone    string     `gorm:"column:sender_phone;type:text;not null"`
	Body           string     `gorm:"column:body;type:text;not null"`
	Status         string     `gorm:"column:status;type:text;not null;default:pending"`
	IgnoredReason  *string    `gorm:"column:ignored_reason;type:text"`
	ProviderID     *int64     `gorm:"column:provider_id;type:bigint"`
	ProductsCount  int        `gorm:"column:products_count;type:integer;not null;default:0"`
	ReceivedAt     time.Time  `gorm:"column:received_at;type:timestamptz;not null;default:now()"`
	ProcessedAt    *time.Time `gorm:"column:processed_at;type:timestamptz"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (RawMessage) TableName() string { return "catalog.raw_messages" }

// Provider maps catalog.providers.
type Provider struct {
	ProviderID   int64     `gorm:"column:provider_id;primaryKey;autoIncrement"`
	ProviderUUID string    `gorm:"column:provider_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Name         string    `gorm:"column:name;type:text;not null"`
	Phone        string    `gorm:"column:phone;type:text;not null;unique"`
	Active       bool      `gorm:"column:active;type:boolean;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Provider) TableName() string { return "catalog.providers" }

// Category maps catalog.categories.
type Category struct {
	CategoryID           int64     `gorm:"column:category_id;primaryKey;autoIncrement"`
	CategoryUUID         string    `gorm:"column:category_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Name                 string    `gorm:"column:name;type:text;not null;unique"`
	Description          string    `gorm:"column:description;type:text;not null;default:''"`
	MarkupRetail         float64   `gorm:"column:markup_retail;type:double precision;not null;default:0.15"`
	MarkupReseller       float64   `gorm:"column:markup_reseller;type:double precision;not null;default:0.05"`
	IsRetailPercentage   bool      `gorm:"column:is_retail_percentage;type:boolean;not null;default:true"`
	IsResellerPercentage bool      `gorm:"column:is_reseller_percentage;type:boolean;not null;default:true"`
	CreatedAt            time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt            time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Category) TableName() string { return "catalog.categories" }

// ProductUnique maps catalog.products_unique.
type ProductUnique struct {
	ProductID              int64     `gorm:"column:product_id;primaryKey;autoIncrement"`
	ProductUUID            string    `gorm:"column:product_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	NormalizedName         string    `gorm:"column:normalized_name;type:text;not null"`
	CategoryID             int64     `gorm:"column:category_id;type:bigint;not null"`
	LastPrice              float64   `gorm:"column:last_price;type:double precision;not null;default:0"`
	BestProviderID         *int64    `gorm:"column:best_provider_id;type:bigint"`
	SuggestedPriceRetail   float64   `gorm:"column:suggested_price_retail;type:double precision;not null;default:0"`
	SuggestedPriceReseller float64   `gorm:"column:suggested_price_reseller;type:double precision;not null;default:0"`
	Embedding              *string   `gorm:"column:embedding;type:vector(768)"`
	Metadata               string    `gorm:"column:metadata;type:jsonb;not null;default:'{}'"`
	Version                int64     `gorm:"column:version;type:bigint;not null;default:0"`
	CreatedAt              time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt              time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (ProductUnique) TableName() string { return "catalog.products_unique" }

// PriceHistory maps catalog.price_history.
type PriceHistory struct {
	HistoryID   int64     `gorm:"column:history_id;primaryKey;autoIncrement"`
	HistoryUUID string    `gorm:"column:history_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	ProductID   int64     `gorm:"column:product_id;type:bigint;not null"`
	ProviderID  int64     `gorm:"column:provider_id;type:bigint;not null"`
	RawName     string    `gorm:"column:raw_name;type:text;not null;default:''"`
	Price       float64   `gorm:"column:price;type:double precision;not null"`
	RecordedAt  time.Time `gorm:"column:recorded_at;type:timestamptz;not null;default:now()"`
}

func (PriceHistory) TableName() string { return "catalog.price_history" }

// PriceList maps catalog.price_lists.
type PriceList struct {
	PriceListID     int64     `gorm:"column:price_list_id;primaryKey;autoIncrement"`
	PriceListUUID   string    `gorm:"column:price_list_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	ListRetail      string    `gorm:"column:list_retail;type:text;not null"`
	ListReseller    string    `gorm:"column:list_reseller;type:text;not null"`
	TotalProducts   int       `gorm:"column:total_products;type:integer;not null;default:0"`
	TotalCategories int       `gorm:"column:total_categories;type:integer;not null;default:0"`
	GeneratedAt     time.Time `gorm:"column:generated_at;type:timestamptz;not null;default:now()"`
}

func (PriceList) TableName() string { return "catalog.price_lists" }

func autoMigrateModels() []any {
	return []any{
		&RawMessage{},
		&Provider{},
		&Category{},
		&ProductUnique{},
		&PriceHistory{},
		&PriceList{},
	}
}
