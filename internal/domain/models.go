package domain

import "time"

// All monetary values are stored in minor units (cents).

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	CostCents  int64     `json:"cost_cents"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	CostCents  int64  `json:"cost_cents"`
	PriceCents int64  `json:"price_cents"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	CostCents  *int64  `json:"cost_cents,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
}

type RestockRequest struct {
	Amount int `json:"amount"`
}

// Sale snapshots the product name and unit cost at commit time; reports join
// back to products by name, so the snapshot is what historical COGS sees.
type Sale struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	PriceCents   int64     `json:"price_cents"`
	TotalCents   int64     `json:"total_cents"`
	CostCents    int64     `json:"cost_cents"`
	PaymentType  string    `json:"payment_type"`
	CustomerName string    `json:"customer_name,omitempty"`
	PaidCents    int64     `json:"paid_cents"`
	BalanceCents int64     `json:"balance_cents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type SaleCreateRequest struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PriceCents   int64  `json:"price_cents"`
	PaymentType  string `json:"payment_type"`
	CustomerName string `json:"customer_name,omitempty"`
}

type Expense struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
}

type ExpenseUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	AmountCents *int64  `json:"amount_cents,omitempty"`
}

// Payment records one settlement run against a customer's outstanding credit
// sales. AppliedCents never exceeds AmountCents; any overpayment is dropped.
type Payment struct {
	ID           string              `json:"id"`
	CustomerName string              `json:"customer_name"`
	AmountCents  int64               `json:"amount_cents"`
	AppliedCents int64               `json:"applied_cents"`
	Allocations  []PaymentAllocation `json:"allocations"`
	CreatedAt    time.Time           `json:"created_at"`
}

type PaymentAllocation struct {
	SaleID      string `json:"sale_id"`
	AmountCents int64  `json:"amount_cents"`
}

type PaymentRequest struct {
	CustomerName string `json:"customer_name"`
	AmountCents  int64  `json:"amount_cents"`
}

// CreditAccount is a derived view, recomputed on every query.
type CreditAccount struct {
	CustomerName     string `json:"customer_name"`
	OutstandingCents int64  `json:"outstanding_cents"`
	OpenSales        int    `json:"open_sales"`
	Status           string `json:"status"`
}

// ReportSnapshot is a pure function of the current collections.
type ReportSnapshot struct {
	RevenueCents     int64  `json:"revenue_cents"`
	CostCents        int64  `json:"cost_cents"`
	GrossProfitCents int64  `json:"gross_profit_cents"`
	ExpenseCents     int64  `json:"expense_cents"`
	NetProfitCents   int64  `json:"net_profit_cents"`
	TopProduct       string `json:"top_product"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	PaymentTypeCash   = "cash"
	PaymentTypeCredit = "credit"
)

const (
	SaleStatusPaid    = "Paid"
	SaleStatusUnpaid  = "Unpaid"
	SaleStatusPartial = "Partial"
)

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// TopProductNone is reported when no sales exist.
const TopProductNone = "none"
