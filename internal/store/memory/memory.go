package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bukutoko/backend/internal/domain"
	"bukutoko/backend/internal/kv"
	"bukutoko/backend/internal/store"
	"bukutoko/backend/internal/xid"
)

// Store holds the engine's in-memory mirrors of the persisted collections.
// Collections are kept as ordered slices: settlement order and report
// tie-breaks follow insertion order. Every mutating method runs under one
// write lock and snapshots the affected collections back to the KV
// collaborator before returning.
type Store struct {
	mu              sync.RWMutex
	persist         kv.Store
	products        []domain.Product
	sales           []domain.Sale
	expenses        []domain.Expense
	payments        []domain.Payment
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// New builds a store backed by the given KV collaborator. Missing collection
// keys are initialized to empty sequences before the first read; each
// collection is read exactly once here and mirrored in memory afterwards.
func New(ctx context.Context, persist kv.Store) (*Store, error) {
	s := &Store{
		persist:         persist,
		usersByUsername: seedUsers(),
	}
	if persist == nil {
		return s, nil
	}

	if err := kv.Init(ctx, persist); err != nil {
		return nil, fmt.Errorf("init collections: %w", err)
	}
	if err := loadJSON(ctx, persist, kv.KeyProducts, &s.products); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, persist, kv.KeySales, &s.sales); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, persist, kv.KeyExpenses, &s.expenses); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, persist, kv.KeyPayments, &s.payments); err != nil {
		return nil, err
	}
	return s, nil
}

func loadJSON(ctx context.Context, persist kv.Store, key string, dest any) error {
	raw, err := persist.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// NewSeeded builds a volatile store with demo data for dev mode.
func NewSeeded() *Store {
	now := time.Now().UTC()
	products := []domain.Product{
		{ID: "prod-beras-01", Name: "Beras 5kg", Quantity: 40, CostCents: 6200000, PriceCents: 6800000, CreatedAt: now},
		{ID: "prod-minyak-01", Name: "Minyak Goreng 1L", Quantity: 60, CostCents: 1550000, PriceCents: 1800000, CreatedAt: now},
		{ID: "prod-gula-01", Name: "Gula 1kg", Quantity: 50, CostCents: 1500000, PriceCents: 1740000, CreatedAt: now},
		{ID: "prod-kopi-01", Name: "Kopi Bubuk 200g", Quantity: 35, CostCents: 1100000, PriceCents: 1400000, CreatedAt: now},
		{ID: "prod-telur-01", Name: "Telur 10 Butir", Quantity: 45, CostCents: 2300000, PriceCents: 2650000, CreatedAt: now},
		{ID: "prod-sabun-01", Name: "Sabun Mandi", Quantity: 80, CostCents: 500000, PriceCents: 740000, CreatedAt: now},
	}
	expenses := []domain.Expense{
		{ID: "exp-sewa-01", Title: "Sewa kios", AmountCents: 50000000, CreatedAt: now},
		{ID: "exp-listrik-01", Title: "Listrik bulanan", AmountCents: 7500000, CreatedAt: now},
	}

	return &Store{
		products:        products,
		expenses:        expenses,
		usersByUsername: seedUsers(),
	}
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_OWNER_PASSWORD and SEED_STAFF_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout.
func seedUsers() map[string]domain.UserAccount {
	ownerPwd := envOr("SEED_OWNER_PASSWORD", "owner123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_OWNER_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"owner", ownerPwd, domain.RoleOwner},
		{"staff", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// snapshotLocked writes the named collections back to the KV collaborator.
// Must be called with the write lock held. Write failures are logged, not
// propagated: the in-memory state is authoritative for the process lifetime
// and persistence-layer faults must not fail an already-committed operation.
func (s *Store) snapshotLocked(ctx context.Context, keys ...string) {
	if s.persist == nil {
		return
	}
	for _, key := range keys {
		var payload any
		switch key {
		case kv.KeyProducts:
			payload = s.products
		case kv.KeySales:
			payload = s.sales
		case kv.KeyExpenses:
			payload = s.expenses
		case kv.KeyPayments:
			payload = s.payments
		default:
			continue
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[memory-store] WARN: encode %s: %v", key, err)
			continue
		}
		if err := s.persist.Set(ctx, key, raw); err != nil {
			log.Printf("[memory-store] WARN: persist %s: %v", key, err)
		}
	}
}

func validProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return store.ErrInvalidRecord
	}
	if p.Quantity < 0 {
		return store.ErrInvalidAmount
	}
	if p.CostCents < 1 {
		return store.ErrInvalidAmount
	}
	if p.PriceCents <= p.CostCents {
		return store.ErrInvalidPrice
	}
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, len(s.products))
	copy(products, s.products)
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindProductsByName(_ context.Context, query string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	matches := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := validProduct(product); err != nil {
		return nil, err
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.ID == product.ID {
			return nil, store.ErrInvalidRecord
		}
	}
	s.products = append(s.products, product)
	s.snapshotLocked(ctx, kv.KeyProducts)

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := validProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID != product.ID {
			continue
		}
		if product.CreatedAt.IsZero() {
			product.CreatedAt = s.products[i].CreatedAt
		}
		s.products[i] = product
		s.snapshotLocked(ctx, kv.KeyProducts)
		updated := product
		return &updated, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID != id {
			continue
		}
		s.products = append(s.products[:i], s.products[i+1:]...)
		s.snapshotLocked(ctx, kv.KeyProducts)
		return nil
	}
	return store.ErrNotFound
}

// AdjustQuantity applies a stock delta, rejecting any result below zero
// before committing.
func (s *Store) AdjustQuantity(ctx context.Context, productID string, delta int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID != productID {
			continue
		}
		next := s.products[i].Quantity + delta
		if next < 0 {
			return nil, store.ErrInsufficientStock
		}
		s.products[i].Quantity = next
		s.snapshotLocked(ctx, kv.KeyProducts)
		adjusted := s.products[i]
		return &adjusted, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, len(s.sales))
	copy(sales, s.sales)
	return sales, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sale := range s.sales {
		if sale.ID == id {
			found := sale
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

// validateSaleLocked runs the commit preconditions against the given
// available stock level and returns the resolved product. Check order is
// observable behavior: product, price, stock, customer.
func (s *Store) validateSaleLocked(sale domain.Sale, available func(p *domain.Product) int) (*domain.Product, error) {
	if sale.ProductID == "" {
		return nil, store.ErrNoProductSelected
	}
	var product *domain.Product
	for i := range s.products {
		if s.products[i].ID == sale.ProductID {
			product = &s.products[i]
			break
		}
	}
	if product == nil {
		return nil, store.ErrNoProductSelected
	}
	if sale.Quantity < 1 {
		return nil, store.ErrInvalidAmount
	}
	if sale.PriceCents <= product.CostCents {
		return nil, store.ErrInvalidPrice
	}
	if sale.Quantity > available(product) {
		return nil, store.ErrInsufficientStock
	}
	if sale.PaymentType == domain.PaymentTypeCredit && strings.TrimSpace(sale.CustomerName) == "" {
		return nil, store.ErrMissingCustomer
	}
	return product, nil
}

// finalizeSale snapshots the product, computes the total, and derives the
// payment fields from the payment type.
func finalizeSale(sale domain.Sale, product *domain.Product) domain.Sale {
	sale.ProductName = product.Name
	sale.CostCents = product.CostCents
	sale.TotalCents = sale.PriceCents * int64(sale.Quantity)
	if sale.PaymentType == domain.PaymentTypeCredit {
		sale.CustomerName = strings.TrimSpace(sale.CustomerName)
		sale.PaidCents = 0
		sale.BalanceCents = sale.TotalCents
		sale.Status = domain.SaleStatusUnpaid
	} else {
		sale.PaymentType = domain.PaymentTypeCash
		sale.CustomerName = ""
		sale.PaidCents = sale.TotalCents
		sale.BalanceCents = 0
		sale.Status = domain.SaleStatusPaid
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	return sale
}

// CommitSale validates and commits a sale as one unit: the stock deduction
// and the sale record are never observable apart.
func (s *Store) CommitSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.validateSaleLocked(sale, func(p *domain.Product) int { return p.Quantity })
	if err != nil {
		return nil, err
	}

	sale = finalizeSale(sale, product)
	product.Quantity -= sale.Quantity
	s.sales = append(s.sales, sale)
	s.snapshotLocked(ctx, kv.KeyProducts, kv.KeySales)

	committed := sale
	return &committed, nil
}

// ReplaceSale reverses the original sale and commits the replacement in one
// step. The replacement is validated against post-reversal inventory, so a
// quantity edit only needs the restored stock to cover it. Validation
// failures leave the original sale and all stock untouched.
func (s *Store) ReplaceSale(ctx context.Context, originalID string, next domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	origIdx := -1
	for i := range s.sales {
		if s.sales[i].ID == originalID {
			origIdx = i
			break
		}
	}
	if origIdx < 0 {
		return nil, store.ErrNotFound
	}
	orig := s.sales[origIdx]

	product, err := s.validateSaleLocked(next, func(p *domain.Product) int {
		if p.ID == orig.ProductID {
			return p.Quantity + orig.Quantity
		}
		return p.Quantity
	})
	if err != nil {
		return nil, err
	}

	// Reverse the original deduction; the product may have been deleted
	// since the sale was recorded, in which case there is nothing to
	// restore into.
	for i := range s.products {
		if s.products[i].ID == orig.ProductID {
			s.products[i].Quantity += orig.Quantity
			break
		}
	}

	if next.ID == "" {
		next.ID = orig.ID
	}
	next = finalizeSale(next, product)
	product.Quantity -= next.Quantity

	// The edited record re-enters at the end of the collection, exactly as
	// a delete followed by a fresh commit would place it.
	s.sales = append(s.sales[:origIdx], s.sales[origIdx+1:]...)
	s.sales = append(s.sales, next)
	s.snapshotLocked(ctx, kv.KeyProducts, kv.KeySales)

	replaced := next
	return &replaced, nil
}

// ReverseSale restores the sale's stock deduction and removes the record.
// Both steps happen under one lock; neither is observable alone.
func (s *Store) ReverseSale(ctx context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sales {
		if s.sales[i].ID != id {
			continue
		}
		removed := s.sales[i]
		for j := range s.products {
			if s.products[j].ID == removed.ProductID {
				s.products[j].Quantity += removed.Quantity
				break
			}
		}
		s.sales = append(s.sales[:i], s.sales[i+1:]...)
		s.snapshotLocked(ctx, kv.KeyProducts, kv.KeySales)
		return &removed, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, len(s.expenses))
	copy(expenses, s.expenses)
	return expenses, nil
}

func validExpense(e domain.Expense) error {
	if strings.TrimSpace(e.Title) == "" {
		return store.ErrInvalidRecord
	}
	if e.AmountCents < 1 {
		return store.ErrInvalidAmount
	}
	return nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if err := validExpense(expense); err != nil {
		return nil, err
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses = append(s.expenses, expense)
	s.snapshotLocked(ctx, kv.KeyExpenses)

	created := expense
	return &created, nil
}

func (s *Store) UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if err := validExpense(expense); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID != expense.ID {
			continue
		}
		if expense.CreatedAt.IsZero() {
			expense.CreatedAt = s.expenses[i].CreatedAt
		}
		s.expenses[i] = expense
		s.snapshotLocked(ctx, kv.KeyExpenses)
		updated := expense
		return &updated, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID != id {
			continue
		}
		s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
		s.snapshotLocked(ctx, kv.KeyExpenses)
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) ListPayments(_ context.Context) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payments := make([]domain.Payment, len(s.payments))
	copy(payments, s.payments)
	return payments, nil
}

// ApplyPayment allocates the amount across the customer's outstanding credit
// sales first-in-first-out: sales are visited in collection order, each fully
// settled before the next is touched. Whatever exceeds the customer's total
// outstanding balance is dropped, recorded only as the difference between
// the payment's amount and its applied total.
func (s *Store) ApplyPayment(ctx context.Context, customerName string, amountCents int64) (*domain.Payment, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, store.ErrInvalidRecord
	}
	if amountCents < 1 {
		return nil, store.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payment := domain.Payment{
		ID:           xid.New("pay"),
		CustomerName: customerName,
		AmountCents:  amountCents,
		Allocations:  []domain.PaymentAllocation{},
		CreatedAt:    time.Now().UTC(),
	}

	remaining := amountCents
	for i := range s.sales {
		if remaining == 0 {
			break
		}
		sale := &s.sales[i]
		if sale.PaymentType != domain.PaymentTypeCredit || sale.CustomerName != customerName || sale.BalanceCents == 0 {
			continue
		}

		applied := sale.BalanceCents
		if applied > remaining {
			applied = remaining
		}
		sale.PaidCents += applied
		sale.BalanceCents -= applied
		if sale.BalanceCents == 0 {
			sale.Status = domain.SaleStatusPaid
		} else {
			sale.Status = domain.SaleStatusPartial
		}
		remaining -= applied
		payment.Allocations = append(payment.Allocations, domain.PaymentAllocation{
			SaleID:      sale.ID,
			AmountCents: applied,
		})
	}

	payment.AppliedCents = amountCents - remaining
	s.payments = append(s.payments, payment)
	s.snapshotLocked(ctx, kv.KeySales, kv.KeyPayments)

	recorded := payment
	return &recorded, nil
}

func (s *Store) AppendAuditLog(_ context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 || limit > len(s.auditLogs) {
		limit = len(s.auditLogs)
	}

	// Latest first.
	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.auditLogs[i])
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidRecord
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
