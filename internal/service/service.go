package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bukutoko/backend/internal/domain"
	"bukutoko/backend/internal/report"
	"bukutoko/backend/internal/store"
	"bukutoko/backend/internal/xid"
)

// ErrOwnerRequired is returned when a staff actor calls a management
// operation.
var ErrOwnerRequired = errors.New("owner role required")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo store.Repository
}

func New(repo store.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) requireOwner(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleOwner {
		return ErrOwnerRequired
	}
	return nil
}

// ListProducts returns the catalog, filtered by a case-insensitive name
// substring when query is non-empty.
func (s *Service) ListProducts(ctx context.Context, query string) ([]domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return s.repo.ListProducts(ctx)
	}
	return s.repo.FindProductsByName(ctx, query)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := s.requireOwner(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Product{}, store.ErrInvalidRecord
	}
	if req.Quantity < 0 || req.CostCents < 1 {
		return domain.Product{}, store.ErrInvalidAmount
	}
	if req.PriceCents <= req.CostCents {
		return domain.Product{}, store.ErrInvalidPrice
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:       req.Name,
		Quantity:   req.Quantity,
		CostCents:  req.CostCents,
		PriceCents: req.PriceCents,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,cost=%d,price=%d,qty=%d", created.Name, created.CostCents, created.PriceCents, created.Quantity))
	return *created, nil
}

// UpdateProduct applies a partial edit to name, cost, or price. Quantity is
// never touched here: stock moves only through restock, sale, edit, and
// delete flows.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := s.requireOwner(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidRecord
		}
		updated.Name = name
	}
	if req.CostCents != nil {
		if *req.CostCents < 1 {
			return domain.Product{}, store.ErrInvalidAmount
		}
		updated.CostCents = *req.CostCents
	}
	if req.PriceCents != nil {
		updated.PriceCents = *req.PriceCents
	}
	if updated.PriceCents <= updated.CostCents {
		return domain.Product{}, store.ErrInvalidPrice
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("name=%s,cost=%d,price=%d", saved.Name, saved.CostCents, saved.PriceCents))
	return *saved, nil
}

// DeleteProduct removes a product. A stale identifier is a silent no-op.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func (s *Service) RestockProduct(ctx context.Context, id string, amount int) (domain.Product, error) {
	if err := s.requireOwner(ctx); err != nil {
		return domain.Product{}, err
	}
	if amount < 1 {
		return domain.Product{}, store.ErrInvalidAmount
	}

	product, err := s.repo.AdjustQuantity(ctx, id, amount)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_restock", "product", product.ID, fmt.Sprintf("amount=%d,quantity=%d", amount, product.Quantity))
	return *product, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func normalizeSaleRequest(req domain.SaleCreateRequest) (domain.Sale, error) {
	paymentType := strings.ToLower(strings.TrimSpace(req.PaymentType))
	if paymentType == "" {
		paymentType = domain.PaymentTypeCash
	}
	if paymentType != domain.PaymentTypeCash && paymentType != domain.PaymentTypeCredit {
		return domain.Sale{}, store.ErrInvalidRecord
	}
	return domain.Sale{
		ProductID:    strings.TrimSpace(req.ProductID),
		Quantity:     req.Quantity,
		PriceCents:   req.PriceCents,
		PaymentType:  paymentType,
		CustomerName: strings.TrimSpace(req.CustomerName),
	}, nil
}

// CreateSale validates and commits a sale. The store enforces the
// precondition order (product, price, stock, customer) and deducts stock
// together with appending the record.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	sale, err := normalizeSaleRequest(req)
	if err != nil {
		return domain.Sale{}, err
	}

	committed, err := s.repo.CommitSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_create", "sale", committed.ID, fmt.Sprintf("product=%s,qty=%d,total=%d,payment=%s", committed.ProductName, committed.Quantity, committed.TotalCents, committed.PaymentType))
	return *committed, nil
}

// EditSale replaces a recorded sale wholesale: the original is reversed and
// the replacement committed as one atomic step, validated against inventory
// as it stands after the reversal. The sale keeps its identifier but loses
// all payment progress, re-entering as a fresh cash or credit sale.
func (s *Service) EditSale(ctx context.Context, id string, req domain.SaleCreateRequest) (domain.Sale, error) {
	next, err := normalizeSaleRequest(req)
	if err != nil {
		return domain.Sale{}, err
	}

	replaced, err := s.repo.ReplaceSale(ctx, id, next)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_edit", "sale", replaced.ID, fmt.Sprintf("product=%s,qty=%d,total=%d,payment=%s", replaced.ProductName, replaced.Quantity, replaced.TotalCents, replaced.PaymentType))
	return *replaced, nil
}

// DeleteSale reverses the sale's stock deduction and removes the record.
// A stale identifier is a silent no-op.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	removed, err := s.repo.ReverseSale(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	s.logAudit(ctx, "sale_delete", "sale", removed.ID, fmt.Sprintf("product=%s,qty=%d,restored=%d", removed.ProductName, removed.Quantity, removed.Quantity))
	return nil
}

// CreditAccounts groups credit sales by customer with their remaining
// balances. The view is recomputed from the sales collection on every call;
// customers appear in first-sale order.
func (s *Service) CreditAccounts(ctx context.Context) ([]domain.CreditAccount, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}

	byCustomer := map[string]*domain.CreditAccount{}
	order := make([]string, 0, 8)
	for _, sale := range sales {
		if sale.PaymentType != domain.PaymentTypeCredit {
			continue
		}
		account, seen := byCustomer[sale.CustomerName]
		if !seen {
			account = &domain.CreditAccount{CustomerName: sale.CustomerName}
			byCustomer[sale.CustomerName] = account
			order = append(order, sale.CustomerName)
		}
		account.OutstandingCents += sale.BalanceCents
		if sale.BalanceCents > 0 {
			account.OpenSales++
		}
	}

	accounts := make([]domain.CreditAccount, 0, len(order))
	for _, customer := range order {
		account := byCustomer[customer]
		if account.OutstandingCents == 0 {
			account.Status = domain.SaleStatusPaid
		} else {
			account.Status = domain.SaleStatusUnpaid
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

// RecordPayment settles a customer's outstanding credit sales oldest-first.
func (s *Service) RecordPayment(ctx context.Context, req domain.PaymentRequest) (domain.Payment, error) {
	if req.AmountCents < 1 {
		return domain.Payment{}, store.ErrInvalidAmount
	}
	customer := strings.TrimSpace(req.CustomerName)
	if customer == "" {
		return domain.Payment{}, store.ErrInvalidRecord
	}

	payment, err := s.repo.ApplyPayment(ctx, customer, req.AmountCents)
	if err != nil {
		return domain.Payment{}, err
	}

	s.logAudit(ctx, "payment_record", "payment", payment.ID, fmt.Sprintf("customer=%s,amount=%d,applied=%d,sales=%d", payment.CustomerName, payment.AmountCents, payment.AppliedCents, len(payment.Allocations)))
	return *payment, nil
}

func (s *Service) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	return s.repo.ListPayments(ctx)
}

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	if err := s.requireOwner(ctx); err != nil {
		return domain.Expense{}, err
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return domain.Expense{}, store.ErrInvalidRecord
	}
	if req.AmountCents < 1 {
		return domain.Expense{}, store.ErrInvalidAmount
	}

	created, err := s.repo.CreateExpense(ctx, domain.Expense{
		Title:       req.Title,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, "expense_create", "expense", created.ID, fmt.Sprintf("title=%s,amount=%d", created.Title, created.AmountCents))
	return *created, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseUpdateRequest) (domain.Expense, error) {
	if err := s.requireOwner(ctx); err != nil {
		return domain.Expense{}, err
	}

	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return domain.Expense{}, err
	}
	var existing *domain.Expense
	for i := range expenses {
		if expenses[i].ID == id {
			existing = &expenses[i]
			break
		}
	}
	if existing == nil {
		return domain.Expense{}, store.ErrNotFound
	}

	updated := *existing
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return domain.Expense{}, store.ErrInvalidRecord
		}
		updated.Title = title
	}
	if req.AmountCents != nil {
		if *req.AmountCents < 1 {
			return domain.Expense{}, store.ErrInvalidAmount
		}
		updated.AmountCents = *req.AmountCents
	}

	saved, err := s.repo.UpdateExpense(ctx, updated)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, "expense_update", "expense", saved.ID, fmt.Sprintf("title=%s,amount=%d", saved.Title, saved.AmountCents))
	return *saved, nil
}

// DeleteExpense removes an expense. A stale identifier is a silent no-op.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}

	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	s.logAudit(ctx, "expense_delete", "expense", id, "")
	return nil
}

// Report recomputes the financial summary from the raw collections. No
// figure is cached between calls.
func (s *Service) Report(ctx context.Context) (domain.ReportSnapshot, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.ReportSnapshot{}, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.ReportSnapshot{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return domain.ReportSnapshot{}, err
	}

	return report.Compute(products, sales, expenses), nil
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if err := s.requireOwner(ctx); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.AppendAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}
