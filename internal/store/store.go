package store

import (
	"context"
	"errors"

	"bukutoko/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPrice      = errors.New("selling price must be above cost price")
	ErrMissingCustomer   = errors.New("customer name required for credit sale")
	ErrNoProductSelected = errors.New("no product selected")
	ErrInvalidRecord     = errors.New("invalid record")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	FindProductsByName(ctx context.Context, query string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AdjustQuantity(ctx context.Context, productID string, delta int) (*domain.Product, error)

	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	CommitSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ReplaceSale(ctx context.Context, originalID string, next domain.Sale) (*domain.Sale, error)
	ReverseSale(ctx context.Context, id string) (*domain.Sale, error)

	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	ListPayments(ctx context.Context) ([]domain.Payment, error)
	ApplyPayment(ctx context.Context, customerName string, amountCents int64) (*domain.Payment, error)

	AppendAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
