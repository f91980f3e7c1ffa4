package store

import (
	"context"
	"errors"

	"tokomaju/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository is the persistence boundary. Implementations must return defensive
// copies so callers can never mutate stored state through a returned value.
type Repository interface {
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id int64) error

	ListInventory(ctx context.Context) ([]domain.InventoryItem, error)
	ListInventoryByCategory(ctx context.Context, category string) ([]domain.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, delta int) (*domain.InventoryItem, error)

	ListDebts(ctx context.Context) ([]domain.Debt, error)
	GetDebt(ctx context.Context, id int64) (*domain.Debt, error)
	CreateDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error)
	UpdateDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error)
	DeleteDebt(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
