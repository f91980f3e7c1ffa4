package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokomaju/backend/internal/domain"
	"tokomaju/backend/internal/store"
)

// Store is an in-memory Repository for dev/demo mode and tests. IDs are
// assigned from per-entity counters, so ascending ID order is insertion
// order.
type Store struct {
	mu        sync.RWMutex
	sales     map[int64]domain.Sale
	inventory map[int64]domain.InventoryItem
	debts     map[int64]domain.Debt
	suppliers map[int64]domain.Supplier
	users     map[string]domain.UserAccount

	nextSaleID      int64
	nextInventoryID int64
	nextDebtID      int64
	nextSupplierID  int64
}

func New() *Store {
	return &Store{
		sales:     make(map[int64]domain.Sale),
		inventory: make(map[int64]domain.InventoryItem),
		debts:     make(map[int64]domain.Debt),
		suppliers: make(map[int64]domain.Supplier),
		users:     seedUsers(),
	}
}

// seedUsers builds the initial user accounts for dev/demo mode. Credentials
// come from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD; unset variables fall
// back to hardcoded dev defaults with a warning. Production deployments use
// PostgreSQL and never reach this path.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		email    string
		password string
		role     string
	}{
		{"admin", "admin@tokomaju.local", adminPwd, domain.RoleAdmin},
		{"staff", "staff@tokomaju.local", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Email:     u.email,
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

// NewSeeded returns a store pre-populated with demo shop data.
func NewSeeded() *Store {
	s := New()

	items := []domain.InventoryItem{
		{Name: "Rice 5kg", Category: "grocery", StockQuantity: 40, Unit: "bag", CostPrice: 520000, SellingPrice: 620000, Supplier: "Sumber Pangan", StockAlertLevel: 10},
		{Name: "Cooking Oil 1L", Category: "grocery", StockQuantity: 25, Unit: "bottle", CostPrice: 140000, SellingPrice: 175000, Supplier: "Sumber Pangan", StockAlertLevel: 8},
		{Name: "Instant Noodles", Category: "grocery", StockQuantity: 120, Unit: "pcs", CostPrice: 2500, SellingPrice: 3500, Supplier: "Distributor Jaya", StockAlertLevel: 30},
		{Name: "UHT Milk 1L", Category: "dairy", StockQuantity: 18, Unit: "carton", CostPrice: 145000, SellingPrice: 189000, Supplier: "Dairy Nusantara", StockAlertLevel: 12},
		{Name: "Bath Soap", Category: "hygiene", StockQuantity: 6, Unit: "pcs", CostPrice: 52000, SellingPrice: 74000, Supplier: "Distributor Jaya", StockAlertLevel: 10},
		{Name: "Ground Coffee 250g", Category: "beverage", StockQuantity: 30, Unit: "pack", CostPrice: 210000, SellingPrice: 280000, Supplier: "Kopi Makmur", StockAlertLevel: 8},
	}
	suppliers := []domain.Supplier{
		{Name: "Sumber Pangan", Category: "grocery", ContactPerson: "Hendra", PhoneNumber: "+62-812-1111-0001", Email: "order@sumberpangan.example", Address: "Jl. Pasar Induk 12", City: "Bandung", State: "Jawa Barat", PostalCode: "40111", Country: "Indonesia", Active: true},
		{Name: "Distributor Jaya", Category: "general", ContactPerson: "Sari", PhoneNumber: "+62-812-1111-0002", Email: "sales@distributorjaya.example", Address: "Jl. Raya Timur 88", City: "Jakarta", State: "DKI Jakarta", PostalCode: "13210", Country: "Indonesia", Active: true},
		{Name: "Kopi Makmur", Category: "beverage", ContactPerson: "Budi", PhoneNumber: "+62-812-1111-0003", Email: "halo@kopimakmur.example", Address: "Jl. Aroma 3", City: "Medan", State: "Sumatera Utara", PostalCode: "20111", Country: "Indonesia", Active: true},
	}

	now := time.Now().UTC()
	sales := []domain.Sale{
		{ProductID: 3, QuantitySold: 10, TotalAmount: 35000, SaleDate: now.AddDate(0, 0, -2)},
		{ProductID: 1, QuantitySold: 2, TotalAmount: 1240000, SaleDate: now.AddDate(0, 0, -1)},
		{ProductID: 6, QuantitySold: 3, TotalAmount: 840000, SaleDate: now},
	}
	debts := []domain.Debt{
		{CustomerName: "Warung Ibu Ani", Amount: 450000, CreatedDate: now.AddDate(0, 0, -10), DueDate: now.AddDate(0, 0, -3)},
		{CustomerName: "Pak Dedi", Amount: 275000, CreatedDate: now.AddDate(0, 0, -5), DueDate: now.AddDate(0, 0, 2)},
		{CustomerName: "Toko Sebelah", Amount: 180000, CreatedDate: now.AddDate(0, 0, -20), DueDate: now.AddDate(0, 0, -15), Paid: true},
	}

	ctx := context.Background()
	for _, item := range items {
		if _, err := s.CreateInventoryItem(ctx, item); err != nil {
			log.Fatalf("[memory-store] seed inventory: %v", err)
		}
	}
	for _, supplier := range suppliers {
		if _, err := s.CreateSupplier(ctx, supplier); err != nil {
			log.Fatalf("[memory-store] seed supplier: %v", err)
		}
	}
	for _, sale := range sales {
		if _, err := s.createSaleRaw(sale); err != nil {
			log.Fatalf("[memory-store] seed sale: %v", err)
		}
	}
	for _, debt := range debts {
		if _, err := s.CreateDebt(ctx, debt); err != nil {
			log.Fatalf("[memory-store] seed debt: %v", err)
		}
	}
	return s
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		return cmpInt64(a.ID, b.ID)
	})
	return sales, nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := sale
	return &copySale, nil
}

// CreateSale records the sale and decrements the product's stock in one
// critical section. The product must exist and carry enough stock.
func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ProductID < 1 || sale.QuantitySold < 1 || sale.TotalAmount < 0 {
		return nil, store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.inventory[sale.ProductID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if item.StockQuantity < sale.QuantitySold {
		return nil, store.ErrInsufficientStock
	}
	item.StockQuantity -= sale.QuantitySold
	s.inventory[item.ID] = item

	return s.insertSaleLocked(sale)
}

// createSaleRaw bypasses stock checks; seed data only.
func (s *Store) createSaleRaw(sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertSaleLocked(sale)
}

func (s *Store) insertSaleLocked(sale domain.Sale) (*domain.Sale, error) {
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}
	s.nextSaleID++
	sale.ID = s.nextSaleID
	s.sales[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) DeleteSale(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.sales, id)
	return nil
}

func (s *Store) ListInventory(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(s.inventory))
	for _, item := range s.inventory {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.InventoryItem) int {
		return cmpInt64(a.ID, b.ID)
	})
	return items, nil
}

func (s *Store) ListInventoryByCategory(_ context.Context, category string) ([]domain.InventoryItem, error) {
	category = strings.ToLower(strings.TrimSpace(category))

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0)
	for _, item := range s.inventory {
		if strings.ToLower(item.Category) != category {
			continue
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.InventoryItem) int {
		return cmpInt64(a.ID, b.ID)
	})
	return items, nil
}

func (s *Store) GetInventoryItem(_ context.Context, id int64) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.inventory[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

func (s *Store) CreateInventoryItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" || item.Category == "" || item.Unit == "" {
		return nil, store.ErrInvalidEntity
	}
	if item.StockQuantity < 0 || item.CostPrice < 0 || item.SellingPrice < 0 || item.StockAlertLevel < 0 {
		return nil, store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextInventoryID++
	item.ID = s.nextInventoryID
	s.inventory[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) UpdateInventoryItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" || item.Category == "" || item.Unit == "" {
		return nil, store.ErrInvalidEntity
	}
	if item.StockQuantity < 0 || item.CostPrice < 0 || item.SellingPrice < 0 || item.StockAlertLevel < 0 {
		return nil, store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.inventory[item.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.inventory[item.ID] = item
	updated := item
	return &updated, nil
}

// DeleteInventoryItem removes the item. Sales referencing it survive as
// stale references and are handled downstream by the join.
func (s *Store) DeleteInventoryItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.inventory[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.inventory, id)
	return nil
}

func (s *Store) AdjustStock(_ context.Context, id int64, delta int) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.inventory[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if item.StockQuantity+delta < 0 {
		return nil, store.ErrInsufficientStock
	}
	item.StockQuantity += delta
	s.inventory[id] = item
	copyItem := item
	return &copyItem, nil
}

func (s *Store) ListDebts(_ context.Context) ([]domain.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debts := make([]domain.Debt, 0, len(s.debts))
	for _, debt := range s.debts {
		debts = append(debts, debt)
	}
	slices.SortFunc(debts, func(a, b domain.Debt) int {
		return cmpInt64(a.ID, b.ID)
	})
	return debts, nil
}

func (s *Store) GetDebt(_ context.Context, id int64) (*domain.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debt, exists := s.debts[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyDebt := debt
	return &copyDebt, nil
}

func (s *Store) CreateDebt(_ context.Context, debt domain.Debt) (*domain.Debt, error) {
	debt.CustomerName = strings.TrimSpace(debt.CustomerName)
	if debt.CustomerName == "" || debt.Amount < 1 || debt.DueDate.IsZero() {
		return nil, store.ErrInvalidEntity
	}
	if debt.CreatedDate.IsZero() {
		debt.CreatedDate = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDebtID++
	debt.ID = s.nextDebtID
	s.debts[debt.ID] = debt
	created := debt
	return &created, nil
}

func (s *Store) UpdateDebt(_ context.Context, debt domain.Debt) (*domain.Debt, error) {
	debt.CustomerName = strings.TrimSpace(debt.CustomerName)
	if debt.CustomerName == "" || debt.Amount < 1 || debt.DueDate.IsZero() {
		return nil, store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.debts[debt.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	debt.CreatedDate = existing.CreatedDate
	s.debts[debt.ID] = debt
	updated := debt
	return &updated, nil
}

func (s *Store) DeleteDebt(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.debts[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.debts, id)
	return nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, supplier := range s.suppliers {
		suppliers = append(suppliers, supplier)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return cmpInt64(a.ID, b.ID)
	})
	return suppliers, nil
}

func (s *Store) GetSupplier(_ context.Context, id int64) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSupplierID++
	supplier.ID = s.nextSupplierID
	s.suppliers[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliers[supplier.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.suppliers[supplier.ID] = supplier
	updated := supplier
	return &updated, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliers[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.suppliers, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidEntity
	}
	if _, exists := s.users[username]; exists {
		return store.ErrInvalidEntity
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.users[user.Username] = user
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[strings.ToLower(strings.TrimSpace(username))]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidEntity
	}
	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}

func cmpInt64(a, b int64) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
