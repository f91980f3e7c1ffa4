package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tokomaju/backend/internal/domain"
	"tokomaju/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, quantity_sold, total_amount_cents, sale_date
		FROM sales
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 128)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.ProductID, &sale.QuantitySold, &sale.TotalAmount, &sale.SaleDate); err != nil {
			return nil, err
		}
		sale.SaleDate = sale.SaleDate.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, quantity_sold, total_amount_cents, sale_date
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.ProductID, &sale.QuantitySold, &sale.TotalAmount, &sale.SaleDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.SaleDate = sale.SaleDate.UTC()
	return &sale, nil
}

// CreateSale inserts the sale and decrements the product's stock in one
// serializable transaction, so two concurrent sales can never oversell.
func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ProductID < 1 || sale.QuantitySold < 1 || sale.TotalAmount < 0 {
		return nil, store.ErrInvalidEntity
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
	`, sale.ProductID, sale.QuantitySold)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_items WHERE id = $1)`, sale.ProductID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrInsufficientStock
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO sales (product_id, quantity_sold, total_amount_cents, sale_date)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, sale.ProductID, sale.QuantitySold, sale.TotalAmount, sale.SaleDate).Scan(&sale.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := sale
	return &created, nil
}

func (s *Store) DeleteSale(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.queryInventory(ctx, `
		SELECT id, name, category, stock_quantity, unit, cost_price_cents,
			selling_price_cents, supplier, stock_alert_level, image_url
		FROM inventory_items
		ORDER BY id
	`)
}

func (s *Store) ListInventoryByCategory(ctx context.Context, category string) ([]domain.InventoryItem, error) {
	return s.queryInventory(ctx, `
		SELECT id, name, category, stock_quantity, unit, cost_price_cents,
			selling_price_cents, supplier, stock_alert_level, image_url
		FROM inventory_items
		WHERE lower(category) = lower($1)
		ORDER BY id
	`, strings.TrimSpace(category))
}

func (s *Store) queryInventory(ctx context.Context, query string, args ...any) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 128)
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, stock_quantity, unit, cost_price_cents,
			selling_price_cents, supplier, stock_alert_level, image_url
		FROM inventory_items
		WHERE id = $1
	`, id)
	item, err := scanInventoryItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" || item.Category == "" || item.Unit == "" {
		return nil, store.ErrInvalidEntity
	}
	if item.StockQuantity < 0 || item.CostPrice < 0 || item.SellingPrice < 0 || item.StockAlertLevel < 0 {
		return nil, store.ErrInvalidEntity
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO inventory_items (
			name, category, stock_quantity, unit, cost_price_cents,
			selling_price_cents, supplier, stock_alert_level, image_url, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
		RETURNING id
	`, item.Name, item.Category, item.StockQuantity, item.Unit, item.CostPrice,
		item.SellingPrice, item.Supplier, item.StockAlertLevel, nullIfEmpty(item.ImageURL)).Scan(&item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidEntity
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" || item.Category == "" || item.Unit == "" {
		return nil, store.ErrInvalidEntity
	}
	if item.StockQuantity < 0 || item.CostPrice < 0 || item.SellingPrice < 0 || item.StockAlertLevel < 0 {
		return nil, store.ErrInvalidEntity
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = $2, category = $3, stock_quantity = $4, unit = $5,
			cost_price_cents = $6, selling_price_cents = $7, supplier = $8,
			stock_alert_level = $9, image_url = $10, updated_at = now()
		WHERE id = $1
	`, item.ID, item.Name, item.Category, item.StockQuantity, item.Unit,
		item.CostPrice, item.SellingPrice, item.Supplier, item.StockAlertLevel, nullIfEmpty(item.ImageURL))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := item
	return &updated, nil
}

// DeleteInventoryItem removes only the item. Sales keep their product_id and
// surface downstream as stale references.
func (s *Store) DeleteInventoryItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AdjustStock(ctx context.Context, id int64, delta int) (*domain.InventoryItem, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1 AND stock_quantity + $2 >= 0
	`, id, delta)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, err := s.GetInventoryItem(ctx, id); err != nil {
			return nil, err
		}
		return nil, store.ErrInsufficientStock
	}
	return s.GetInventoryItem(ctx, id)
}

func (s *Store) ListDebts(ctx context.Context) ([]domain.Debt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, amount_cents, created_date, due_date, paid
		FROM debts
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	debts := make([]domain.Debt, 0, 64)
	for rows.Next() {
		var debt domain.Debt
		if err := rows.Scan(&debt.ID, &debt.CustomerName, &debt.Amount, &debt.CreatedDate, &debt.DueDate, &debt.Paid); err != nil {
			return nil, err
		}
		debt.CreatedDate = debt.CreatedDate.UTC()
		debt.DueDate = debt.DueDate.UTC()
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return debts, nil
}

func (s *Store) GetDebt(ctx context.Context, id int64) (*domain.Debt, error) {
	var debt domain.Debt
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_name, amount_cents, created_date, due_date, paid
		FROM debts
		WHERE id = $1
	`, id).Scan(&debt.ID, &debt.CustomerName, &debt.Amount, &debt.CreatedDate, &debt.DueDate, &debt.Paid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	debt.CreatedDate = debt.CreatedDate.UTC()
	debt.DueDate = debt.DueDate.UTC()
	return &debt, nil
}

func (s *Store) CreateDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error) {
	debt.CustomerName = strings.TrimSpace(debt.CustomerName)
	if debt.CustomerName == "" || debt.Amount < 1 || debt.DueDate.IsZero() {
		return nil, store.ErrInvalidEntity
	}
	if debt.CreatedDate.IsZero() {
		debt.CreatedDate = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO debts (customer_name, amount_cents, created_date, due_date, paid)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, debt.CustomerName, debt.Amount, debt.CreatedDate, debt.DueDate, debt.Paid).Scan(&debt.ID)
	if err != nil {
		return nil, err
	}

	created := debt
	return &created, nil
}

func (s *Store) UpdateDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error) {
	debt.CustomerName = strings.TrimSpace(debt.CustomerName)
	if debt.CustomerName == "" || debt.Amount < 1 || debt.DueDate.IsZero() {
		return nil, store.ErrInvalidEntity
	}

	err := s.db.QueryRowContext(ctx, `
		UPDATE debts
		SET customer_name = $2, amount_cents = $3, due_date = $4, paid = $5
		WHERE id = $1
		RETURNING created_date
	`, debt.ID, debt.CustomerName, debt.Amount, debt.DueDate, debt.Paid).Scan(&debt.CreatedDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	debt.CreatedDate = debt.CreatedDate.UTC()

	updated := debt
	return &updated, nil
}

func (s *Store) DeleteDebt(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, contact_person, phone_number, email,
			address, city, state, postal_code, country, active
		FROM suppliers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var sup domain.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Category, &sup.ContactPerson, &sup.PhoneNumber,
			&sup.Email, &sup.Address, &sup.City, &sup.State, &sup.PostalCode, &sup.Country, &sup.Active); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	var sup domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, contact_person, phone_number, email,
			address, city, state, postal_code, country, active
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&sup.ID, &sup.Name, &sup.Category, &sup.ContactPerson, &sup.PhoneNumber,
		&sup.Email, &sup.Address, &sup.City, &sup.State, &sup.PostalCode, &sup.Country, &sup.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &sup, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalidEntity
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO suppliers (
			name, category, contact_person, phone_number, email,
			address, city, state, postal_code, country, active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
		RETURNING id
	`, supplier.Name, supplier.Category, supplier.ContactPerson, supplier.PhoneNumber, supplier.Email,
		supplier.Address, supplier.City, supplier.State, supplier.PostalCode, supplier.Country, supplier.Active).Scan(&supplier.ID)
	if err != nil {
		return nil, err
	}

	created := supplier
	return &created, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalidEntity
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET name = $2, category = $3, contact_person = $4, phone_number = $5, email = $6,
			address = $7, city = $8, state = $9, postal_code = $10, country = $11,
			active = $12, updated_at = now()
		WHERE id = $1
	`, supplier.ID, supplier.Name, supplier.Category, supplier.ContactPerson, supplier.PhoneNumber,
		supplier.Email, supplier.Address, supplier.City, supplier.State, supplier.PostalCode,
		supplier.Country, supplier.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := supplier
	return &updated, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidEntity
	}
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,$4,true,$5)
	`, username, user.Email, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidEntity
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, email, password_hash, role, active, created_at
		FROM users
		WHERE username = $1
	`, strings.ToLower(strings.TrimSpace(username))).Scan(
		&user.Username, &user.Email, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, email, password_hash, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Email, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidEntity
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventoryItem(row rowScanner) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	var imageURL sql.NullString
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.StockQuantity, &item.Unit,
		&item.CostPrice, &item.SellingPrice, &item.Supplier, &item.StockAlertLevel, &imageURL)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	item.ImageURL = imageURL.String
	return item, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
