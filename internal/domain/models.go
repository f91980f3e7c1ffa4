package domain

import (
	"time"

	"tokomaju/backend/internal/money"
)

// Sale is immutable once recorded; corrections are delete-and-recreate.
type Sale struct {
	ID           int64       `json:"id"`
	ProductID    int64       `json:"productId"`
	QuantitySold int         `json:"quantitySold"`
	TotalAmount  money.Cents `json:"totalAmount"`
	SaleDate     time.Time   `json:"saleDate"`
}

type SaleCreateRequest struct {
	ProductID    int64       `json:"productId"`
	QuantitySold int         `json:"quantitySold"`
	TotalAmount  money.Cents `json:"totalAmount"`
	SaleDate     *time.Time  `json:"saleDate,omitempty"`
}

type InventoryItem struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Category        string      `json:"category"`
	StockQuantity   int         `json:"stockQuantity"`
	Unit            string      `json:"unit"`
	CostPrice       money.Cents `json:"costPrice"`
	SellingPrice    money.Cents `json:"sellingPrice"`
	Supplier        string      `json:"supplier"`
	StockAlertLevel int         `json:"stockAlertLevel"`
	ImageURL        string      `json:"imageUrl,omitempty"`
}

type InventoryCreateRequest struct {
	Name            string      `json:"name"`
	Category        string      `json:"category"`
	StockQuantity   int         `json:"stockQuantity"`
	Unit            string      `json:"unit"`
	CostPrice       money.Cents `json:"costPrice"`
	SellingPrice    money.Cents `json:"sellingPrice"`
	Supplier        string      `json:"supplier"`
	StockAlertLevel int         `json:"stockAlertLevel"`
	ImageURL        string      `json:"imageUrl,omitempty"`
}

type InventoryUpdateRequest struct {
	Name            *string      `json:"name,omitempty"`
	Category        *string      `json:"category,omitempty"`
	StockQuantity   *int         `json:"stockQuantity,omitempty"`
	Unit            *string      `json:"unit,omitempty"`
	CostPrice       *money.Cents `json:"costPrice,omitempty"`
	SellingPrice    *money.Cents `json:"sellingPrice,omitempty"`
	Supplier        *string      `json:"supplier,omitempty"`
	StockAlertLevel *int         `json:"stockAlertLevel,omitempty"`
	ImageURL        *string      `json:"imageUrl,omitempty"`
}

type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

type Debt struct {
	ID           int64       `json:"id"`
	CustomerName string      `json:"customerName"`
	Amount       money.Cents `json:"amount"`
	CreatedDate  time.Time   `json:"createdDate"`
	DueDate      time.Time   `json:"dueDate"`
	Paid         bool        `json:"paid"`
}

type DebtCreateRequest struct {
	CustomerName string      `json:"customerName"`
	Amount       money.Cents `json:"amount"`
	CreatedDate  *time.Time  `json:"createdDate,omitempty"`
	DueDate      time.Time   `json:"dueDate"`
}

type DebtUpdateRequest struct {
	CustomerName *string      `json:"customerName,omitempty"`
	Amount       *money.Cents `json:"amount,omitempty"`
	DueDate      *time.Time   `json:"dueDate,omitempty"`
	Paid         *bool        `json:"paid,omitempty"`
}

type Supplier struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	ContactPerson string `json:"contactPerson"`
	PhoneNumber   string `json:"phoneNumber"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	Active        bool   `json:"active"`
}

type SupplierCreateRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	ContactPerson string `json:"contactPerson"`
	PhoneNumber   string `json:"phoneNumber"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	Active        bool   `json:"active"`
}

type SupplierUpdateRequest struct {
	Name          *string `json:"name,omitempty"`
	Category      *string `json:"category,omitempty"`
	ContactPerson *string `json:"contactPerson,omitempty"`
	PhoneNumber   *string `json:"phoneNumber,omitempty"`
	Email         *string `json:"email,omitempty"`
	Address       *string `json:"address,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	PostalCode    *string `json:"postalCode,omitempty"`
	Country       *string `json:"country,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

// EnrichedSale is a Sale joined with its inventory item. Product is nil when
// the referenced item no longer exists; profit is zero in that case.
type EnrichedSale struct {
	Sale
	Product *InventoryItem `json:"product,omitempty"`
	Profit  money.Cents    `json:"profit"`
}

type CategorySummary struct {
	Category    string      `json:"category"`
	TotalSales  money.Cents `json:"totalSales"`
	TotalProfit money.Cents `json:"totalProfit"`
}

type TopProduct struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Sales    money.Cents `json:"sales"`
}

type ActivityEntry struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Time        string `json:"time"`
}

const (
	ActivitySale      = "sale"
	ActivityDebt      = "debt"
	ActivityInventory = "inventory"
)

type DashboardStats struct {
	TotalRevenue    money.Cents `json:"totalRevenue"`
	TotalSales      int         `json:"totalSales"`
	ActiveInventory int         `json:"activeInventory"`
	ActiveDebts     money.Cents `json:"activeDebts"`
}

type DashboardOverview struct {
	Stats          DashboardStats  `json:"stats"`
	RecentActivity []ActivityEntry `json:"recentActivity"`
}

type SalesReportRow struct {
	Date   string      `json:"date"`
	Sales  money.Cents `json:"sales"`
	Profit money.Cents `json:"profit"`
}

type SalesReport struct {
	TotalRevenue money.Cents       `json:"totalRevenue"`
	TotalProfit  money.Cents       `json:"totalProfit"`
	ProfitMargin int               `json:"profitMargin"`
	Categories   []CategorySummary `json:"categories"`
	TopProducts  []TopProduct      `json:"topProducts"`
	Rows         []SalesReportRow  `json:"rows"`
}

type SalesSummary struct {
	TotalSalesToday     money.Cents `json:"totalSalesToday"`
	TotalSalesThisWeek  money.Cents `json:"totalSalesThisWeek"`
	TotalSalesThisMonth money.Cents `json:"totalSalesThisMonth"`
	TotalItemsSoldToday int         `json:"totalItemsSoldToday"`
}

// DebtStatus is derived on every read, never stored: a pending debt becomes
// overdue purely by wall-clock advance.
type DebtStatus string

const (
	DebtPending DebtStatus = "pending"
	DebtPaid    DebtStatus = "paid"
	DebtOverdue DebtStatus = "overdue"
)

type ClassifiedDebt struct {
	Debt
	Status    DebtStatus `json:"status"`
	DueInDays int        `json:"dueInDays"`
}

type DebtSummary struct {
	OutstandingTotal money.Cents `json:"outstandingTotal"`
	OutstandingCount int         `json:"outstandingCount"`
	OverdueTotal     money.Cents `json:"overdueTotal"`
	OverdueCount     int         `json:"overdueCount"`
	DueSoonTotal     money.Cents `json:"dueSoonTotal"`
	DueSoonCount     int         `json:"dueSoonCount"`
}

type DebtOverview struct {
	Summary DebtSummary      `json:"summary"`
	Debts   []ClassifiedDebt `json:"debts"`
}

type GenerateReportRequest struct {
	Period    string `json:"period"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type GeneratedReport struct {
	ID          string    `json:"id"`
	Period      string    `json:"period"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Content     string    `json:"content,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type GenerateReportResponse struct {
	ReportID    string `json:"reportId"`
	FileName    string `json:"fileName"`
	GeneratedAt string `json:"generatedAt"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expiresAt"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Email     string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuthUser struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)
