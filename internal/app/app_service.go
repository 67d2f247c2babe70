package app

import (
	"context"
	"errors"
	"strings"

	"harmono-erp/internal/core"

	"github.com/go-playground/validator/v10"
)

// defaultTransactionLimit caps unfiltered ledger listings.
const defaultTransactionLimit = 50

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs struct tag validation and converts the first failure
// into the core error taxonomy so adapters map it like any other input error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return &core.ValidationError{
			Field: strings.ToLower(f.Field()),
			Msg:   "failed '" + f.Tag() + "' validation",
		}
	}
	return err
}

type appService struct {
	catalog core.CatalogService
	stock   *core.StockService
	ledger  *core.Ledger
	orders  core.WorkOrderService
	users   core.UserService
	reports core.ReportingService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	catalog core.CatalogService,
	stock *core.StockService,
	ledger *core.Ledger,
	orders core.WorkOrderService,
	users core.UserService,
	reports core.ReportingService,
) ApplicationService {
	return &appService{
		catalog: catalog,
		stock:   stock,
		ledger:  ledger,
		orders:  orders,
		users:   users,
		reports: reports,
	}
}

func requireAdmin(actor Actor, action string) error {
	if actor.Role != core.RoleAdmin {
		return &core.AuthorizationError{Role: actor.Role, Action: action}
	}
	return nil
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *appService) CreateItem(ctx context.Context, actor Actor, req CreateItemRequest) (*ItemResult, error) {
	if err := requireAdmin(actor, "create item"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	item, err := s.catalog.CreateItem(ctx, core.ItemInput{
		Name:      req.Name,
		Code:      req.Code,
		Category:  core.ItemCategory(req.Category),
		Quantity:  req.Quantity,
		MinLevel:  req.MinLevel,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

func (s *appService) SetRecipe(ctx context.Context, actor Actor, itemID int, req SetRecipeRequest) (*ItemResult, error) {
	if err := requireAdmin(actor, "edit recipe"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	entries := make([]core.RecipeInput, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = core.RecipeInput{IngredientID: e.IngredientID, QtyRequired: e.QtyRequired}
	}
	item, err := s.catalog.SetRecipe(ctx, itemID, entries)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

func (s *appService) ListItems(ctx context.Context, actor Actor) (*ItemListResult, error) {
	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: items}, nil
}

func (s *appService) GetItem(ctx context.Context, actor Actor, itemID int) (*ItemResult, error) {
	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

// ── Stock ────────────────────────────────────────────────────────────────────

func (s *appService) AdjustStock(ctx context.Context, actor Actor, itemID int, req AdjustStockRequest) (*ItemResult, error) {
	if err := requireAdmin(actor, "adjust stock"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	item, err := s.stock.Adjust(ctx, itemID, req.Adjustment, core.KindManual, req.Reason, nil)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

func (s *appService) Manufacture(ctx context.Context, actor Actor, req ManufactureRequest) (*ItemResult, error) {
	if err := requireAdmin(actor, "manufacture"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	item, err := s.stock.Manufacture(ctx, req.ItemID, req.Quantity)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────

func (s *appService) ListTransactions(ctx context.Context, actor Actor, q TransactionQuery) (*TransactionListResult, error) {
	if err := validateRequest(q); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultTransactionLimit
	}
	entries, err := s.ledger.List(ctx, core.EntryFilter{
		ItemID:  q.ItemID,
		Kind:    core.EntryKind(q.Kind),
		OrderID: q.OrderID,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	return &TransactionListResult{Entries: entries}, nil
}

func (s *appService) DeleteTransaction(ctx context.Context, actor Actor, entryID int) error {
	if err := requireAdmin(actor, "delete ledger entry"); err != nil {
		return err
	}
	return s.ledger.Delete(ctx, entryID)
}

// ── Work orders ──────────────────────────────────────────────────────────────

func (s *appService) IssueOrder(ctx context.Context, actor Actor, req IssueOrderRequest) (*OrderResult, error) {
	if err := requireAdmin(actor, "issue work order"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	order, err := s.orders.Issue(ctx, core.IssueInput{
		AssigneeID: req.AssigneeID,
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
		Kind:       core.OrderKind(req.Kind),
		ClientName: req.ClientName,
	})
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, actor Actor, status string) (*OrderListResult, error) {
	f := core.OrderFilter{Status: core.OrderStatus(status)}
	if actor.Role != core.RoleAdmin {
		f.AssigneeID = actor.ID
	}
	orders, err := s.orders.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) GetOrder(ctx context.Context, actor Actor, orderID int) (*OrderResult, error) {
	order, err := s.accessibleOrder(ctx, actor, orderID, "view another user's order")
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) CompleteOrder(ctx context.Context, actor Actor, orderID int, req SettleOrderRequest) (*OrderResult, error) {
	if _, err := s.accessibleOrder(ctx, actor, orderID, "settle another user's order"); err != nil {
		return nil, err
	}
	order, err := s.orders.Complete(ctx, orderID, proofFrom(req))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) DeliverOrder(ctx context.Context, actor Actor, orderID int, req SettleOrderRequest) (*OrderResult, error) {
	if _, err := s.accessibleOrder(ctx, actor, orderID, "settle another user's order"); err != nil {
		return nil, err
	}
	order, err := s.orders.Deliver(ctx, orderID, req.ClientName, proofFrom(req))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) CancelOrder(ctx context.Context, actor Actor, orderID int) (*OrderResult, error) {
	if err := requireAdmin(actor, "cancel work order"); err != nil {
		return nil, err
	}
	order, err := s.orders.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

// accessibleOrder loads an order and rejects non-admin actors that are not its
// assignee. The settlement itself re-checks status under a row lock, so this
// read is only an authorization gate, not a race guard.
func (s *appService) accessibleOrder(ctx context.Context, actor Actor, orderID int, action string) (*core.WorkOrder, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != core.RoleAdmin && order.AssigneeID != actor.ID {
		return nil, &core.AuthorizationError{Role: actor.Role, Action: action}
	}
	return order, nil
}

func proofFrom(req SettleOrderRequest) *core.DeliveryProof {
	if req.ProofPhoto == "" && req.ProofLat == nil && req.ProofLng == nil {
		return nil
	}
	return &core.DeliveryProof{Photo: req.ProofPhoto, Lat: req.ProofLat, Lng: req.ProofLng}
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *appService) Register(ctx context.Context, actor Actor, req RegisterRequest) (*UserResult, error) {
	if err := requireAdmin(actor, "register user"); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, req.Name, req.Email, req.EmployeeCode, req.Password, core.Role(req.Role))
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

func (s *appService) Login(ctx context.Context, req LoginRequest) (*UserResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	user, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

func (s *appService) GetUser(ctx context.Context, actor Actor, userID int) (*UserResult, error) {
	if actor.Role != core.RoleAdmin && actor.ID != userID {
		return nil, &core.AuthorizationError{Role: actor.Role, Action: "view another user's profile"}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

func (s *appService) ListWorkers(ctx context.Context, actor Actor) (*WorkerListResult, error) {
	if err := requireAdmin(actor, "list workers"); err != nil {
		return nil, err
	}
	workers, err := s.users.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	return &WorkerListResult{Workers: workers}, nil
}

func (s *appService) DeleteUser(ctx context.Context, actor Actor, userID int) error {
	if err := requireAdmin(actor, "delete user"); err != nil {
		return err
	}
	return s.users.Delete(ctx, userID, actor.ID)
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (s *appService) GetDashboard(ctx context.Context, actor Actor) (*core.Dashboard, error) {
	if err := requireAdmin(actor, "view dashboard"); err != nil {
		return nil, err
	}
	return s.reports.GetDashboard(ctx)
}

func (s *appService) GetStockReport(ctx context.Context, actor Actor) ([]core.StockReportRow, error) {
	if err := requireAdmin(actor, "view stock report"); err != nil {
		return nil, err
	}
	return s.reports.GetStockReport(ctx)
}

func (s *appService) GetTransactionReport(ctx context.Context, actor Actor, from, to string) ([]core.TransactionReportRow, error) {
	if err := requireAdmin(actor, "view transaction report"); err != nil {
		return nil, err
	}
	return s.reports.GetTransactionReport(ctx, from, to)
}
