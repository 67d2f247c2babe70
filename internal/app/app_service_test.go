package app

import (
	"context"
	"errors"
	"testing"

	"harmono-erp/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Authorization is checked before any service call, so a service-less
// appService is enough to exercise the role gates.
func newAuthzOnlyService() ApplicationService {
	return NewAppService(nil, nil, nil, nil, nil, nil)
}

func TestAdminOnlyOperationsRejectWorkers(t *testing.T) {
	svc := newAuthzOnlyService()
	ctx := context.Background()
	factory := Actor{ID: 2, Role: core.RoleFactory}
	delivery := Actor{ID: 3, Role: core.RoleDelivery}

	calls := map[string]func(Actor) error{
		"create item": func(a Actor) error {
			_, err := svc.CreateItem(ctx, a, CreateItemRequest{Name: "X"})
			return err
		},
		"edit recipe": func(a Actor) error {
			_, err := svc.SetRecipe(ctx, a, 1, SetRecipeRequest{})
			return err
		},
		"adjust stock": func(a Actor) error {
			_, err := svc.AdjustStock(ctx, a, 1, AdjustStockRequest{Adjustment: 5})
			return err
		},
		"manufacture": func(a Actor) error {
			_, err := svc.Manufacture(ctx, a, ManufactureRequest{ItemID: 1, Quantity: 1})
			return err
		},
		"delete ledger entry": func(a Actor) error {
			return svc.DeleteTransaction(ctx, a, 1)
		},
		"issue work order": func(a Actor) error {
			_, err := svc.IssueOrder(ctx, a, IssueOrderRequest{AssigneeID: 2, ItemID: 1, Quantity: 1, Kind: "SALES"})
			return err
		},
		"cancel work order": func(a Actor) error {
			_, err := svc.CancelOrder(ctx, a, 1)
			return err
		},
		"register user": func(a Actor) error {
			_, err := svc.Register(ctx, a, RegisterRequest{Name: "X", Email: "x@y.com", Password: "secret123"})
			return err
		},
		"list workers": func(a Actor) error {
			_, err := svc.ListWorkers(ctx, a)
			return err
		},
		"delete user": func(a Actor) error {
			return svc.DeleteUser(ctx, a, 2)
		},
		"view dashboard": func(a Actor) error {
			_, err := svc.GetDashboard(ctx, a)
			return err
		},
		"view stock report": func(a Actor) error {
			_, err := svc.GetStockReport(ctx, a)
			return err
		},
		"view transaction report": func(a Actor) error {
			_, err := svc.GetTransactionReport(ctx, a, "", "")
			return err
		},
	}

	for action, call := range calls {
		for _, actor := range []Actor{factory, delivery} {
			err := call(actor)
			var authzErr *core.AuthorizationError
			require.ErrorAs(t, err, &authzErr, "%s as %s", action, actor.Role)
			assert.Equal(t, actor.Role, authzErr.Role)
		}
	}
}

func TestGetUserRestrictsToSelf(t *testing.T) {
	svc := newAuthzOnlyService()
	ctx := context.Background()

	_, err := svc.GetUser(ctx, Actor{ID: 2, Role: core.RoleFactory}, 3)
	var authzErr *core.AuthorizationError
	assert.ErrorAs(t, err, &authzErr)
}

func TestRequestValidation(t *testing.T) {
	svc := newAuthzOnlyService()
	ctx := context.Background()
	admin := Actor{ID: 1, Role: core.RoleAdmin}

	cases := []struct {
		name  string
		field string
		call  func() error
	}{
		{"item without name", "name", func() error {
			_, err := svc.CreateItem(ctx, admin, CreateItemRequest{})
			return err
		}},
		{"negative item quantity", "quantity", func() error {
			_, err := svc.CreateItem(ctx, admin, CreateItemRequest{Name: "X", Quantity: -1})
			return err
		}},
		{"zero adjustment", "adjustment", func() error {
			_, err := svc.AdjustStock(ctx, admin, 1, AdjustStockRequest{Adjustment: 0})
			return err
		}},
		{"zero build quantity", "quantity", func() error {
			_, err := svc.Manufacture(ctx, admin, ManufactureRequest{ItemID: 1, Quantity: 0})
			return err
		}},
		{"unknown order kind", "kind", func() error {
			_, err := svc.IssueOrder(ctx, admin, IssueOrderRequest{AssigneeID: 2, ItemID: 1, Quantity: 1, Kind: "REPAIR"})
			return err
		}},
		{"bad email", "email", func() error {
			_, err := svc.Register(ctx, admin, RegisterRequest{Name: "X", Email: "not-an-email", Password: "secret123"})
			return err
		}},
		{"short password", "password", func() error {
			_, err := svc.Register(ctx, admin, RegisterRequest{Name: "X", Email: "x@y.com", Password: "short"})
			return err
		}},
		{"login without password", "password", func() error {
			_, err := svc.Login(ctx, LoginRequest{Email: "x@y.com"})
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestProofFrom(t *testing.T) {
	assert.Nil(t, proofFrom(SettleOrderRequest{ClientName: "Acme"}))

	lat := 19.0760
	proof := proofFrom(SettleOrderRequest{ProofPhoto: "blob", ProofLat: &lat})
	require.NotNil(t, proof)
	assert.Equal(t, "blob", proof.Photo)
	assert.Equal(t, &lat, proof.Lat)
	assert.Nil(t, proof.Lng)
}

func TestValidateRequestPassesThroughNonValidatorErrors(t *testing.T) {
	// Non-struct input is a programmer error, surfaced as-is.
	err := validateRequest(42)
	var verr *core.ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.Error(t, err)
}
