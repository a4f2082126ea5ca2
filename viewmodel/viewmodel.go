// Package viewmodel derives display-ready reservation state from the
// inventory and the local ledger.
package viewmodel

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/events"
)

// Ledger is the subset of reservation.Ledger the view model needs.
type Ledger interface {
	IsReserved(ctx context.Context, id string) bool
	Reserve(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	ListAll(ctx context.Context) []string
}

// Route names a screen the caller should move to after an action.
type Route string

const RouteReservations Route = "reservations"

// Confirmation is what the caller shows after a reservation action.
type Confirmation struct {
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
	Next    Route  `json:"next,omitempty"`
}

var (
	reservedConfirmation = Confirmation{
		Title:   "Bike Reserved",
		Message: "You have successfully reserved this bike.",
		Next:    RouteReservations,
	}
	cancelledConfirmation = Confirmation{
		Title: "Reservation Canceled",
	}
)

type ViewModel struct {
	inventory bike.Inventory
	ledger    Ledger
	events    events.Publisher
	logger    *slog.Logger

	// maxLookups bounds concurrent detail fetches.
	maxLookups int
	// publishTimeout bounds how long a reserve or cancel waits on the
	// event publisher.
	publishTimeout time.Duration
}

type Option func(*ViewModel)

func WithPublisher(p events.Publisher) Option {
	return func(vm *ViewModel) { vm.events = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(vm *ViewModel) { vm.logger = l }
}

func WithMaxLookups(n int) Option {
	return func(vm *ViewModel) {
		if n > 0 {
			vm.maxLookups = n
		}
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(vm *ViewModel) {
		if d > 0 {
			vm.publishTimeout = d
		}
	}
}

func New(inventory bike.Inventory, ledger Ledger, opts ...Option) *ViewModel {
	vm := &ViewModel{
		inventory:      inventory,
		ledger:         ledger,
		events:         events.Discard{},
		logger:         slog.Default(),
		maxLookups:     4,
		publishTimeout: 2 * time.Second,
	}
	for _, o := range opts {
		o(vm)
	}
	return vm
}

// Bicycles returns the inventory matching f. A failed fetch is logged and
// returned so the caller can render an empty state.
func (vm *ViewModel) Bicycles(ctx context.Context, f bike.Filter) ([]bike.Bicycle, error) {
	bikes, err := vm.inventory.FetchAll(ctx)
	if err != nil {
		vm.logger.ErrorContext(ctx, "failed to fetch bikes", "error", err)
		return []bike.Bicycle{}, err
	}
	return bike.FilterByType(bikes, f), nil
}

// Bicycle returns a single bike from the inventory.
func (vm *ViewModel) Bicycle(ctx context.Context, id string) (bike.Bicycle, error) {
	b, err := vm.inventory.FetchByID(ctx, id)
	if err != nil {
		vm.logger.ErrorContext(ctx, "failed to fetch bike", "bike_id", id, "error", err)
	}
	return b, err
}

// ListReservedWithDetails resolves every ledger entry against the inventory.
// Lookups run concurrently; the result follows ledger order. Entries whose
// lookup fails are logged and left out.
func (vm *ViewModel) ListReservedWithDetails(ctx context.Context) []bike.Bicycle {
	ids := vm.ledger.ListAll(ctx)
	if len(ids) == 0 {
		return []bike.Bicycle{}
	}

	found := make([]*bike.Bicycle, len(ids))

	var g errgroup.Group
	g.SetLimit(vm.maxLookups)
	for i, id := range ids {
		g.Go(func() error {
			b, err := vm.inventory.FetchByID(ctx, id)
			if err != nil {
				vm.logger.WarnContext(ctx, "dropping reserved bike with failed lookup", "bike_id", id, "error", err)
				return nil
			}
			found[i] = &b
			return nil
		})
	}
	g.Wait()

	out := make([]bike.Bicycle, 0, len(ids))
	for _, b := range found {
		if b != nil {
			out = append(out, *b)
		}
	}
	return out
}

// ReserveBicycle records b in the ledger.
func (vm *ViewModel) ReserveBicycle(ctx context.Context, b bike.Bicycle) (Confirmation, error) {
	if err := vm.ledger.Reserve(ctx, b.ID); err != nil {
		return Confirmation{}, err
	}
	vm.publish(ctx, events.New(events.Reserved, b.ID))
	return reservedConfirmation, nil
}

// CancelReservation drops id from the ledger and returns the refreshed
// reserved list.
func (vm *ViewModel) CancelReservation(ctx context.Context, id string) ([]bike.Bicycle, Confirmation, error) {
	if err := vm.ledger.Cancel(ctx, id); err != nil {
		return vm.ListReservedWithDetails(ctx), Confirmation{}, err
	}
	vm.publish(ctx, events.New(events.Cancelled, id))
	return vm.ListReservedWithDetails(ctx), cancelledConfirmation, nil
}

// IsBikeReserved ORs the server flag with ledger membership.
func (vm *ViewModel) IsBikeReserved(ctx context.Context, b bike.Bicycle) bool {
	return b.Reserved || vm.ledger.IsReserved(ctx, b.ID)
}

// publish is best effort. It outlives a cancelled request but never blocks
// the caller for longer than publishTimeout.
func (vm *ViewModel) publish(ctx context.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), vm.publishTimeout)
	defer cancel()

	if err := vm.events.Publish(ctx, e); err != nil {
		vm.logger.WarnContext(ctx, "failed to publish reservation event",
			"kind", e.Kind, "bike_id", e.BikeID, "error", err)
	}
}
