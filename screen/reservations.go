package screen

import (
	"context"

	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/viewmodel"
)

const NoReservationsMessage = "No bikes reserved"

// Reservations lists reserved bicycles with their details.
type Reservations struct {
	vm    *viewmodel.ViewModel
	state State[[]bike.Bicycle]
}

func NewReservations(vm *viewmodel.ViewModel) *Reservations {
	return &Reservations{vm: vm}
}

func (r *Reservations) Init(ctx context.Context) State[[]bike.Bicycle] {
	return r.Refresh(ctx)
}

func (r *Reservations) Refresh(ctx context.Context) State[[]bike.Bicycle] {
	r.state = ready(r.vm.ListReservedWithDetails(ctx))
	return r.state
}

func (r *Reservations) State() State[[]bike.Bicycle] { return r.state }

// Empty reports whether the list should show NoReservationsMessage.
func (r *Reservations) Empty() bool { return len(r.state.Data) == 0 }

// Cancel drops a reservation and reloads the list.
func (r *Reservations) Cancel(ctx context.Context, id string) (viewmodel.Confirmation, error) {
	bikes, conf, err := r.vm.CancelReservation(ctx, id)
	if err != nil {
		r.state = failed(bikes, err)
		return conf, err
	}
	r.state = ready(bikes)
	return conf, nil
}
