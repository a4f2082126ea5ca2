package screen

import (
	"context"

	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/viewmodel"
)

const AlreadyReservedMessage = "This bike is already reserved."

// Details shows one bicycle handed over from the map.
type Details struct {
	vm       *viewmodel.ViewModel
	bicycle  bike.Bicycle
	reserved State[bool]
}

func NewDetails(vm *viewmodel.ViewModel, b bike.Bicycle) *Details {
	return &Details{vm: vm, bicycle: b}
}

func (d *Details) Bicycle() bike.Bicycle { return d.bicycle }

// Init resolves whether the bicycle is already reserved.
func (d *Details) Init(ctx context.Context) State[bool] {
	d.reserved = ready(d.vm.IsBikeReserved(ctx, d.bicycle))
	return d.reserved
}

func (d *Details) Reserved() bool { return d.reserved.Data }

// Reserve records the reservation. On success the screen reflects it
// immediately.
func (d *Details) Reserve(ctx context.Context) (viewmodel.Confirmation, error) {
	conf, err := d.vm.ReserveBicycle(ctx, d.bicycle)
	if err != nil {
		return conf, err
	}
	d.reserved = ready(true)
	return conf, nil
}
