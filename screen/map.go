package screen

import (
	"context"

	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/viewmodel"
)

// Region is the visible map area.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// DefaultRegion is where the map opens.
var DefaultRegion = Region{
	Latitude:       41.3486,
	Longitude:      -8.7478,
	LatitudeDelta:  0.02,
	LongitudeDelta: 0.02,
}

type Marker struct {
	BikeID    string  `json:"bikeId"`
	Title     string  `json:"title"`
	PinColor  string  `json:"pinColor"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Map lists bicycles as markers, optionally narrowed to one type.
type Map struct {
	vm     *viewmodel.ViewModel
	filter bike.Filter
	state  State[[]bike.Bicycle]
}

func NewMap(vm *viewmodel.ViewModel) *Map {
	return &Map{vm: vm, filter: bike.All}
}

// Init loads the inventory. A failed fetch leaves the map empty.
func (m *Map) Init(ctx context.Context) State[[]bike.Bicycle] {
	bikes, err := m.vm.Bicycles(ctx, bike.All)
	if err != nil {
		m.state = failed([]bike.Bicycle{}, err)
		return m.state
	}
	m.state = ready(bikes)
	return m.state
}

func (m *Map) SetFilter(f bike.Filter) {
	m.filter = f
}

func (m *Map) Filter() bike.Filter { return m.filter }

func (m *Map) State() State[[]bike.Bicycle] { return m.state }

func (m *Map) Region() Region { return DefaultRegion }

// Visible returns the loaded bicycles that pass the current filter.
func (m *Map) Visible() []bike.Bicycle {
	return bike.FilterByType(m.state.Data, m.filter)
}

func (m *Map) Markers() []Marker {
	visible := m.Visible()
	markers := make([]Marker, 0, len(visible))
	for _, b := range visible {
		markers = append(markers, Marker{
			BikeID:    b.ID,
			Title:     b.Title(),
			PinColor:  bike.PinColor(b.Type),
			Latitude:  b.Latitude,
			Longitude: b.Longitude,
		})
	}
	return markers
}

// Select returns the loaded bicycle behind a marker, for the details screen.
func (m *Map) Select(id string) (bike.Bicycle, bool) {
	for _, b := range m.state.Data {
		if b.ID == id {
			return b, true
		}
	}
	return bike.Bicycle{}, false
}
