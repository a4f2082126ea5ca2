package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/internal/middleware"
	"github.com/semanticallynull/bikemap/screen"
	"github.com/semanticallynull/bikemap/viewmodel"
)

type bikeResponse struct {
	ID        string  `json:"id"`
	Brand     string  `json:"brand"`
	Model     string  `json:"model"`
	Type      string  `json:"type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Reserved  bool    `json:"reserved"`
	PinColor  string  `json:"pinColor"`
}

func toBikeResponse(b bike.Bicycle) bikeResponse {
	return bikeResponse{
		ID:        b.ID,
		Brand:     b.Brand,
		Model:     b.Model,
		Type:      b.Type.String(),
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
		Reserved:  b.Reserved,
		PinColor:  bike.PinColor(b.Type),
	}
}

func toBikeResponses(bikes []bike.Bicycle) []bikeResponse {
	out := make([]bikeResponse, 0, len(bikes))
	for _, b := range bikes {
		out = append(out, toBikeResponse(b))
	}
	return out
}

type mapResponse struct {
	Status  screen.Status   `json:"status"`
	Filter  string          `json:"filter"`
	Region  screen.Region   `json:"region"`
	Markers []screen.Marker `json:"markers"`
	Error   string          `json:"error,omitempty"`
}

func (a *API) mapHandler(c *gin.Context) {
	filter, err := bike.ParseFilter(c.Query("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_TYPE", "message": err.Error()})
		return
	}

	m := screen.NewMap(a.vm)
	st := m.Init(c.Request.Context())
	m.SetFilter(filter)

	resp := mapResponse{
		Status:  st.Status,
		Filter:  filter.String(),
		Region:  m.Region(),
		Markers: m.Markers(),
	}
	if st.Err != nil {
		resp.Error = "bike inventory unavailable"
	}
	c.JSON(http.StatusOK, resp)
}

type detailsResponse struct {
	Bike     bikeResponse `json:"bike"`
	Reserved bool         `json:"reserved"`
	Message  string       `json:"message,omitempty"`
}

func (a *API) bikeHandler(c *gin.Context) {
	b, ok := a.lookupBike(c)
	if !ok {
		return
	}

	d := screen.NewDetails(a.vm, b)
	d.Init(c.Request.Context())

	resp := detailsResponse{
		Bike:     toBikeResponse(b),
		Reserved: d.Reserved(),
	}
	if resp.Reserved {
		resp.Message = screen.AlreadyReservedMessage
	}
	c.JSON(http.StatusOK, resp)
}

type reserveResponse struct {
	Confirmation viewmodel.Confirmation `json:"confirmation"`
	Bike         bikeResponse           `json:"bike"`
}

func (a *API) reserveHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	ctx := c.Request.Context()

	b, ok := a.lookupBike(c)
	if !ok {
		return
	}

	d := screen.NewDetails(a.vm, b)
	if d.Init(ctx); d.Reserved() {
		c.JSON(http.StatusConflict, gin.H{"code": "ALREADY_RESERVED", "message": screen.AlreadyReservedMessage})
		return
	}

	conf, err := d.Reserve(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to reserve bike", "bike_id", b.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "RESERVATION_FAILED", "message": "reservation could not be saved"})
		return
	}

	c.JSON(http.StatusOK, reserveResponse{Confirmation: conf, Bike: toBikeResponse(b)})
}

// lookupBike writes an error response and returns false when the bike cannot
// be fetched.
func (a *API) lookupBike(c *gin.Context) (bike.Bicycle, bool) {
	b, err := a.vm.Bicycle(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, bike.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BIKE_NOT_FOUND", "message": "Bike not found"})
			return b, false
		}
		c.JSON(http.StatusBadGateway, gin.H{"code": "INVENTORY_UNAVAILABLE", "message": "bike inventory unavailable"})
		return b, false
	}
	return b, true
}
