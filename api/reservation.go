package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/bikemap/internal/middleware"
	"github.com/semanticallynull/bikemap/screen"
	"github.com/semanticallynull/bikemap/viewmodel"
)

type reservationsResponse struct {
	Status  screen.Status  `json:"status"`
	Bikes   []bikeResponse `json:"bikes"`
	Message string         `json:"message,omitempty"`
}

func (a *API) reservationsHandler(c *gin.Context) {
	r := screen.NewReservations(a.vm)
	st := r.Init(c.Request.Context())

	resp := reservationsResponse{
		Status: st.Status,
		Bikes:  toBikeResponses(st.Data),
	}
	if r.Empty() {
		resp.Message = screen.NoReservationsMessage
	}
	c.JSON(http.StatusOK, resp)
}

type cancelResponse struct {
	Confirmation viewmodel.Confirmation `json:"confirmation"`
	Bikes        []bikeResponse         `json:"bikes"`
}

func (a *API) cancelHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	ctx := c.Request.Context()
	id := c.Param("id")

	r := screen.NewReservations(a.vm)
	conf, err := r.Cancel(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "failed to cancel reservation", "bike_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "CANCELLATION_FAILED", "message": "cancellation could not be saved"})
		return
	}

	c.JSON(http.StatusOK, cancelResponse{Confirmation: conf, Bikes: toBikeResponses(r.State().Data)})
}
