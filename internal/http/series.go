package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

type SeriesController struct {
	series   SeriesStore
	diagnose *Diagnoser
	audit    AuditRecorder
}

func NewSeriesController(series SeriesStore, diagnose *Diagnoser, recorder AuditRecorder) *SeriesController {
	return &SeriesController{
		series:   series,
		diagnose: diagnose,
		audit:    recorder,
	}
}

// ListSeries handles GET /api/series
func (sc *SeriesController) ListSeries(c *gin.Context) {
	all, err := sc.series.GetAll()
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": all, "count": len(all)})
}

// GetSeries handles GET /api/series/:id
func (sc *SeriesController) GetSeries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	series, err := sc.series.GetByID(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, series)
}

// LookupSeries handles GET /api/series/lookup?name=&author_ids=3,1
// The primary author is resolved from author_ids before the lookup.
func (sc *SeriesController) LookupSeries(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		respondBadRequest(c, "name query parameter is required")
		return
	}

	var ids []uint
	for _, raw := range strings.Split(c.Query("author_ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid author_ids")
			return
		}
		ids = append(ids, uint(id))
	}

	primary, ok := catalog.PrimaryAuthor(ids)
	if !ok {
		respondBadRequest(c, "author_ids query parameter is required")
		return
	}

	series, err := sc.series.GetByNameAndAuthor(name, primary)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, series)
}

// CreateSeries handles POST /api/series
func (sc *SeriesController) CreateSeries(c *gin.Context) {
	var req AddSeriesRequest
	if !bindRequest(c, &req) {
		return
	}

	series, err := sc.series.AddSeries(req.Name, req.AuthorIDs)
	if err != nil {
		sc.record(c, "series_add", 0, "Add series '"+strings.TrimSpace(req.Name)+"'", err)
		respondStoreError(c, err, sc.diagnose.AddSeries(req.Name, req.AuthorIDs, err))
		return
	}

	sc.record(c, "series_add", series.ID, "Added series '"+series.Name+"'", nil)
	respondCreated(c, series)
}

// DeleteSeries handles DELETE /api/series/:id
func (sc *SeriesController) DeleteSeries(c *gin.Context) {
	sc.withSeries(c, "remove", func(key entities.SeriesKey) error {
		return sc.series.RemoveSeries(key)
	}, func(c *gin.Context, _ *entities.Series) {
		respondSuccess(c, "series removed")
	})
}

// SetStatus handles PUT /api/series/:id/status
func (sc *SeriesController) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if !bindRequest(c, &req) {
		return
	}

	sc.withSeries(c, "status", func(key entities.SeriesKey) error {
		return sc.series.SetStatus(key, entities.SeriesStatus(req.Status))
	}, sc.respondCurrent)
}

// Increment handles POST /api/series/:id/increment
func (sc *SeriesController) Increment(c *gin.Context) {
	sc.withSeries(c, "increment", func(key entities.SeriesKey) error {
		return sc.series.IncrementCount(key)
	}, sc.respondCurrent)
}

// Decrement handles POST /api/series/:id/decrement
func (sc *SeriesController) Decrement(c *gin.Context) {
	sc.withSeries(c, "decrement", func(key entities.SeriesKey) error {
		return sc.series.DecrementCount(key)
	}, sc.respondCurrent)
}

// withSeries resolves the series key from the :id parameter, runs op and
// reports the outcome.
func (sc *SeriesController) withSeries(c *gin.Context, op string, apply func(entities.SeriesKey) error, done func(*gin.Context, *entities.Series)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	series, err := sc.series.GetByID(id)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}

	if err := apply(series.Key()); err != nil {
		sc.record(c, "series_"+op, id, op+" series '"+series.Name+"'", err)
		respondStoreError(c, err, sc.diagnose.Series(id, op, err))
		return
	}

	sc.record(c, "series_"+op, id, op+" series '"+series.Name+"'", nil)
	done(c, series)
}

func (sc *SeriesController) respondCurrent(c *gin.Context, series *entities.Series) {
	current, err := sc.series.GetByID(series.ID)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, current)
}

func (sc *SeriesController) record(c *gin.Context, action string, seriesID uint, description string, err error) {
	recordMutation(c, sc.audit, entities.AuditEventSeries, action, "series", seriesID, description, nil, err)
}
