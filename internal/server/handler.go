package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/amecontrol/sigtapload/internal/auth"
	"github.com/amecontrol/sigtapload/internal/importer"
	"github.com/amecontrol/sigtapload/internal/model"
)

// Importer runs one import. *importer.Service implements it.
type Importer interface {
	Run(ctx context.Context, r io.Reader, opts importer.Options) (*model.ImportSummary, error)
}

// Catalog looks up procedure codes. *importer.Service implements it.
type Catalog interface {
	Lookup(ctx context.Context, code string) (*model.ProcedureCode, error)
}

// Pinger checks database reachability. *pgxpool.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the procedure-code API.
type Handler struct {
	imp    Importer
	cat    Catalog
	db     Pinger
	logger zerolog.Logger
}

// NewHandler creates a Handler. db may be nil, in which case /healthz
// does not check the database.
func NewHandler(imp Importer, cat Catalog, db Pinger, logger zerolog.Logger) *Handler {
	return &Handler{imp: imp, cat: cat, db: db, logger: logger}
}

// RegisterRoutes mounts the API routes on g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/procedure-codes/lookup", h.Lookup)
	g.POST("/procedure-codes/import", h.Import)
}

// LookupResponse is the body of GET /procedure-codes/lookup.
type LookupResponse struct {
	Found          bool   `json:"found"`
	Code           string `json:"code,omitempty"`
	Description    string `json:"description,omitempty"`
	Price          string `json:"price,omitempty"`
	ProcedureClass string `json:"procedure_class,omitempty"`
	Specialty      string `json:"specialty,omitempty"`
	Source         string `json:"source,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ImportResponse is the body of POST /procedure-codes/import.
type ImportResponse struct {
	RunID      string             `json:"run_id"`
	FileName   string             `json:"file_name"`
	Overwrite  bool               `json:"overwrite"`
	RowsRead   int                `json:"rows_read"`
	Created    int                `json:"created"`
	Updated    int                `json:"updated"`
	FailedRows []int              `json:"failed_rows"`
	Failures   []model.RowFailure `json:"failures"`
}

func (h *Handler) Health(c echo.Context) error {
	if h.db != nil {
		if err := h.db.Ping(c.Request().Context()); err != nil {
			h.logger.Error().Err(err).Msg("health check: database unreachable")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Lookup(c echo.Context) error {
	code := strings.TrimSpace(c.QueryParam("code"))
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	p, err := h.cat.Lookup(c.Request().Context(), code)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed").SetInternal(err)
	}
	if p == nil {
		return c.JSON(http.StatusOK, LookupResponse{
			Found:   false,
			Message: "procedure code not found in the catalogue",
		})
	}
	return c.JSON(http.StatusOK, LookupResponse{
		Found:          true,
		Code:           p.Code,
		Description:    p.Description,
		Price:          p.Price.StringFixed(2),
		ProcedureClass: string(p.ProcedureClass),
		Specialty:      p.Specialty,
		Source:         "database",
	})
}

func (h *Handler) Import(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}

	overwrite := false
	if v := c.FormValue("overwrite"); v != "" {
		overwrite, err = strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "overwrite must be a boolean")
		}
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file").SetInternal(err)
	}
	defer f.Close()

	sum, err := h.imp.Run(c.Request().Context(), f, importer.Options{
		Overwrite:   overwrite,
		SubmittedBy: auth.IdentityFromContext(c.Request().Context()),
		FileName:    fh.Filename,
	})
	if err != nil {
		return importHTTPError(err)
	}

	return c.JSON(http.StatusOK, ImportResponse{
		RunID:      sum.RunID,
		FileName:   sum.FileName,
		Overwrite:  sum.Overwrite,
		RowsRead:   sum.RowsRead,
		Created:    sum.Report.Created,
		Updated:    sum.Report.Updated,
		FailedRows: nonNil(sum.Report.FailedRows),
		Failures:   nonNilFailures(sum.Report.Failures),
	})
}

func importHTTPError(err error) *echo.HTTPError {
	var ie *importer.ImportError
	if errors.As(err, &ie) {
		switch ie.Phase {
		case importer.PhaseColumns:
			return echo.NewHTTPError(http.StatusUnprocessableEntity, ie.Err.Error())
		case importer.PhaseRead:
			return echo.NewHTTPError(http.StatusBadRequest, ie.Err.Error())
		}
	}
	if errors.Is(err, importer.ErrConflict) {
		return echo.NewHTTPError(http.StatusConflict, "catalogue changed during import, retry").SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "import failed, nothing was saved").SetInternal(err)
}

func nonNil(rows []int) []int {
	if rows == nil {
		return []int{}
	}
	return rows
}

func nonNilFailures(f []model.RowFailure) []model.RowFailure {
	if f == nil {
		return []model.RowFailure{}
	}
	return f
}
