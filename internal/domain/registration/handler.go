package registration

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/intake/internal/platform/hipaa"
	"github.com/ehr/intake/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/registrations", h.StartDraft)
	api.GET("/registrations/:id", h.GetDraft)
	api.DELETE("/registrations/:id", h.DiscardDraft)
	api.POST("/registrations/:id/fields", h.UpdateField)
	api.POST("/registrations/:id/phones", h.UpdatePhoneField)
	api.PUT("/registrations/:id/lists/:list/input", h.SetListInput)
	api.POST("/registrations/:id/lists/:list", h.AddListItem)
	api.DELETE("/registrations/:id/lists/:list/:index", h.RemoveListItem)
	api.GET("/registrations/:id/validation", h.ValidateStep)
	api.POST("/registrations/:id/next", h.AdvanceStep)
	api.POST("/registrations/:id/back", h.RetreatStep)
	api.POST("/registrations/:id/submit", h.Submit)

	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
}

type draftResponse struct {
	ID uuid.UUID `json:"id"`
	State
}

func newDraftResponse(sess *Session) draftResponse {
	return draftResponse{ID: sess.ID, State: sess.Form.Snapshot()}
}

type fieldRequest struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Checked  bool   `json:"checked"`
	Checkbox bool   `json:"checkbox"`
}

type listInputRequest struct {
	Text string `json:"text"`
}

type listItemRequest struct {
	Text *string `json:"text"`
}

type stepResponse struct {
	Step int `json:"currentStep"`
	ValidationResult
}

// -- Draft handlers --

func (h *Handler) StartDraft(c echo.Context) error {
	return c.JSON(http.StatusCreated, newDraftResponse(h.svc.StartDraft()))
}

func (h *Handler) GetDraft(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDraftResponse(sess))
}

func (h *Handler) DiscardDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DiscardDraft(id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateField(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req fieldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := ParseFieldPath(req.Field)
	if err != nil {
		return httpError(err)
	}
	if err := sess.Form.UpdateField(p, Input{Value: req.Value, Checked: req.Checked, Checkbox: req.Checkbox}); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newDraftResponse(sess))
}

func (h *Handler) UpdatePhoneField(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var req fieldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := ParseFieldPath(req.Field)
	if err != nil {
		return httpError(err)
	}
	if err := sess.Form.UpdatePhoneField(p, req.Value); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newDraftResponse(sess))
}

func (h *Handler) SetListInput(c echo.Context) error {
	sess, list, err := h.sessionList(c)
	if err != nil {
		return err
	}
	var req listInputRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := sess.Form.SetListInput(list, req.Text); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newDraftResponse(sess))
}

func (h *Handler) AddListItem(c echo.Context) error {
	sess, list, err := h.sessionList(c)
	if err != nil {
		return err
	}
	var req listItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Text == nil {
		err = sess.Form.AddPendingListItem(list)
	} else {
		err = sess.Form.AddListItem(list, *req.Text)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newDraftResponse(sess))
}

func (h *Handler) RemoveListItem(c echo.Context) error {
	sess, list, err := h.sessionList(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	if err := sess.Form.RemoveListItem(list, index); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newDraftResponse(sess))
}

func (h *Handler) ValidateStep(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	step := sess.Form.Step()
	if v := c.QueryParam("step"); v != "" {
		step, err = strconv.Atoi(v)
		if err != nil || step < 1 || step > TotalSteps {
			return echo.NewHTTPError(http.StatusBadRequest, "step must be between 1 and 6")
		}
	}
	return c.JSON(http.StatusOK, sess.Form.ValidateStep(step))
}

func (h *Handler) AdvanceStep(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	res := sess.Form.AdvanceStep()
	resp := stepResponse{Step: sess.Form.Step(), ValidationResult: res}
	if !res.Valid {
		return c.JSON(http.StatusUnprocessableEntity, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) RetreatStep(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	sess.Form.RetreatStep()
	return c.JSON(http.StatusOK, newDraftResponse(sess))
}

func (h *Handler) Submit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res, err := h.svc.SubmitDraft(c.Request().Context(), id)
	switch {
	case errors.Is(err, ErrSubmitFailed):
		return c.JSON(http.StatusBadGateway, map[string]string{"message": MsgSubmitFailed})
	case err != nil:
		return httpError(err)
	case !res.Accepted():
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{"errors": res.Errors})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": MsgSubmitted,
		"record":  maskRecord(res.Record),
	})
}

// -- Directory handlers --

func (h *Handler) ListPatients(c echo.Context) error {
	filter := RecordFilter{Search: c.QueryParam("search"), Status: c.QueryParam("status")}
	switch filter.Status {
	case "", "all", StatusActive, StatusInactive:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status must be one of all, active, inactive")
	}

	pg := pagination.FromContext(c)
	records, total, err := h.svc.ListRecords(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]*Record, len(records))
	for i, rec := range records {
		out[i] = maskRecord(rec)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, pg.Limit, pg.Offset).
		WithLinks(c.Request().URL.Path, c.QueryParams()))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, maskRecord(rec))
}

// -- helpers --

func (h *Handler) session(c echo.Context) (*Session, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sess, err := h.svc.Draft(id)
	if err != nil {
		return nil, httpError(err)
	}
	return sess, nil
}

func (h *Handler) sessionList(c echo.Context) (*Session, ListName, error) {
	sess, err := h.session(c)
	if err != nil {
		return nil, "", err
	}
	list, err := ParseListName(c.Param("list"))
	if err != nil {
		return nil, "", httpError(err)
	}
	return sess, list, nil
}

func maskRecord(rec *Record) *Record {
	cp := *rec
	cp.Registration.SocialSecurityNumber = hipaa.MaskSSN(rec.Registration.SocialSecurityNumber)
	return &cp
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "registration not found")
	case errors.Is(err, ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrUnknownField), errors.Is(err, ErrUnknownList),
		errors.Is(err, ErrFieldType), errors.Is(err, ErrInvalidValue):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSubmissionInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
