package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/curve"
	"github.com/renanmoretto/finbr/instruments/futures"
	"github.com/renanmoretto/finbr/internal/scheduler"
	"github.com/renanmoretto/finbr/marketdata/b3"
	"github.com/renanmoretto/finbr/utils"
)

var (
	// errBadRequest marks caller mistakes that map to 400.
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type handler struct {
	log       zerolog.Logger
	cal       *calendar.Calendar
	pricer    *futures.DI1
	workers   int
	today     func() time.Time
	feed      b3.SettlementFeed
	snapshots SnapshotSource
}

// RegisterRoutes mounts the calendar and DI1 endpoints under the given router.
func (h *handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.Get("/holidays/{year}", h.handleHolidays)
		r.Get("/business-days/{year}", h.handleBusinessDays)
		r.Get("/is-business-day", h.handleIsBusinessDay)
		r.Get("/shift", h.handleShift)
		r.Get("/count", h.handleCount)
	})
	r.Route("/di1", func(r chi.Router) {
		r.Post("/strip", h.handleStrip)
		r.Get("/settlement/latest", h.handleLatestSettlement)
		r.Get("/settlement/{date}", h.handleSettlement)
		r.Get("/{ticker}", h.handleQuote)
	})
}

type holidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type quoteDTO struct {
	Ticker        string   `json:"ticker"`
	AsOf          string   `json:"as_of"`
	Maturity      string   `json:"maturity"`
	BusinessDays  int      `json:"business_days"`
	CalendarDays  int      `json:"calendar_days"`
	BusinessYears float64  `json:"business_years"`
	CalendarYears float64  `json:"calendar_years"`
	Rate          *float64 `json:"rate,omitempty"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	DV01          *float64 `json:"dv01,omitempty"`
}

type vertexDTO struct {
	Date           string  `json:"date"`
	BusinessDays   int     `json:"business_days"`
	Rate           float64 `json:"rate"`
	DiscountFactor float64 `json:"discount_factor"`
}

type stripRequest struct {
	AsOf  string             `json:"as_of"`
	Rates map[string]float64 `json:"rates"`
}

type stripResponse struct {
	AsOf   string      `json:"as_of"`
	Quotes []quoteDTO  `json:"quotes"`
	Curve  []vertexDTO `json:"curve"`
}

func newQuoteDTO(q futures.Quote, priced bool) quoteDTO {
	dto := quoteDTO{
		Ticker:        q.Ticker,
		AsOf:          q.AsOf.Format(utils.DateLayout),
		Maturity:      q.Maturity.Format(utils.DateLayout),
		BusinessDays:  q.BusinessDays,
		CalendarDays:  q.CalendarDays,
		BusinessYears: q.BusinessYears,
		CalendarYears: q.CalendarYears,
	}
	if priced {
		dto.Rate, dto.UnitPrice, dto.DV01 = &q.Rate, &q.UnitPrice, &q.DV01
	}
	return dto
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	days := h.cal.HolidaysInYear(year)
	out := make([]holidayDTO, 0, len(days))
	for _, d := range days {
		name, _ := h.cal.HolidayName(d)
		out = append(out, holidayDTO{Date: d.Format(utils.DateLayout), Name: name})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *handler) handleBusinessDays(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	days := h.cal.BusinessDaysInYear(year)
	h.writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"year":  year,
		"count": len(days),
		"dates": utils.FormatDates(days),
	}})
}

func (h *handler) handleIsBusinessDay(w http.ResponseWriter, r *http.Request) {
	d, err := dateQuery(r, "date")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := map[string]any{
		"date":         d.Format(utils.DateLayout),
		"business_day": h.cal.IsBusinessDay(d),
	}
	if name, ok := h.cal.HolidayName(d); ok {
		resp["holiday"] = name
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": resp})
}

func (h *handler) handleShift(w http.ResponseWriter, r *http.Request) {
	d, err := dateQuery(r, "date")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil {
		h.writeError(w, r, badRequest("n must be an integer"))
		return
	}

	res, err := h.cal.Shift(d, n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"date":   d.Format(utils.DateLayout),
		"n":      n,
		"result": res.Format(utils.DateLayout),
	}})
}

func (h *handler) handleCount(w http.ResponseWriter, r *http.Request) {
	start, err := dateQuery(r, "start")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	end, err := dateQuery(r, "end")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"start":         start.Format(utils.DateLayout),
		"end":           end.Format(utils.DateLayout),
		"business_days": h.cal.Count(start, end),
	}})
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	asOf, err := h.asOf(r.URL.Query().Get("as_of"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rateStr, priceStr := r.URL.Query().Get("rate"), r.URL.Query().Get("price")
	var q futures.Quote
	priced := true
	switch {
	case rateStr != "" && priceStr != "":
		err = badRequest("pass either rate or price, not both")
	case rateStr != "":
		var rate float64
		if rate, err = floatParam("rate", rateStr); err == nil {
			q, err = h.pricer.Quote(ticker, rate, asOf)
		}
	case priceStr != "":
		var price float64
		if price, err = floatParam("price", priceStr); err == nil {
			q, err = h.pricer.QuoteFromPrice(ticker, price, asOf)
		}
	default:
		priced = false
		q, err = h.describe(ticker, asOf)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Debug().Str("ticker", q.Ticker).Str("as_of", q.AsOf.Format(utils.DateLayout)).Msg("DI1 quote")
	h.writeJSON(w, http.StatusOK, map[string]any{"data": newQuoteDTO(q, priced)})
}

// describe returns the maturity and terms of a contract without pricing it.
func (h *handler) describe(ticker string, asOf time.Time) (futures.Quote, error) {
	maturity, err := h.pricer.Maturity(ticker, asOf)
	if err != nil {
		return futures.Quote{}, err
	}
	du, err := h.pricer.DaysToMaturity(ticker, asOf, true)
	if err != nil {
		return futures.Quote{}, err
	}
	dc, err := h.pricer.DaysToMaturity(ticker, asOf, false)
	if err != nil {
		return futures.Quote{}, err
	}
	return futures.Quote{
		Ticker:        strings.ToUpper(strings.TrimSpace(ticker)),
		AsOf:          calendar.Truncate(asOf),
		Maturity:      maturity,
		BusinessDays:  du,
		CalendarDays:  dc,
		BusinessYears: utils.YearFraction(du, utils.Bus252),
		CalendarYears: utils.YearFraction(dc, utils.Act365F),
	}, nil
}

func (h *handler) handleStrip(w http.ResponseWriter, r *http.Request) {
	var req stripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("invalid JSON body: %v", err))
		return
	}
	if len(req.Rates) == 0 {
		h.writeError(w, r, badRequest("rates is required"))
		return
	}
	asOf, err := h.asOf(req.AsOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	quotes, err := h.pricer.QuoteStrip(r.Context(), req.Rates, asOf, futures.StripOptions{Workers: h.workers})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	crv, err := h.pricer.BuildCurve(quotes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Info().Int("contracts", len(quotes)).Str("as_of", asOf.Format(utils.DateLayout)).Msg("DI1 strip priced")
	h.writeJSON(w, http.StatusOK, map[string]any{"data": newStripResponse(asOf, quotes, crv)})
}

func (h *handler) handleSettlement(w http.ResponseWriter, r *http.Request) {
	d, err := utils.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, r, badRequest("date: %v", err))
		return
	}

	snap, err := scheduler.PriceSettlements(r.Context(), h.pricer, h.feed, d, h.workers)
	if errors.Is(err, scheduler.ErrNoSettlements) {
		err = fmt.Errorf("%w: %v", errNotFound, err)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": newStripResponse(snap.AsOf, snap.Quotes, snap.Curve)})
}

func (h *handler) handleLatestSettlement(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		h.writeError(w, r, fmt.Errorf("%w: settlement snapshots are disabled", errNotFound))
		return
	}
	snap, ok := h.snapshots.Latest()
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: no settlement snapshot yet", errNotFound))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": newStripResponse(snap.AsOf, snap.Quotes, snap.Curve)})
}

func newStripResponse(asOf time.Time, quotes []futures.Quote, crv *curve.Curve) stripResponse {
	resp := stripResponse{AsOf: asOf.Format(utils.DateLayout)}
	for _, q := range quotes {
		resp.Quotes = append(resp.Quotes, newQuoteDTO(q, true))
	}
	for _, v := range crv.Vertices() {
		resp.Curve = append(resp.Curve, vertexDTO{
			Date:           v.Date.Format(utils.DateLayout),
			BusinessDays:   v.BusinessDays,
			Rate:           v.Rate,
			DiscountFactor: v.DiscountFactor,
		})
	}
	return resp
}

func (h *handler) asOf(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return h.today(), nil
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest("as_of: %v", err)
	}
	return d, nil
}

func yearParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < calendar.MinYear || year > calendar.MaxYear {
		return 0, badRequest("invalid year %q", raw)
	}
	return year, nil
}

func dateQuery(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, badRequest("%s is required", name)
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest("%s: %v", name, err)
	}
	return d, nil
}

func floatParam(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest("%s must be a number", name)
	}
	return v, nil
}

func isClientError(err error) bool {
	for _, target := range []error{
		errBadRequest,
		calendar.ErrOutOfRange,
		futures.ErrInvalidTicker,
		futures.ErrInvalidRate,
		futures.ErrInvalidPrice,
		futures.ErrUndefinedRate,
		curve.ErrNoVertices,
		curve.ErrInvalidVertex,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case isClientError(err):
		status = http.StatusBadRequest
	default:
		h.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("request failed")
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
