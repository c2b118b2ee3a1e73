package workflow

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/model"
	"pautas-cli/internal/session"

	"github.com/rs/zerolog/log"
)

const PageSize = 10

type Filter string

const (
	FilterAll        Filter = "all"
	FilterAssigned   Filter = "assigned"
	FilterUnassigned Filter = "unassigned"
)

func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterAssigned:
		return FilterAssigned, nil
	case FilterUnassigned:
		return FilterUnassigned, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q (want all|assigned|unassigned)", s)
	}
}

// MatchesSearch is a case-insensitive substring match on code, description,
// estimated hours, task count and any task description.
func MatchesSearch(o model.Order, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	fields := []string{
		strconv.Itoa(o.Code),
		o.Description,
		strconv.FormatFloat(o.EstimatedHours, 'f', -1, 64),
		strconv.Itoa(o.TaskCount),
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	for _, t := range o.Tasks {
		if strings.Contains(strings.ToLower(t.Description()), term) {
			return true
		}
	}
	return false
}

func FilterOrders(orders []model.Order, term string, f Filter) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		switch f {
		case FilterAssigned:
			if !o.Assigned() {
				continue
			}
		case FilterUnassigned:
			if o.Assigned() {
				continue
			}
		}
		if !MatchesSearch(o, term) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// TotalPages is ceil(n/PageSize).
func TotalPages(n int) int {
	return int(math.Ceil(float64(n) / float64(PageSize)))
}

// ListView is the search/filter/page state of the order list.
type ListView struct {
	Search string
	Filter Filter
	Page   int
}

func NewListView() ListView { return ListView{Filter: FilterAll, Page: 1} }

func (v *ListView) SetSearch(term string) {
	v.Search = term
	v.Page = 1
}

func (v *ListView) SetFilter(f Filter) {
	v.Filter = f
	v.Page = 1
}

// GoTo moves to page p when it is within [1, totalPages].
func (v *ListView) GoTo(p, totalPages int) bool {
	if p < 1 || p > totalPages {
		return false
	}
	v.Page = p
	return true
}

type PageResult struct {
	Items      []model.Order `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int           `json:"total"`
}

// Apply filters and paginates orders. The current page is clamped to the
// available range.
func (v *ListView) Apply(orders []model.Order) PageResult {
	filtered := FilterOrders(orders, v.Search, v.Filter)
	pages := TotalPages(len(filtered))
	if v.Page > pages {
		v.Page = pages
	}
	if v.Page < 1 {
		v.Page = 1
	}
	start := (v.Page - 1) * PageSize
	end := start + PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}
	return PageResult{Items: filtered[start:end], Page: v.Page, TotalPages: pages, Total: len(filtered)}
}

// ParsePriority parses the priority field; blank, invalid or zero means none.
func ParsePriority(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return nil
	}
	return &n
}

// OrdersAPI is the slice of the backend the order screens use.
type OrdersAPI interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListMaintainers(ctx context.Context) ([]model.Account, error)
	GetOrder(ctx context.Context, code int) (*model.OrderDetail, error)
	AssignOrder(ctx context.Context, code int, in model.AssignRequest) (*model.OrderRecord, error)
	CancelOrder(ctx context.Context, code int, reason string) (*model.MessageResponse, error)
	SetTaskObservation(ctx context.Context, code, n int, side apiclient.ObservationSide, text string) (*model.ObservationResponse, error)
}

// Orders drives the order list and detail screens for supervisors and maintainers.
type Orders struct {
	api  OrdersAPI
	sess *session.Session

	List        []model.Order
	Maintainers []model.Account
}

func NewOrders(api OrdersAPI, sess *session.Session) *Orders {
	return &Orders{api: api, sess: sess}
}

// Refresh refetches the order list and updates the list counters.
func (o *Orders) Refresh(ctx context.Context) error {
	list, err := o.api.ListOrders(ctx)
	if err != nil {
		return err
	}
	o.List = list

	assigned := 0
	for _, it := range list {
		if it.Assigned() {
			assigned++
		}
	}
	oc := o.sess.Order()
	oc.CountTotal = len(list)
	oc.CountAssigned = assigned
	return o.sess.SetOrder(ctx, oc)
}

func (o *Orders) LoadMaintainers(ctx context.Context) error {
	ms, err := o.api.ListMaintainers(ctx)
	if err != nil {
		return err
	}
	o.Maintainers = ms
	return nil
}

// Detail fetches one order and focuses it in the session.
func (o *Orders) Detail(ctx context.Context, code int) (*model.OrderDetail, error) {
	d, err := o.api.GetOrder(ctx, code)
	if err != nil {
		fail(ctx, o.sess, fmt.Sprintf("No se pudo cargar la orden %d.", code))
		return nil, err
	}
	oc := o.sess.Order()
	oc.Active = code
	oc.Annexes = d.Order.Data.Protocols()
	if err := o.sess.SetOrder(ctx, oc); err != nil {
		return nil, err
	}
	return d, nil
}

// Assign hands an order to a maintainer, then refetches the list.
func (o *Orders) Assign(ctx context.Context, orderCode, maintainerCode int, obs, priority string) error {
	if orderCode == 0 || maintainerCode == 0 {
		notify(ctx, o.sess, model.NotifyWarning, "Asignación", MsgMissingSelection, NoticeDuration)
		return ErrMissingSelection
	}
	req := model.AssignRequest{
		AssignedTo:  maintainerCode,
		Observation: obs,
		Priority:    ParsePriority(priority),
	}
	if _, err := o.api.AssignOrder(ctx, orderCode, req); err != nil {
		fail(ctx, o.sess, fmt.Sprintf("Error al asignar la orden %d: %v", orderCode, err))
		return err
	}
	log.Info().Int("order", orderCode).Int("maintainer", maintainerCode).Msg("order assigned")
	notify(ctx, o.sess, model.NotifySuccess, "Asignación", fmt.Sprintf("Orden %d asignada.", orderCode), NoticeDuration)

	if err := o.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefetch, err)
	}
	if err := o.LoadMaintainers(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefetch, err)
	}
	return nil
}

// Cancel asks for confirmation and a reason; dismissing either sends nothing.
func (o *Orders) Cancel(ctx context.Context, code int, p Prompter) error {
	if !p.Confirm(MsgCancelConfirm) {
		return ErrAborted
	}
	reason, ok := p.Prompt(MsgCancelReason, "")
	if !ok {
		return ErrAborted
	}
	if _, err := o.api.CancelOrder(ctx, code, reason); err != nil {
		fail(ctx, o.sess, "Error al cancelar la orden. Por favor, inténtalo de nuevo.")
		return err
	}
	log.Info().Int("order", code).Msg("order cancelled")
	notify(ctx, o.sess, model.NotifySuccess, "Orden cancelada", fmt.Sprintf("Orden %d cancelada.", code), NoticeDuration)
	if err := o.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefetch, err)
	}
	return nil
}

// SetObservation updates the supervisor or maintainer note on task n and
// returns the refetched order. Closed orders take no notes.
func (o *Orders) SetObservation(ctx context.Context, d *model.OrderDetail, n int, side apiclient.ObservationSide, p Prompter) (*model.OrderDetail, error) {
	if d.Order.Status.Closed() {
		return d, ErrOrderClosed
	}
	if !hasTask(d, n) {
		return d, ErrNoSuchTask
	}
	if !p.Confirm(MsgObsConfirm) {
		return d, ErrAborted
	}
	current := ""
	if t, ok := d.TaskByNumber(n); ok {
		current = t.ObsAssignedBy
		if side == apiclient.ObservationMaintainer {
			current = t.ObsAssignedTo
		}
	}
	text, ok := p.Prompt(MsgObsPrompt, current)
	if !ok {
		return d, ErrAborted
	}
	if _, err := o.api.SetTaskObservation(ctx, d.Order.Code, n, side, text); err != nil {
		fail(ctx, o.sess, "No se pudo guardar la observación.")
		return d, err
	}
	notify(ctx, o.sess, model.NotifySuccess, "Observación", "Observación guardada.", NoticeDuration)
	return o.Detail(ctx, d.Order.Code)
}

func hasTask(d *model.OrderDetail, n int) bool {
	if n < 1 {
		return false
	}
	if _, ok := d.TaskByNumber(n); ok {
		return true
	}
	return n <= len(d.Order.Data.Tasks())
}
