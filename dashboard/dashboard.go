// Package dashboard holds the roster UI state machine: rendering the table
// and stats, live search, the record and delete modals, and notifications.
// Every operation takes the session's *State explicitly.
package dashboard

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"roster-dashboard-go/models"
)

// RosterAPI is the backend data access used by the dashboard
type RosterAPI interface {
	LoadStudents(ctx context.Context) []models.Student
	LoadStats(ctx context.Context) models.Stats
	AddStudent(ctx context.Context, student models.Student) models.Result
	SearchStudent(ctx context.Context, roll string) *models.Student
	UpdateStudent(ctx context.Context, index int, update models.Update) models.Result
	DeleteStudent(ctx context.Context, index int) models.Result
}

// Mode selects how the record modal opens
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// Toast texts
const (
	MsgAdded         = "Student added successfully!"
	MsgUpdated       = "Student updated successfully!"
	MsgDeleted       = "Student deleted successfully!"
	MsgRowNotFound   = "Student not found. The list may have changed, please refresh."
	MsgInvalidMarker = "Invalid record position!"
)

// Dashboard drives the UI flows against the backend
type Dashboard struct {
	api      RosterAPI
	logger   *zap.Logger
	toastTTL time.Duration
	now      func() time.Time
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithToastTTL sets how long notifications stay visible
func WithToastTTL(ttl time.Duration) Option {
	return func(d *Dashboard) {
		if ttl > 0 {
			d.toastTTL = ttl
		}
	}
}

// New creates a Dashboard over api
func New(api RosterAPI, logger *zap.Logger, opts ...Option) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dashboard{
		api:      api,
		logger:   logger.Named("dashboard"),
		toastTTL: 4 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load handles a page load. A view left by the preceding action is shown
// as is, once. Otherwise the page starts over: both modals closed, the form
// and search box cleared, the full roster and stats fetched. A session that
// has never fetched stats always fetches them.
func (d *Dashboard) Load(ctx context.Context, st *State) {
	if st.Fresh {
		st.Fresh = false
		if st.Stats == (StatsView{}) {
			d.RenderStudents(ctx, st, nil)
			d.UpdateStats(ctx, st)
		}
		return
	}
	d.Escape(st)
	st.Form = Form{}
	st.Query = ""
	d.RenderStudents(ctx, st, nil)
	d.UpdateStats(ctx, st)
}

// --- Rendering ---

// indexed is a record paired with its index in the fetched roster
type indexed struct {
	source  int
	student models.Student
}

// RenderStudents renders list, fetching the full roster when list is nil.
func (d *Dashboard) RenderStudents(ctx context.Context, st *State, list []models.Student) {
	if list == nil {
		list = d.api.LoadStudents(ctx)
	}
	entries := make([]indexed, len(list))
	for i, s := range list {
		entries[i] = indexed{source: i, student: s}
	}
	d.render(st, entries)
}

func (d *Dashboard) render(st *State, entries []indexed) {
	if len(entries) == 0 {
		st.View = View{Empty: true}
		return
	}
	rows := make([]Row, 0, len(entries))
	for pos, e := range entries {
		rows = append(rows, Row{
			Position:    pos,
			SourceIndex: e.source,
			Student:     e.student,
			Tier:        models.TierFor(string(e.student.Marks)),
			RollEscaped: url.PathEscape(e.student.Roll),
		})
	}
	st.View = View{Rows: rows}
}

// UpdateStats fetches the summary and writes the four display slots
func (d *Dashboard) UpdateStats(ctx context.Context, st *State) {
	st.Stats = statsView(d.api.LoadStats(ctx))
}

func statsView(s models.Stats) StatsView {
	return StatsView{
		Total:    orZero(s.Total),
		AvgMarks: orZero(s.AvgMarks) + "%",
		TopMarks: orZero(s.TopMarks) + "%",
		Branches: orZero(s.Branches),
	}
}

// orZero shows a missing value as 0
func orZero(t models.Text) string {
	if t == "" {
		return "0"
	}
	return string(t)
}

// --- Search ---

// Search filters the roster by a case-insensitive substring of name, roll
// or branch. The roster is refetched on every call. Rows of a filtered view
// keep the index of their record in the fetched roster, so edit and delete
// launched from the filtered view target the record that was clicked.
func (d *Dashboard) Search(ctx context.Context, st *State, raw string) {
	st.Query = raw
	query := strings.ToLower(strings.TrimSpace(raw))
	if query == "" {
		d.RenderStudents(ctx, st, nil)
		return
	}

	students := d.api.LoadStudents(ctx)
	var matched []indexed
	for i, s := range students {
		if Matches(s, query) {
			matched = append(matched, indexed{source: i, student: s})
		}
	}
	d.logger.Debug("Search", zap.String("query", query), zap.Int("matched", len(matched)), zap.Int("total", len(students)))
	d.render(st, matched)
}

// Matches reports whether a lower-cased query occurs in the student's name,
// roll or branch.
func Matches(s models.Student, query string) bool {
	return strings.Contains(strings.ToLower(s.Name), query) ||
		strings.Contains(strings.ToLower(s.Roll), query) ||
		strings.Contains(strings.ToLower(s.Branch), query)
}

// --- Record modal ---

// OpenModal opens the record modal. In edit mode the roster is refetched and
// the record at index pre-fills the form, provided it still has the given
// roll.
func (d *Dashboard) OpenModal(ctx context.Context, st *State, mode Mode, index int, roll string) {
	st.Form = Form{}

	if mode == ModeEdit {
		if s, ok := d.target(ctx, index, roll); ok {
			st.Form = Form{
				Roll:         s.Roll,
				Name:         s.Name,
				Age:          string(s.Age),
				Branch:       s.Branch,
				Marks:        string(s.Marks),
				EditIndex:    strconv.Itoa(index),
				RollDisabled: true,
			}
			st.StudentModal = EditOpen(index)
			return
		}
		d.logger.Warn("Edit target not found", zap.Int("index", index), zap.String("roll", roll))
		d.ShowToast(st, MsgRowNotFound, SeverityWarning)
	}

	st.StudentModal = AddOpen()
}

// target refetches the roster and returns the record at index only when its
// roll matches the roll the row link was rendered with.
func (d *Dashboard) target(ctx context.Context, index int, roll string) (models.Student, bool) {
	students := d.api.LoadStudents(ctx)
	if index < 0 || index >= len(students) || students[index].Roll != roll {
		return models.Student{}, false
	}
	return students[index], true
}

// CloseModal hides the record modal and clears the edit target
func (d *Dashboard) CloseModal(st *State) {
	st.StudentModal = Closed()
}

// SaveStudent submits the record form: update when the edit marker is set,
// add otherwise.
//
// A failed add returns early and leaves the modal open with the form intact.
// A failed update still closes the modal and re-renders.
func (d *Dashboard) SaveStudent(ctx context.Context, st *State, form Form) {
	form.Roll = strings.TrimSpace(form.Roll)
	form.Name = strings.TrimSpace(form.Name)
	form.Age = strings.TrimSpace(form.Age)
	form.Marks = strings.TrimSpace(form.Marks)
	form.EditIndex = strings.TrimSpace(form.EditIndex)
	form.RollDisabled = form.EditIndex != ""
	st.Form = form

	if form.EditIndex != "" {
		var result models.Result
		index, err := strconv.Atoi(form.EditIndex)
		if err != nil {
			d.logger.Warn("Bad edit marker", zap.String("edit_index", form.EditIndex))
			result = models.Result{Message: MsgInvalidMarker}
		} else {
			result = d.api.UpdateStudent(ctx, index, models.Update{
				Name:   form.Name,
				Age:    form.Age,
				Branch: form.Branch,
				Marks:  form.Marks,
			})
		}
		if result.Success {
			d.ShowToast(st, MsgUpdated, SeveritySuccess)
		} else {
			d.ShowToast(st, result.Message, SeverityError)
		}
	} else {
		result := d.api.AddStudent(ctx, models.Student{
			Roll:   form.Roll,
			Name:   form.Name,
			Age:    models.Text(form.Age),
			Branch: form.Branch,
			Marks:  models.Text(form.Marks),
		})
		if !result.Success {
			d.ShowToast(st, result.Message, SeverityError)
			return
		}
		d.ShowToast(st, MsgAdded, SeveritySuccess)
	}

	d.CloseModal(st)
	d.RenderStudents(ctx, st, nil)
	d.UpdateStats(ctx, st)
}

// --- Delete modal ---

// OpenDeleteModal captures the record at index as the delete target, once
// the refetched roster confirms it still has the given roll.
func (d *Dashboard) OpenDeleteModal(ctx context.Context, st *State, index int, roll string) {
	s, ok := d.target(ctx, index, roll)
	if !ok {
		d.logger.Warn("Delete target not found", zap.Int("index", index), zap.String("roll", roll))
		d.ShowToast(st, MsgRowNotFound, SeverityWarning)
		return
	}
	st.DeleteModal = DeleteOpen(index, s.Name)
}

// CloseDeleteModal hides the confirmation and clears the target
func (d *Dashboard) CloseDeleteModal(st *State) {
	st.DeleteModal = Closed()
}

// ConfirmDelete deletes the target, then refreshes roster and stats whatever
// the outcome. Without a target it does nothing.
func (d *Dashboard) ConfirmDelete(ctx context.Context, st *State) {
	if st.DeleteModal.Kind != ModalDelete {
		return
	}
	result := d.api.DeleteStudent(ctx, st.DeleteModal.Position)
	if result.Success {
		d.ShowToast(st, MsgDeleted, SeveritySuccess)
	} else {
		d.ShowToast(st, result.Message, SeverityError)
	}

	d.CloseDeleteModal(st)
	d.RenderStudents(ctx, st, nil)
	d.UpdateStats(ctx, st)
}

// Escape closes both modals
func (d *Dashboard) Escape(st *State) {
	d.CloseModal(st)
	d.CloseDeleteModal(st)
}

// Lookup finds a single student by roll. Not part of the page flows.
func (d *Dashboard) Lookup(ctx context.Context, roll string) *models.Student {
	return d.api.SearchStudent(ctx, strings.TrimSpace(roll))
}
