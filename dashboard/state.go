package dashboard

import (
	"time"

	"roster-dashboard-go/models"
)

// ModalKind tags the variant held by a Modal
type ModalKind string

const (
	ModalClosed ModalKind = "closed"
	ModalAdd    ModalKind = "add"
	ModalEdit   ModalKind = "edit"
	ModalDelete ModalKind = "delete"
)

// Modal is Closed | AddOpen | EditOpen(position) | DeleteOpen(position, name).
// Position is an index into the roster as fetched when the modal opened.
type Modal struct {
	Kind     ModalKind `json:"kind"`
	Position int       `json:"position"`
	Name     string    `json:"name,omitempty"`
}

// Closed is the state of a hidden modal
func Closed() Modal { return Modal{Kind: ModalClosed} }

// AddOpen is the record modal in add mode
func AddOpen() Modal { return Modal{Kind: ModalAdd} }

// EditOpen is the record modal editing the record at position
func EditOpen(position int) Modal { return Modal{Kind: ModalEdit, Position: position} }

// DeleteOpen is the confirmation modal for the record at position
func DeleteOpen(position int, name string) Modal {
	return Modal{Kind: ModalDelete, Position: position, Name: name}
}

// IsOpen reports whether the modal is showing
func (m Modal) IsOpen() bool {
	return m.Kind != "" && m.Kind != ModalClosed
}

// Form mirrors the record form inputs. EditIndex is the hidden edit-position
// marker; empty means the form adds a new record.
type Form struct {
	Roll         string `json:"roll" form:"roll"`
	Name         string `json:"name" form:"name"`
	Age          string `json:"age" form:"age"`
	Branch       string `json:"branch" form:"branch"`
	Marks        string `json:"marks" form:"marks"`
	EditIndex    string `json:"edit_index" form:"edit_index"`
	RollDisabled bool   `json:"roll_disabled" form:"-"`
}

// Row is one rendered table row
type Row struct {
	Position    int              `json:"position"`     // index in the rendered list
	SourceIndex int              `json:"source_index"` // index in the roster as fetched
	Student     models.Student   `json:"student"`
	Tier        models.MarksTier `json:"tier"`
	RollEscaped string           `json:"roll_escaped"`
}

// View is the rendered table
type View struct {
	Rows  []Row `json:"rows"`
	Empty bool  `json:"empty"`
}

// StatsView holds the display strings of the four stat slots
type StatsView struct {
	Total    string `json:"total"`
	AvgMarks string `json:"avg_marks"`
	TopMarks string `json:"top_marks"`
	Branches string `json:"branches"`
}

// Severity of a notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Toast is a timed notification
type Toast struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Created  time.Time `json:"created"`
}

// State is everything one browser session needs to render the dashboard
type State struct {
	StudentModal Modal     `json:"student_modal"`
	DeleteModal  Modal     `json:"delete_modal"`
	Form         Form      `json:"form"`
	Query        string    `json:"query"`
	View         View      `json:"view"`
	Stats        StatsView `json:"stats"`
	Toasts       []Toast   `json:"toasts"`

	// Fresh marks View and Stats as produced by the action that just ran;
	// the next page load shows them once instead of refetching.
	Fresh bool `json:"fresh"`
}

// NewState returns the state of a freshly opened page
func NewState() *State {
	return &State{
		StudentModal: Closed(),
		DeleteModal:  Closed(),
		View:         View{Empty: true},
	}
}
