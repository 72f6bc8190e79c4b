package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"roster-dashboard-go/dashboard"
	"roster-dashboard-go/models"
	"roster-dashboard-go/sheet"
)

const (
	sessionCookie = "roster_session"
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUpload     = 8 << 20
)

// DashboardHandler holds the dependencies for the dashboard pages
type DashboardHandler struct {
	Dashboard  *dashboard.Dashboard
	Store      dashboard.Store
	Roster     sheet.Adder
	Branches   []string
	SessionTTL time.Duration
	logger     *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(d *dashboard.Dashboard, store dashboard.Store, roster sheet.Adder, branches []string, sessionTTL time.Duration, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		Dashboard:  d,
		Store:      store,
		Roster:     roster,
		Branches:   branches,
		SessionTTL: sessionTTL,
		logger:     logger.Named("http"),
	}
}

// RegisterRoutes wires the dashboard routes into router
func (h *DashboardHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.page(h.Index))
	router.GET("/search", h.page(h.Search))

	students := router.Group("/students")
	{
		students.GET("/new", h.action(h.OpenAdd))
		students.GET("/:index/edit", h.action(h.OpenEdit))
		students.GET("/:index/delete", h.action(h.OpenDelete))
		students.POST("", h.action(h.Save))
		students.POST("/delete", h.action(h.ConfirmDelete))
	}

	router.GET("/modal/close", h.action(h.CloseModal))
	router.POST("/modal/close", h.action(h.CloseModal))

	router.GET("/lookup/:roll", h.Lookup)
	router.GET("/export.xlsx", h.Export)
	router.POST("/import", h.action(h.Import))
	router.GET("/healthz", PingHandler)
}

// --- Session plumbing ---

type stateFunc func(c *gin.Context, st *dashboard.State)

func (h *DashboardHandler) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(h.SessionTTL.Seconds()), "/", "", false, true)
	return id
}

// load returns the session state; on store failure a blank state is used so
// the page still renders.
func (h *DashboardHandler) load(c *gin.Context) (string, *dashboard.State) {
	id := h.sessionID(c)
	st, err := h.Store.Load(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Error loading session", zap.String("session", id), zap.Error(err))
		st = dashboard.NewState()
	}
	return id, st
}

func (h *DashboardHandler) save(c *gin.Context, id string, st *dashboard.State) {
	if err := h.Store.Save(c.Request.Context(), id, st); err != nil {
		h.logger.Error("Error saving session", zap.String("session", id), zap.Error(err))
	}
}

// action runs fn against the session, stores the result as the view for the
// next page load and redirects there.
func (h *DashboardHandler) action(fn stateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, st := h.load(c)
		fn(c, st)
		st.Fresh = true
		h.save(c, id, st)
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// page runs fn against the session and renders the dashboard.
func (h *DashboardHandler) page(fn stateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, st := h.load(c)
		fn(c, st)
		toasts := h.Dashboard.ActiveToasts(st)
		h.save(c, id, st)
		c.HTML(http.StatusOK, "index.html", pageData{
			State:    st,
			Toasts:   toasts,
			Branches: h.Branches,
		})
	}
}

type pageData struct {
	State    *dashboard.State
	Toasts   []dashboard.ActiveToast
	Branches []string
}

// indexParam reads :index; a malformed value maps to -1, which no record matches
func indexParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return -1
	}
	return n
}

// --- Pages ---

// Index handles GET /
func (h *DashboardHandler) Index(c *gin.Context, st *dashboard.State) {
	h.Dashboard.Load(c.Request.Context(), st)
}

// Search handles GET /search?q=
func (h *DashboardHandler) Search(c *gin.Context, st *dashboard.State) {
	st.Fresh = false
	h.Dashboard.Search(c.Request.Context(), st, c.Query("q"))
	if st.Stats == (dashboard.StatsView{}) {
		h.Dashboard.UpdateStats(c.Request.Context(), st)
	}
}

// --- Actions ---

// OpenAdd handles GET /students/new
func (h *DashboardHandler) OpenAdd(c *gin.Context, st *dashboard.State) {
	h.Dashboard.OpenModal(c.Request.Context(), st, dashboard.ModeAdd, -1, "")
}

// OpenEdit handles GET /students/:index/edit?roll=
func (h *DashboardHandler) OpenEdit(c *gin.Context, st *dashboard.State) {
	h.Dashboard.OpenModal(c.Request.Context(), st, dashboard.ModeEdit, indexParam(c), c.Query("roll"))
}

// OpenDelete handles GET /students/:index/delete?roll=
func (h *DashboardHandler) OpenDelete(c *gin.Context, st *dashboard.State) {
	h.Dashboard.OpenDeleteModal(c.Request.Context(), st, indexParam(c), c.Query("roll"))
}

// Save handles POST /students
func (h *DashboardHandler) Save(c *gin.Context, st *dashboard.State) {
	var form dashboard.Form
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Warn("Invalid form", zap.Error(err))
		h.Dashboard.ShowToast(st, "Invalid form submission", dashboard.SeverityError)
		return
	}
	h.Dashboard.SaveStudent(c.Request.Context(), st, form)
}

// ConfirmDelete handles POST /students/delete
func (h *DashboardHandler) ConfirmDelete(c *gin.Context, st *dashboard.State) {
	h.Dashboard.ConfirmDelete(c.Request.Context(), st)
}

// CloseModal handles /modal/close?which=student|delete|all
func (h *DashboardHandler) CloseModal(c *gin.Context, st *dashboard.State) {
	switch c.DefaultQuery("which", "all") {
	case "student":
		h.Dashboard.CloseModal(st)
	case "delete":
		h.Dashboard.CloseDeleteModal(st)
	default:
		h.Dashboard.Escape(st)
	}
}

// Import handles POST /import (multipart field "file")
func (h *DashboardHandler) Import(c *gin.Context, st *dashboard.State) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.logger.Warn("Error getting form file", zap.Error(err))
		h.Dashboard.ShowToast(st, "Please choose an .xlsx file to import", dashboard.SeverityError)
		return
	}
	defer file.Close()

	report, err := sheet.Import(ctx, file, h.Roster, h.logger)
	if err != nil {
		h.logger.Error("Error importing students", zap.String("file", header.Filename), zap.Error(err))
		h.Dashboard.ShowToast(st, "Failed to import students: "+err.Error(), dashboard.SeverityError)
		return
	}

	severity := dashboard.SeveritySuccess
	if report.Failed > 0 {
		severity = dashboard.SeverityWarning
	}
	h.Dashboard.ShowToast(st, importSummary(report), severity)
	h.Dashboard.RenderStudents(ctx, st, nil)
	h.Dashboard.UpdateStats(ctx, st)
}

func importSummary(r sheet.Report) string {
	msg := "Imported " + strconv.Itoa(r.Imported) + " students"
	if r.Skipped > 0 {
		msg += ", skipped " + strconv.Itoa(r.Skipped)
	}
	if r.Failed > 0 {
		msg += ", " + strconv.Itoa(r.Failed) + " rejected"
	}
	return msg
}

// --- Direct endpoints ---

// Lookup handles GET /lookup/:roll
func (h *DashboardHandler) Lookup(c *gin.Context) {
	student := h.Dashboard.Lookup(c.Request.Context(), c.Param("roll"))
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, student)
}

// Export handles GET /export.xlsx, writing the rows currently on screen
func (h *DashboardHandler) Export(c *gin.Context) {
	_, st := h.load(c)

	students := make([]models.Student, 0, len(st.View.Rows))
	for _, r := range st.View.Rows {
		students = append(students, r.Student)
	}

	var buf bytes.Buffer
	if err := sheet.Export(&buf, students); err != nil {
		h.logger.Error("Error exporting roster", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to export roster"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="roster.xlsx"`)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// PingHandler handles GET /healthz
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
