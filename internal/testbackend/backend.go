// Package testbackend is an in-memory stand-in for the roster REST backend,
// used by tests across the module.
package testbackend

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"roster-dashboard-go/models"
)

// Fault makes an endpoint misbehave
type Fault struct {
	Status  int    // HTTP status to answer with
	Message string // message body; ignored when Garbage is set
	Garbage bool   // answer with a non-JSON body
}

// Backend serves the six roster endpoints over an in-memory slice
type Backend struct {
	mu       sync.Mutex
	students []models.Student
	faults   map[string]Fault
	calls    map[string]int

	Server *httptest.Server
}

// Endpoint keys for faults and call counts
const (
	ListStudents = "GET /api/students"
	GetStats     = "GET /api/stats"
	AddStudent   = "POST /api/students"
	GetStudent   = "GET /api/students/:roll"
	UpdateIndex  = "PUT /api/students/index/:index"
	DeleteIndex  = "DELETE /api/students/index/:index"
)

// New starts a backend seeded with students. Call Close when done.
func New(students ...models.Student) *Backend {
	gin.SetMode(gin.TestMode)
	b := &Backend{
		students: append([]models.Student(nil), students...),
		faults:   map[string]Fault{},
		calls:    map[string]int{},
	}

	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/students", b.wrap(ListStudents, b.list))
		api.POST("/students", b.wrap(AddStudent, b.add))
		api.GET("/students/:roll", b.wrap(GetStudent, b.get))
		api.PUT("/students/index/:index", b.wrap(UpdateIndex, b.update))
		api.DELETE("/students/index/:index", b.wrap(DeleteIndex, b.remove))
		api.GET("/stats", b.wrap(GetStats, b.stats))
	}
	b.Server = httptest.NewServer(router)
	return b
}

// URL is the base URL of the backend
func (b *Backend) URL() string { return b.Server.URL }

// Close shuts the server down
func (b *Backend) Close() { b.Server.Close() }

// Fail injects a fault for endpoint
func (b *Backend) Fail(endpoint string, f Fault) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[endpoint] = f
}

// Heal removes every injected fault
func (b *Backend) Heal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = map[string]Fault{}
}

// Calls returns how many times endpoint was hit
func (b *Backend) Calls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[endpoint]
}

// Mutations counts add, update and delete calls
func (b *Backend) Mutations() int {
	return b.Calls(AddStudent) + b.Calls(UpdateIndex) + b.Calls(DeleteIndex)
}

// Students returns a copy of the stored roster
func (b *Backend) Students() []models.Student {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Student(nil), b.students...)
}

func (b *Backend) wrap(endpoint string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		b.mu.Lock()
		b.calls[endpoint]++
		f, faulty := b.faults[endpoint]
		b.mu.Unlock()

		if faulty {
			if f.Garbage {
				c.Data(f.Status, "text/html", []byte("<html>oops</html>"))
				return
			}
			c.JSON(f.Status, gin.H{"message": f.Message})
			return
		}
		h(c)
	}
}

func (b *Backend) list(c *gin.Context) {
	c.JSON(http.StatusOK, b.Students())
}

func (b *Backend) get(c *gin.Context) {
	roll := c.Param("roll")
	for _, s := range b.Students() {
		if s.Roll == roll {
			c.JSON(http.StatusOK, s)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
}

func (b *Backend) add(c *gin.Context) {
	var s models.Student
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.students {
		if existing.Roll == s.Roll {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Roll number already exists!"})
			return
		}
	}
	b.students = append(b.students, s)
	c.JSON(http.StatusCreated, gin.H{"message": "Student added successfully!"})
}

func (b *Backend) update(c *gin.Context) {
	var u models.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index(c)
	if !ok {
		return
	}
	s := &b.students[i]
	s.Name, s.Age, s.Branch, s.Marks = u.Name, models.Text(u.Age), u.Branch, models.Text(u.Marks)
	c.JSON(http.StatusOK, gin.H{"message": "Student updated successfully!"})
}

func (b *Backend) remove(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index(c)
	if !ok {
		return
	}
	b.students = append(b.students[:i], b.students[i+1:]...)
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully!"})
}

// index parses the :index param; caller holds mu
func (b *Backend) index(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 || i >= len(b.students) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return 0, false
	}
	return i, true
}

func (b *Backend) stats(c *gin.Context) {
	students := b.Students()
	var sum, top float64
	branches := map[string]struct{}{}
	for _, s := range students {
		m, _ := strconv.ParseFloat(strings.TrimSpace(string(s.Marks)), 64)
		sum += m
		if m > top {
			top = m
		}
		branches[s.Branch] = struct{}{}
	}
	avg := 0.0
	if len(students) > 0 {
		avg = sum / float64(len(students))
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     len(students),
		"avg_marks": avg,
		"top_marks": top,
		"branches":  len(branches),
	})
}
