package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"roster-dashboard-go/internal/testbackend"
	"roster-dashboard-go/models"
)

func sample() []models.Student {
	return []models.Student{
		{Roll: "S1", Name: "Ann", Age: "20", Branch: "CS", Marks: "85"},
		{Roll: "S2", Name: "Bob", Age: "21", Branch: "IT", Marks: "45"},
	}
}

func newClient(t *testing.T, url string) (*RosterClient, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewRosterClient(url, 2*time.Second, zap.New(core)), logs
}

// deadURL returns the address of a server that has already been shut down
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestLoadStudents(t *testing.T) {
	ctx := context.Background()

	t.Run("success keeps backend order", func(t *testing.T) {
		backend := testbackend.New(sample()...)
		defer backend.Close()
		client, _ := newClient(t, backend.URL())

		got := client.LoadStudents(ctx)
		require.Len(t, got, 2)
		assert.Equal(t, "S1", got[0].Roll)
		assert.Equal(t, "S2", got[1].Roll)
	})

	t.Run("empty roster is an empty slice, not nil", func(t *testing.T) {
		backend := testbackend.New()
		defer backend.Close()
		client, _ := newClient(t, backend.URL())

		got := client.LoadStudents(ctx)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("transport failure yields empty and logs", func(t *testing.T) {
		client, logs := newClient(t, deadURL(t))

		got := client.LoadStudents(ctx)
		assert.Empty(t, got)
		assert.Equal(t, 1, logs.FilterMessage("Error loading students").Len())
	})

	t.Run("non-JSON body yields empty", func(t *testing.T) {
		backend := testbackend.New(sample()...)
		defer backend.Close()
		backend.Fail(testbackend.ListStudents, testbackend.Fault{Status: http.StatusOK, Garbage: true})
		client, logs := newClient(t, backend.URL())

		assert.Empty(t, client.LoadStudents(ctx))
		assert.Equal(t, 1, logs.FilterMessage("Error loading students").Len())
	})

	t.Run("error status yields empty", func(t *testing.T) {
		backend := testbackend.New(sample()...)
		defer backend.Close()
		backend.Fail(testbackend.ListStudents, testbackend.Fault{Status: http.StatusInternalServerError, Message: "db down"})
		client, _ := newClient(t, backend.URL())

		assert.Empty(t, client.LoadStudents(ctx))
	})
}

func TestLoadStats(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		backend := testbackend.New(sample()...)
		defer backend.Close()
		client, _ := newClient(t, backend.URL())

		stats := client.LoadStats(ctx)
		assert.Equal(t, models.Stats{Total: "2", AvgMarks: "65", TopMarks: "85", Branches: "2"}, stats)
	})

	t.Run("string values are kept verbatim", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"total":"2","avg_marks":"65.00","top_marks":"85","branches":2}`))
		}))
		defer srv.Close()
		client, _ := newClient(t, srv.URL)

		stats := client.LoadStats(ctx)
		assert.Equal(t, models.Stats{Total: "2", AvgMarks: "65.00", TopMarks: "85", Branches: "2"}, stats)
	})

	t.Run("failure yields zero summary", func(t *testing.T) {
		client, logs := newClient(t, deadURL(t))

		assert.Equal(t, models.Stats{}, client.LoadStats(ctx))
		assert.Equal(t, 1, logs.FilterMessage("Error loading stats").Len())
	})
}

func TestAddStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("success reports backend message", func(t *testing.T) {
		backend := testbackend.New()
		defer backend.Close()
		client, _ := newClient(t, backend.URL())

		res := client.AddStudent(ctx, models.Student{Roll: "S1", Name: "Ann", Age: "20", Branch: "CS", Marks: "85"})
		assert.True(t, res.Success)
		assert.Equal(t, "Student added successfully!", res.Message)
		require.Len(t, backend.Students(), 1)
		assert.Equal(t, models.Text("85"), backend.Students()[0].Marks)
	})

	t.Run("backend rejection relays message", func(t *testing.T) {
		backend := testbackend.New(sample()...)
		defer backend.Close()
		client, _ := newClient(t, backend.URL())

		res := client.AddStudent(ctx, models.Student{Roll: "S1", Name: "Dup"})
		assert.False(t, res.Success)
		assert.Equal(t, "Roll number already exists!", res.Message)
	})

	t.Run("transport failure uses fallback", func(t *testing.T) {
		client, logs := newClient(t, deadURL(t))

		res := client.AddStudent(ctx, models.Student{Roll: "S1"})
		assert.Equal(t, models.Result{Success: false, Message: MsgAddFailed}, res)
		assert.Equal(t, 1, logs.FilterMessage("Error calling backend").Len())
	})

	t.Run("non-JSON body uses fallback even on 2xx", func(t *testing.T) {
		backend := testbackend.New()
		defer backend.Close()
		backend.Fail(testbackend.AddStudent, testbackend.Fault{Status: http.StatusOK, Garbage: true})
		client, _ := newClient(t, backend.URL())

		res := client.AddStudent(ctx, models.Student{Roll: "S1"})
		assert.Equal(t, models.Result{Success: false, Message: MsgAddFailed}, res)
	})
}

func TestSearchStudent(t *testing.T) {
	ctx := context.Background()
	backend := testbackend.New(append(sample(), models.Student{Roll: "S 7", Name: "Slash"})...)
	defer backend.Close()
	client, _ := newClient(t, backend.URL())

	t.Run("found", func(t *testing.T) {
		got := client.SearchStudent(ctx, "S2")
		require.NotNil(t, got)
		assert.Equal(t, "Bob", got.Name)
	})

	t.Run("roll is escaped in the path", func(t *testing.T) {
		got := client.SearchStudent(ctx, "S 7")
		require.NotNil(t, got)
		assert.Equal(t, "Slash", got.Name)
	})

	t.Run("not found is nil", func(t *testing.T) {
		assert.Nil(t, client.SearchStudent(ctx, "ZZ"))
	})

	t.Run("transport failure is nil", func(t *testing.T) {
		dead, logs := newClient(t, deadURL(t))
		assert.Nil(t, dead.SearchStudent(ctx, "S1"))
		assert.Equal(t, 1, logs.FilterMessage("Error searching student").Len())
	})
}

func TestUpdateStudent(t *testing.T) {
	ctx := context.Background()
	backend := testbackend.New(sample()...)
	defer backend.Close()
	client, _ := newClient(t, backend.URL())

	res := client.UpdateStudent(ctx, 1, models.Update{Name: "Bobby", Age: "22", Branch: "ECE", Marks: "77"})
	assert.True(t, res.Success)

	got := backend.Students()[1]
	assert.Equal(t, "S2", got.Roll, "roll is immutable")
	assert.Equal(t, "Bobby", got.Name)
	assert.Equal(t, models.Text("77"), got.Marks)

	res = client.UpdateStudent(ctx, 9, models.Update{Name: "Nobody"})
	assert.False(t, res.Success)
	assert.Equal(t, "Student not found", res.Message)

	dead, _ := newClient(t, deadURL(t))
	assert.Equal(t, MsgUpdateFailed, dead.UpdateStudent(ctx, 0, models.Update{}).Message)
}

func TestDeleteStudent(t *testing.T) {
	ctx := context.Background()
	backend := testbackend.New(sample()...)
	defer backend.Close()
	client, _ := newClient(t, backend.URL())

	res := client.DeleteStudent(ctx, 0)
	assert.True(t, res.Success)
	require.Len(t, backend.Students(), 1)
	assert.Equal(t, "S2", backend.Students()[0].Roll)

	res = client.DeleteStudent(ctx, 5)
	assert.False(t, res.Success)

	dead, _ := newClient(t, deadURL(t))
	assert.Equal(t, models.Result{Message: MsgDeleteFailed}, dead.DeleteStudent(ctx, 0))
}
