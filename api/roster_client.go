package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"roster-dashboard-go/models"
)

const (
	studentsPath = "/api/students"
	statsPath    = "/api/stats"
	indexPath    = "/api/students/index/"
)

// Fallback messages for transport failures on mutating calls
const (
	MsgAddFailed    = "Error adding student!"
	MsgUpdateFailed = "Error updating student!"
	MsgDeleteFailed = "Error deleting student!"
)

// RosterClient wraps the backend roster endpoints. None of its methods return
// an error: every failure is logged and converted into the documented
// failure value.
type RosterClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewRosterClient creates a client for the backend at baseURL
func NewRosterClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RosterClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("api"),
	}
}

type messageBody struct {
	Message string `json:"message"`
}

// LoadStudents handles GET /api/students. Returns an empty roster on failure.
func (c *RosterClient) LoadStudents(ctx context.Context) []models.Student {
	students := []models.Student{}
	if err := c.getJSON(ctx, studentsPath, &students); err != nil {
		c.logger.Error("Error loading students", zap.Error(err))
		return []models.Student{}
	}
	if students == nil {
		return []models.Student{}
	}
	return students
}

// LoadStats handles GET /api/stats. Returns the zero summary on failure.
func (c *RosterClient) LoadStats(ctx context.Context) models.Stats {
	var stats models.Stats
	if err := c.getJSON(ctx, statsPath, &stats); err != nil {
		c.logger.Error("Error loading stats", zap.Error(err))
		return models.Stats{}
	}
	return stats
}

// AddStudent handles POST /api/students
func (c *RosterClient) AddStudent(ctx context.Context, student models.Student) models.Result {
	return c.mutate(ctx, "add", http.MethodPost, studentsPath, student, MsgAddFailed)
}

// SearchStudent handles GET /api/students/{roll}. Returns nil when the
// backend answers non-2xx or the call fails.
func (c *RosterClient) SearchStudent(ctx context.Context, roll string) *models.Student {
	var student models.Student
	err := c.getJSON(ctx, studentsPath+"/"+url.PathEscape(roll), &student)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			c.logger.Debug("Student lookup missed", zap.String("roll", roll), zap.Error(err))
		} else {
			c.logger.Error("Error searching student", zap.String("roll", roll), zap.Error(err))
		}
		return nil
	}
	return &student
}

// UpdateStudent handles PUT /api/students/index/{index}. The index is a
// position in the roster as last fetched, not the roll.
func (c *RosterClient) UpdateStudent(ctx context.Context, index int, update models.Update) models.Result {
	return c.mutate(ctx, "update", http.MethodPut, indexPath+strconv.Itoa(index), update, MsgUpdateFailed)
}

// DeleteStudent handles DELETE /api/students/index/{index}
func (c *RosterClient) DeleteStudent(ctx context.Context, index int) models.Result {
	return c.mutate(ctx, "delete", http.MethodDelete, indexPath+strconv.Itoa(index), nil, MsgDeleteFailed)
}

// --- Transport helpers ---

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.code)
}

func (c *RosterClient) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &statusError{code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *RosterClient) mutate(ctx context.Context, op, method, path string, body interface{}, fallback string) models.Result {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		c.logger.Error("Error calling backend", zap.String("op", op), zap.Error(err))
		return models.Result{Success: false, Message: fallback}
	}
	defer resp.Body.Close()

	var msg messageBody
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		c.logger.Error("Error decoding backend response",
			zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Error(err))
		return models.Result{Success: false, Message: fallback}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok {
		c.logger.Warn("Backend rejected request",
			zap.String("op", op), zap.Int("status", resp.StatusCode), zap.String("message", msg.Message))
	}
	return models.Result{Success: ok, Message: msg.Message}
}

func (c *RosterClient) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
