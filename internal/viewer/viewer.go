// Package viewer serves a read-only JSON view of a workbench over HTTP.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/workbench"
)

// LoadingResponse is one resource's load and capacity per day.
type LoadingResponse struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Load       []float64 `json:"load"`
	Capacity   []float64 `json:"capacity"`
	Overloaded []int     `json:"overloaded_days"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	wb     *workbench.Workbench
	logger *slog.Logger
}

// Router builds the gin engine for wb.
//
//	GET /          endpoint index
//	GET /project   snapshot of the visible tasks and resources
//	GET /loading   per-resource load against capacity
//	GET /critical  critical path of ?ids=1,2,3 (default: visible tasks)
//	GET /tags      every tag in use
//	GET /cycle     one dependency cycle, or null
func Router(wb *workbench.Workbench, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{wb: wb, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests)

	r.GET("/", h.index)
	r.GET("/project", h.project)
	r.GET("/loading", h.loading)
	r.GET("/critical", h.critical)
	r.GET("/tags", h.tags)
	r.GET("/cycle", h.cycle)
	return r
}

func (h *handlers) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.logger.Debug("viewer request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"elapsed", time.Since(start))
}

func (h *handlers) index(c *gin.Context) {
	c.String(http.StatusOK, "planloom viewer\n\n/project\n/loading\n/critical?ids=1,2,3\n/tags\n/cycle\n")
}

func (h *handlers) project(c *gin.Context) {
	c.JSON(http.StatusOK, h.wb.Snapshot())
}

func (h *handlers) loading(c *gin.Context) {
	snap := h.wb.Snapshot()
	out := make([]LoadingResponse, 0, len(snap.Resources))
	for _, res := range snap.Resources {
		load := snap.Loading[res.ID]
		over := []int{}
		for k, l := range load {
			if model.Overloaded(l, res.Capacity[k]) {
				over = append(over, k)
			}
		}
		out = append(out, LoadingResponse{
			ID:         res.ID,
			Name:       res.Name,
			Load:       load,
			Capacity:   res.Capacity,
			Overloaded: over,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) critical(c *gin.Context) {
	ids, err := ParseIDs(c.Query("ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	res, err := h.wb.CriticalPath(ids)
	switch {
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrCycleDetected):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case err != nil:
		h.logger.Error("critical path failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (h *handlers) tags(c *gin.Context) {
	c.JSON(http.StatusOK, h.wb.AllTags())
}

func (h *handlers) cycle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cycle": h.wb.FindCycle()})
}

// ParseIDs parses a comma-separated id list. The empty string is nil.
func ParseIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Start launches the viewer on the given port in the background and
// returns its base URL (e.g. "http://localhost:7171") and the server for
// shutdown.
func Start(wb *workbench.Workbench, port int, logger *slog.Logger) (string, *http.Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", nil, fmt.Errorf("listen on port %d: %w", port, err)
	}

	srv := &http.Server{
		Handler:           Router(wb, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if logger != nil {
				logger.Error("viewer stopped", "error", err)
			}
		}
	}()

	return fmt.Sprintf("http://localhost:%d", port), srv, nil
}

// IsPortOpen checks if something is listening on the given address.
func IsPortOpen(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
