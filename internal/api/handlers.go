package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/peteski22/booksync/internal/auth"
	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/sync"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// syncRequest is the optional body of POST /api/quickbooks/sync.
type syncRequest struct {
	DryRun   bool            `json:"dryRun"`
	SyncType mirror.SyncType `json:"syncType" binding:"omitempty,oneof=delta full"`
}

// syncResponse is the summary returned for a completed run.
type syncResponse struct {
	Details           map[mirror.Kind]sync.EntityResult `json:"details"`
	DryRun            bool                              `json:"dryRun"`
	Message           string                            `json:"message"`
	RequestedSyncType mirror.SyncType                   `json:"requestedSyncType"`
	RunID             uint                              `json:"runId"`
	SyncType          mirror.SyncType                   `json:"syncType"`
	TotalFailed       int                               `json:"totalFailed"`
	TotalFetched      int                               `json:"totalFetched"`
	TotalRecords      int                               `json:"totalRecords"`
	TransactionID     string                            `json:"transactionId"`
}

func newSyncResponse(res *sync.Result) syncResponse {
	details := make(map[mirror.Kind]sync.EntityResult, len(res.Entities))
	for _, e := range res.Entities {
		if e.FailedIDs == nil {
			e.FailedIDs = []string{}
		}
		details[e.Kind] = e
	}

	failed := res.TotalFailed()
	message := "Sync completed successfully"
	switch {
	case res.DryRun:
		message = "Dry run completed; no records were written"
	case failed > 0:
		message = fmt.Sprintf("Sync completed with %d failed records", failed)
	}

	return syncResponse{
		Details:           details,
		DryRun:            res.DryRun,
		Message:           message,
		RequestedSyncType: res.RequestedSyncType,
		RunID:             res.RunID,
		SyncType:          res.SyncType,
		TotalFailed:       failed,
		TotalFetched:      res.TotalFetched,
		TotalRecords:      res.TotalRecords,
		TransactionID:     res.TransactionID,
	}
}

// errorStatus maps engine errors to an HTTP status and client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, sync.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, sync.ErrForbidden):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, sync.ErrInvalidSyncType):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, sync.ErrNoConnection):
		return http.StatusNotFound, "No active QuickBooks connection found. Please connect first."
	case errors.Is(err, sync.ErrSyncInProgress):
		return http.StatusConflict, "A sync is already running for this connection"
	default:
		return http.StatusInternalServerError, "Sync failed: " + err.Error()
	}
}

func (s *server) triggerSync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	caller, _ := auth.FromContext(c.Request.Context())

	res, err := s.runner.Run(c.Request.Context(), sync.Request{
		Caller:   caller,
		DryRun:   req.DryRun,
		SyncType: req.SyncType,
	})
	if err != nil {
		status, message := errorStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.ErrorContext(c.Request.Context(), "sync failed",
				"error", err,
				"correlation_id", CorrelationID(c.Request.Context()),
			)
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, newSyncResponse(res))
}

// activeConnection authorizes the caller and loads their connection.
// It writes the error response and returns nil when the request cannot proceed.
func (s *server) activeConnection(c *gin.Context) *mirror.Connection {
	caller, ok := auth.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil
	}
	if !caller.CanSync() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil
	}

	conn, err := s.store.ActiveConnection(c.Request.Context(), caller.OrganizationID)
	if err != nil {
		s.logger.ErrorContext(c.Request.Context(), "failed to load connection", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch connection"})
		return nil
	}
	if conn == nil {
		c.JSON(http.StatusNotFound, gin.H{"connection": nil, "message": "No active QuickBooks connection"})
		return nil
	}

	return conn
}

func (s *server) connection(c *gin.Context) {
	conn := s.activeConnection(c)
	if conn == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"connection": conn, "message": "Connection retrieved successfully"})
}

func (s *server) syncRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	conn := s.activeConnection(c)
	if conn == nil {
		return
	}

	runs, err := s.store.RecentRuns(c.Request.Context(), conn.ID, limit)
	if err != nil {
		s.logger.ErrorContext(c.Request.Context(), "failed to list sync runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync runs"})
		return
	}
	if runs == nil {
		runs = []mirror.SyncRun{}
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *server) runFailures(c *gin.Context) {
	runID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || runID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}

	var kind mirror.Kind
	if raw := c.Query("kind"); raw != "" {
		kind, err = mirror.ParseKind(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	conn := s.activeConnection(c)
	if conn == nil {
		return
	}

	failures, err := s.store.RunFailures(c.Request.Context(), conn.ID, uint(runID), kind)
	if err != nil {
		s.logger.ErrorContext(c.Request.Context(), "failed to list run failures", "error", err, "run_id", runID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run failures"})
		return
	}
	if failures == nil {
		failures = []mirror.SyncFailure{}
	}

	c.JSON(http.StatusOK, gin.H{"failures": failures})
}
