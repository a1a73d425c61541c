// api/handlers/query_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Annany2002/nebula-query-gateway/api/middleware"
	"github.com/Annany2002/nebula-query-gateway/internal/auth"
	"github.com/Annany2002/nebula-query-gateway/internal/core"
	"github.com/Annany2002/nebula-query-gateway/internal/domain"
	"github.com/Annany2002/nebula-query-gateway/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// QueryExecutor runs one statement against the database named in the request.
type QueryExecutor interface {
	Execute(ctx context.Context, req domain.QueryRequest) (domain.QueryResult, error)
}

// QueryHandler holds dependencies for the query endpoint.
type QueryHandler struct {
	Executor QueryExecutor
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(executor QueryExecutor) *QueryHandler {
	return &QueryHandler{Executor: executor}
}

// ExecuteQuery handles POST /query. APIKeyAuth has already resolved the
// credential; every failure below is attached with c.Error and answered by
// the ErrorHandler middleware.
func (h *QueryHandler) ExecuteQuery(c *gin.Context) {
	log := customLog.WithField("request_id", c.GetString(middleware.RequestIDKey))
	credential := middleware.CredentialFrom(c)
	if !credential.CanRead() {
		_ = c.Error(auth.ErrAuthInvalid)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", core.ErrMalformedBody, err))
		return
	}

	req, err := core.ValidateQueryPayload(body)
	if err != nil {
		log.Warnf("Query validation failed: %v", err)
		_ = c.Error(err)
		return
	}

	readOnly := core.IsReadOnly(req.SQL)
	if !readOnly && !credential.CanWrite() {
		log.Warnf("Rejected write statement for %s key", credential)
		_ = c.Error(auth.ErrWritePermissionDenied)
		return
	}

	log.WithFields(logrus.Fields{
		"host":      req.Host,
		"port":      req.Port,
		"database":  req.Database,
		"user":      req.User,
		"read_only": readOnly,
	}).Info("Executing query")

	result, err := h.Executor.Execute(c.Request.Context(), req)
	if err != nil {
		log.Errorf("Query execution failed: %v", err)
		_ = c.Error(err)
		return
	}

	payload, err := core.SerializeResult(result)
	if err != nil {
		log.Errorf("Failed to serialize query result: %v", err)
		_ = c.Error(fmt.Errorf("%w: %w", core.ErrInternal, err))
		return
	}

	if result.IsRowSet {
		log.Infof("Query returned %d row(s)", len(result.Rows))
	} else {
		log.Infof("Statement affected %d row(s)", result.RowsAffected)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}
