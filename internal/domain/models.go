// internal/domain/models.go
package domain

import (
	"net"
	"strconv"
)

// DefaultMySQLPort is used when a request does not carry a port.
const DefaultMySQLPort = 3306

// QueryRequest is a validated /query payload.
type QueryRequest struct {
	SQL      string `json:"sql"`
	Host     string `json:"host"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	Port     int    `json:"port" binding:"min=1,max=65535"`
}

// ConnParams returns the connection coordinates of the request.
func (r QueryRequest) ConnParams() ConnParams {
	return ConnParams{
		Host:     r.Host,
		Port:     r.Port,
		Database: r.Database,
		User:     r.User,
		Password: r.Password,
	}
}

// ConnParams holds per-request connection coordinates. It is built fresh
// for every request and handed to the connection factory.
type ConnParams struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Addr returns host:port.
func (p ConnParams) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Row is one result row with column order preserved.
type Row struct {
	Columns []string
	Values  []any
}

// Set stores value under column. A repeated column keeps its first
// position and takes the new value.
func (r *Row) Set(column string, value any) {
	for i, c := range r.Columns {
		if c == column {
			r.Values[i] = value
			return
		}
	}
	r.Columns = append(r.Columns, column)
	r.Values = append(r.Values, value)
}

// Get returns the value for column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// QueryResult is either a row set (reads) or a rows-affected count (writes).
type QueryResult struct {
	IsRowSet     bool
	Rows         []Row
	RowsAffected int64
}

// NewRowSetResult wraps rows fetched by a read statement.
func NewRowSetResult(rows []Row) QueryResult {
	return QueryResult{IsRowSet: true, Rows: rows}
}

// NewRowsAffectedResult wraps the count reported for a write statement.
func NewRowsAffectedResult(n int64) QueryResult {
	return QueryResult{RowsAffected: n}
}
