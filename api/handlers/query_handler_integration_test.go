// api/handlers/query_handler_integration_test.go
package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-query-gateway/api"
	"github.com/Annany2002/nebula-query-gateway/api/models"
	"github.com/Annany2002/nebula-query-gateway/config"
	"github.com/Annany2002/nebula-query-gateway/internal/domain"
	"github.com/Annany2002/nebula-query-gateway/internal/storage"
)

const (
	readOnlyKey  = "ro_test_key_1234567890"
	readWriteKey = "rw_test_key_1234567890"
)

type testEnv struct {
	server *httptest.Server
	dir    string
	opened *atomic.Int32
}

// testDBSetup creates SQLite databases named shop and crm in a temp dir.
func testDBSetup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	for _, name := range []string{"shop", "crm"} {
		db, err := sql.Open("sqlite3", filepath.Join(dir, name+".db"))
		require.NoError(t, err)
		_, err = db.Exec(`
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			customer TEXT,
			placed_at DATETIME,
			prep_time TIME
		);`)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO orders VALUES
			(1, ?, '2024-03-05 08:09:00.999', '25:01:01'),
			(2, '李雷', '2024-01-01 00:00:00', '00:10:00'),
			(3, 'Ana', NULL, NULL)`, name+"-customer")
		require.NoError(t, err)
		require.NoError(t, db.Close())
	}
	return dir
}

// setupTestServer creates a test server whose executor opens SQLite files
// instead of MySQL connections.
func setupTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := testDBSetup(t)
	opened := &atomic.Int32{}

	opener := func(ctx context.Context, params domain.ConnParams) (*sql.DB, error) {
		opened.Add(1)
		path := filepath.Join(dir, params.Database+".db")
		db, err := sql.Open("sqlite3", "file:"+path+"?mode=rw")
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	cfg := &config.Config{
		ServerPort:         "0",
		ReadOnlyAPIKey:     readOnlyKey,
		ReadWriteAPIKey:    readWriteKey,
		CORSAllowedOrigins: []string{"*"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	router := api.SetupRouter(cfg, storage.NewExecutor(opener))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, dir: dir, opened: opened}
}

func queryBody(database, sqlText string) string {
	b, _ := json.Marshal(map[string]any{
		"sql":      sqlText,
		"host":     "127.0.0.1",
		"database": database,
		"user":     "app",
		"password": "secret",
	})
	return string(b)
}

func (e *testEnv) post(t *testing.T, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/query", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, raw
}

func decodeError(t *testing.T, raw []byte) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return body.Error
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestServer(t, func(c *config.Config) {
		c.CORSAllowedOrigins = []string{"https://allowed.example"}
	})

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/health", bytes.NewBufferString("not json at all"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer garbage")
	req.Header.Set("Origin", "https://evil.example")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	var body models.HealthResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, int32(0), env.opened.Load())
}

func TestQueryAuthentication(t *testing.T) {
	env := setupTestServer(t, nil)

	t.Run("Missing header", func(t *testing.T) {
		res, raw := env.post(t, "", queryBody("shop", "SELECT 1"))
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Contains(t, decodeError(t, raw), "missing")
	})

	t.Run("Wrong scheme", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/query", strings.NewReader(queryBody("shop", "SELECT 1")))
		req.Header.Set("Authorization", "Token "+readWriteKey)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	t.Run("Unknown key", func(t *testing.T) {
		res, raw := env.post(t, "not-a-key", queryBody("shop", "SELECT 1"))
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Contains(t, decodeError(t, raw), "invalid API key")
	})

	t.Run("Auth is checked before the body", func(t *testing.T) {
		res, _ := env.post(t, "not-a-key", "")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})

	assert.Equal(t, int32(0), env.opened.Load(), "no connection for rejected requests")
}

func TestQueryValidation(t *testing.T) {
	env := setupTestServer(t, nil)

	t.Run("Empty body", func(t *testing.T) {
		res, raw := env.post(t, readOnlyKey, "")
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Contains(t, decodeError(t, raw), "empty")
	})

	t.Run("Empty object", func(t *testing.T) {
		res, _ := env.post(t, readOnlyKey, "{}")
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		res, _ := env.post(t, readOnlyKey, `{"sql": `)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("Missing host cites host", func(t *testing.T) {
		res, raw := env.post(t, readOnlyKey, `{"sql": "SELECT 1"}`)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		msg := decodeError(t, raw)
		assert.True(t, strings.HasSuffix(msg, ": host"), "got %q", msg)
	})

	t.Run("Port out of range", func(t *testing.T) {
		body := `{"sql":"SELECT 1","host":"h","database":"shop","user":"u","password":"p","port":99999}`
		res, _ := env.post(t, readOnlyKey, body)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	assert.Equal(t, int32(0), env.opened.Load())
}

func TestQueryPermissions(t *testing.T) {
	env := setupTestServer(t, nil)

	t.Run("Read-only key cannot delete", func(t *testing.T) {
		res, raw := env.post(t, readOnlyKey, queryBody("shop", "DELETE FROM orders"))
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		assert.Contains(t, decodeError(t, raw), "read-only")
		assert.Equal(t, int32(0), env.opened.Load(), "no connection attempted")
	})

	t.Run("Read-write key deletes", func(t *testing.T) {
		res, raw := env.post(t, readWriteKey, queryBody("shop", "DELETE FROM orders WHERE id > 1"))
		require.Equal(t, http.StatusOK, res.StatusCode, "body: %s", raw)

		var body models.RowsAffectedResponse
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, int64(2), body.RowsAffected)
		assert.JSONEq(t, `{"rowsAffected": 2}`, string(raw))
	})

	t.Run("Read-only key runs non-keyword statements", func(t *testing.T) {
		res, raw := env.post(t, readOnlyKey, queryBody("shop", "PRAGMA user_version"))
		assert.Equal(t, http.StatusOK, res.StatusCode, "body: %s", raw)
		assert.Contains(t, string(raw), "rowsAffected")
	})
}

func TestQuerySelect(t *testing.T) {
	env := setupTestServer(t, nil)

	res, raw := env.post(t, readOnlyKey, queryBody("crm", "  select id, customer, placed_at, prep_time from orders order by id"))
	require.Equal(t, http.StatusOK, res.StatusCode, "body: %s", raw)
	assert.Equal(t, "application/json; charset=utf-8", res.Header.Get("Content-Type"))
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	want := `[` +
		`{"id":1,"customer":"crm-customer","placed_at":"2024-03-05 08:09:00","prep_time":"25:01:01"},` +
		`{"id":2,"customer":"李雷","placed_at":"2024-01-01 00:00:00","prep_time":"00:10:00"},` +
		`{"id":3,"customer":"Ana","placed_at":null,"prep_time":null}` +
		`]`
	assert.Equal(t, want, string(raw), "rows in order, columns in order, non-ASCII unescaped")
}

func TestQueryDatabaseError(t *testing.T) {
	env := setupTestServer(t, nil)

	t.Run("Unknown table", func(t *testing.T) {
		res, raw := env.post(t, readOnlyKey, queryBody("shop", "SELECT * FROM nope"))
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		msg := decodeError(t, raw)
		assert.Contains(t, msg, "database error")
		assert.Contains(t, msg, "nope", "driver message is passed through")
	})

	t.Run("Unknown database", func(t *testing.T) {
		res, raw := env.post(t, readOnlyKey, queryBody("missing_db", "SELECT 1"))
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Contains(t, decodeError(t, raw), "database error")
	})
}

func TestQueryRequestIDEcho(t *testing.T) {
	env := setupTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/query", strings.NewReader(queryBody("shop", "SELECT 1")))
	req.Header.Set("Authorization", "Bearer "+readOnlyKey)
	req.Header.Set("X-Request-ID", "trace-abc")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "trace-abc", res.Header.Get("X-Request-ID"))
}

func TestQueryRateLimit(t *testing.T) {
	env := setupTestServer(t, func(c *config.Config) {
		c.RateLimitPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		res, _ := env.post(t, readOnlyKey, queryBody("shop", "SELECT 1"))
		assert.Equal(t, http.StatusOK, res.StatusCode)
	}
	res, raw := env.post(t, readOnlyKey, queryBody("shop", "SELECT 1"))
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.NotEmpty(t, decodeError(t, raw))
}

func TestConcurrentQueriesDoNotInterfere(t *testing.T) {
	env := setupTestServer(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 10; i++ {
		for _, target := range []struct{ key, db string }{{readOnlyKey, "shop"}, {readWriteKey, "crm"}} {
			wg.Add(1)
			go func(key, db string) {
				defer wg.Done()
				req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/query",
					strings.NewReader(queryBody(db, "SELECT customer FROM orders WHERE id = 1")))
				req.Header.Set("Authorization", "Bearer "+key)
				res, err := http.DefaultClient.Do(req)
				if err != nil {
					errs <- err
					return
				}
				defer res.Body.Close()
				raw, _ := io.ReadAll(res.Body)
				want := fmt.Sprintf(`[{"customer":"%s-customer"}]`, db)
				if res.StatusCode != http.StatusOK || string(raw) != want {
					errs <- fmt.Errorf("%s: status %d body %s", db, res.StatusCode, raw)
				}
			}(target.key, target.db)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, int32(20), env.opened.Load())
}
