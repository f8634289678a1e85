package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/jhchabran/broadsheet"
	"github.com/jhchabran/broadsheet/authentication"
	"github.com/jhchabran/broadsheet/pgstore"
)

const (
	dbString       = "user=postgres dbname=broadsheet_test sslmode=disable password=postgres host=127.0.0.1"
	testServerHost = "localhost:8081"
	tokenSecret    = "integration-test-secret"
)

func truncateDatabase(db *sqlx.DB) {
	db.MustExec("TRUNCATE TABLE votes, entries, subscriptions, subreddits, users CASCADE;")
}

// testingLogWriter is an output target for zerolog which will print on the testing logger.
type testingLogWriter struct {
	c *qt.C
}

// Write outputs on the passed bytes on the test logger
func (l *testingLogWriter) Write(p []byte) (n int, err error) {
	str := string(p[0 : len(p)-1]) // drop the final \n
	l.c.Log(str)
	return len(p), nil
}

// A struct to hold the server and its components.
// Provides a few helpers for convenience.
type testContext struct {
	c          *qt.C
	server     *broadsheet.Server
	testServer *httptest.Server
	pgStore    *pgstore.PGStore
}

// newTestContext creates a server instance with its component initialized for integration testing.
func newTestContext(c *qt.C) *testContext {
	tc := testContext{c: c}

	w := testingLogWriter{c}
	output := zerolog.ConsoleWriter{Out: &w, NoColor: true}
	logger := zerolog.New(output)

	tc.pgStore = pgstore.New(dbString)
	tokens := authentication.NewTokenService([]byte(tokenSecret))

	tc.server = broadsheet.NewServer(
		&broadsheet.ServerConfig{Addr: testServerHost, TokenTTL: time.Hour},
		logger,
		tc.pgStore,
		tokens,
	)
	tc.testServer = httptest.NewServer(tc.server)

	return &tc
}

// url returns an url to the test server based on the given path
func (tc *testContext) url(path string) string {
	return tc.testServer.URL + path
}

// prepareServer boots up the server and sets up its teardown for the current test
func (tc *testContext) prepareServer() {
	tc.c.Assert(tc.server.Prepare(), qt.IsNil, qt.Commentf("couldn't prepare the server"))
	tc.c.Cleanup(func() {
		// kill the server
		tc.testServer.Close()

		// restore the db to its pristine state
		truncateDatabase(tc.pgStore.DB())
	})
}

// do performs a JSON request against the test server. An empty token leaves
// the request anonymous.
func (tc *testContext) do(method string, path string, token string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		err := json.NewEncoder(&buf).Encode(body)
		tc.c.Assert(err, qt.IsNil)
	}

	req, err := http.NewRequest(method, tc.url(path), &buf)
	tc.c.Assert(err, qt.IsNil)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(broadsheet.TokenHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	tc.c.Assert(err, qt.IsNil)
	return resp
}

// decode reads a JSON response body into v and closes it.
func (tc *testContext) decode(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	tc.c.Assert(err, qt.IsNil)
}

// signup registers a user through the API.
func (tc *testContext) signup(username string, password string) {
	resp := tc.do("POST", "/users", "", map[string]string{
		"username": username,
		"password": password,
	})
	defer resp.Body.Close()
	tc.c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)
}

// login trades credentials for a token through the API.
func (tc *testContext) login(username string, password string) string {
	req, err := http.NewRequest("POST", tc.url("/tokens"), nil)
	tc.c.Assert(err, qt.IsNil)
	req.Header.Set(broadsheet.AuthHeader, base64.StdEncoding.EncodeToString([]byte(username+":"+password)))

	resp, err := http.DefaultClient.Do(req)
	tc.c.Assert(err, qt.IsNil)
	tc.c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

	var body struct {
		Token string `json:"token"`
	}
	tc.decode(resp, &body)
	tc.c.Assert(body.Token, qt.Not(qt.Equals), "")

	return body.Token
}
