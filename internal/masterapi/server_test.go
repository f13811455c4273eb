package masterapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judgecluster/judgecluster/internal/jobcontroller"
	"github.com/judgecluster/judgecluster/internal/jobstore"
	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/internal/wire"
	"github.com/judgecluster/judgecluster/pkg/models"
)

func newTestServer(t *testing.T, withCompileWorker bool) (*Server, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	if withCompileWorker {
		reg.Register(wire.Register{WorkerID: "w1", Tags: []string{"can_compile"}})
	}
	ctrl := jobcontroller.New(reg)
	return New(ctrl, reg, jobstore.NewMemoryStore()), reg
}

func TestHandleSubmitAccepted(t *testing.T) {
	s, reg := newTestServer(t, true)
	e := echo.New()

	body, err := json.Marshal(models.SubmissionRequest{
		Language:   models.LanguageCpp,
		SourceCode: "int main(){}",
		TestCases:  []models.TestCase{{ID: "1", Input: "", ExpectedOutput: ""}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.HandleSubmit(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp models.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)

	cmd := <-reg.Sink("w1")
	require.NotNil(t, cmd.Compile)
}

func TestHandleSubmitNoWorkers(t *testing.T) {
	s, _ := newTestServer(t, false)
	e := echo.New()

	body, _ := json.Marshal(models.SubmissionRequest{
		Language:   models.LanguageCpp,
		SourceCode: "int main(){}",
		TestCases:  []models.TestCase{{ID: "1"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.HandleSubmit(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleSubmitInvalidBody(t *testing.T) {
	s, _ := newTestServer(t, true)
	e := echo.New()

	body, _ := json.Marshal(models.SubmissionRequest{Language: models.LanguageCpp}) // no test cases
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.HandleSubmit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatusNotFound(t *testing.T) {
	s, _ := newTestServer(t, true)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/status/ghost", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("job_id")
	c.SetParamValues("ghost")

	require.NoError(t, s.HandleStatus(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStatusFound(t *testing.T) {
	s, reg := newTestServer(t, true)
	e := echo.New()

	body, _ := json.Marshal(models.SubmissionRequest{
		Language: models.LanguageCpp, SourceCode: "x",
		TestCases: []models.TestCase{{ID: "1"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, s.HandleSubmit(c))

	var submitResp models.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitResp))
	<-reg.Sink("w1")

	statusReq := httptest.NewRequest(http.MethodGet, "/status/"+submitResp.JobID, nil)
	statusRec := httptest.NewRecorder()
	sc := e.NewContext(statusReq, statusRec)
	sc.SetParamNames("job_id")
	sc.SetParamValues(submitResp.JobID)

	require.NoError(t, s.HandleStatus(sc))
	assert.Equal(t, http.StatusOK, statusRec.Code)

	var status models.StatusResponse
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &status))
	assert.Equal(t, models.PhaseCompiling, status.State)
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.HandleHealth(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleWorkersShape(t *testing.T) {
	s, _ := newTestServer(t, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/workers", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.HandleWorkers(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.WorkersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Workers, 1)
	assert.Equal(t, "w1", resp.Workers[0].ID)
	assert.Contains(t, resp.Workers[0].Tags, "can_compile")
}
