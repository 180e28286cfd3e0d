package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"intake/config"
	"intake/internal/app"
	"intake/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *fiber.App {
	t.Helper()

	a, err := app.New(config.Config{
		GeneralVersion:  "test",
		Environment:     "test",
		DatabaseDriver:  config.DriverSQLite,
		DatabaseDbPath:  ":memory:",
		IFCGapTolerance: 0.01,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Database.Migrate(database.MigrateUp)
	require.NoError(t, err)

	server, err := NewServer(a)
	require.NoError(t, err)
	return server
}

func do(t *testing.T, server *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func createSession(t *testing.T, server *fiber.App) string {
	t.Helper()
	status, body := do(t, server, http.MethodPost, "/api/sessions/create", map[string]any{
		"name":          "Jane Doe",
		"date_of_birth": "1980-01-01",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	return body["session_token"].(string)
}

func odiBody(token string, score int) map[string]any {
	body := map[string]any{"session_token": token}
	for _, field := range []string{
		"pain_intensity", "personal_care", "lifting", "walking", "sitting",
		"standing", "sleeping", "sex_life", "social_life", "travelling",
	} {
		body[field] = score
	}
	return body
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	status, body := do(t, server, http.MethodGet, "/api/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestFullIntakeOverHTTP(t *testing.T) {
	server := newTestServer(t)
	token := createSession(t, server)

	status, body := do(t, server, http.MethodPost, "/api/questionnaires/odi", odiBody(token, 2))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(20), body["total_score"])
	assert.Equal(t, float64(2), body["next_step"])
	assert.Equal(t, true, body["success"])

	status, body = do(t, server, http.MethodPost, "/api/questionnaires/vas", map[string]any{
		"session_token": token, "neck_pain": 5.0, "right_arm": 5.0, "left_arm": 5.0,
		"back_pain": 5.0, "right_leg": 5.0, "left_leg": 5.0,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(3), body["next_step"])

	status, body = do(t, server, http.MethodPost, "/api/questionnaires/eq5d", map[string]any{
		"session_token": token, "mobility": 0, "personal_care": 0, "usual_activities": 0,
		"pain_discomfort": 0, "anxiety_depression": 0, "health_scale": 80,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(4), body["next_step"])

	status, body = do(t, server, http.MethodPost, "/api/questionnaires/consent", map[string]any{
		"session_token":     token,
		"procedure_name":    "Lumbar Fusion",
		"consent_items":     map[string]string{"item1": "JD"},
		"patient_signature": "Jane Doe",
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(5), body["next_step"])

	status, body = do(t, server, http.MethodPost, "/api/questionnaires/ifc", map[string]any{
		"session_token": token, "fee": 5000, "rebate": 3000, "gap": 2000,
		"patient_signature": "Jane Doe",
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["completed"])

	status, body = do(t, server, http.MethodGet, "/api/sessions/"+token, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	session := body["session"].(map[string]any)
	assert.Equal(t, "completed", session["status"])
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 5.0}, session["completed_steps"])
	assert.Equal(t, "Jane Doe", session["name"])
}

func TestErrorMapping(t *testing.T) {
	server := newTestServer(t)
	token := createSession(t, server)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"create without name", http.MethodPost, "/api/sessions", map[string]any{"date_of_birth": "1980-01-01"}, fiber.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/sessions/create", "{not json", fiber.StatusBadRequest},
		{"unknown token", http.MethodGet, "/api/sessions/nope", nil, fiber.StatusNotFound},
		{"submit to unknown token", http.MethodPost, "/api/questionnaires/odi", odiBody("nope", 1), fiber.StatusNotFound},
		{"score out of range", http.MethodPost, "/api/questionnaires/odi", odiBody(token, 9), fiber.StatusBadRequest},
		{"score as text", http.MethodPost, "/api/questionnaires/odi", map[string]any{"session_token": token, "lifting": "two"}, fiber.StatusBadRequest},
		{"step out of order", http.MethodPost, "/api/questionnaires/eq5d", map[string]any{
			"session_token": token, "mobility": 0, "personal_care": 0, "usual_activities": 0,
			"pain_discomfort": 0, "anxiety_depression": 0, "health_scale": 50,
		}, fiber.StatusConflict},
		{"bad patient id", http.MethodGet, "/api/admin/patients/abc", nil, fiber.StatusBadRequest},
		{"missing patient", http.MethodGet, "/api/admin/patients/999", nil, fiber.StatusNotFound},
		{"bad status filter", http.MethodGet, "/api/admin/patients?status=archived", nil, fiber.StatusBadRequest},
		{"ifc for unknown token", http.MethodPut, "/api/admin/ifc/nope", map[string]any{"fee": 1, "rebate": 1, "gap": 0}, fiber.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nothing", nil, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, server, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, "error", body["message"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAdminEndpoints(t *testing.T) {
	server := newTestServer(t)
	token := createSession(t, server)

	status, body := do(t, server, http.MethodPut, "/api/admin/ifc/"+token, map[string]any{
		"quote_number": "Q-1", "item_number": "51011", "description": "Fusion",
		"fee": 5000, "rebate": 3000, "gap": 2000,
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["success"])

	status, body = do(t, server, http.MethodGet, "/api/admin/ifc/"+token, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	template := body["template"].(map[string]any)
	assert.Equal(t, "Jane Doe", template["patient_name"])
	assert.Equal(t, "Q-1", template["ifc"].(map[string]any)["quote_number"])

	status, body = do(t, server, http.MethodGet, "/api/admin/patients?search=jane", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	patients := body["patients"].([]any)
	require.Len(t, patients, 1)
	patient := patients[0].(map[string]any)
	assert.Equal(t, token, patient["session_token"])
	assert.Equal(t, "in_progress", patient["status"])

	id := int(patient["id"].(float64))
	status, body = do(t, server, http.MethodGet, "/api/admin/patients/"+strconv.Itoa(id), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Nil(t, body["odi"])
	assert.NotNil(t, body["ifc"])
	assert.NotNil(t, body["session"])

	status, body = do(t, server, http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["total_patients"])
	assert.Equal(t, float64(0), stats["completed_sessions"])
	assert.Equal(t, float64(1), stats["in_progress_sessions"])
	assert.Equal(t, float64(1), stats["today_patients"])
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	server := newTestServer(t)

	status, _ := do(t, server, http.MethodGet, "/ws", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
}

func TestExportPatients(t *testing.T) {
	server := newTestServer(t)
	token := createSession(t, server)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/patients/export?status=in_progress", nil)
	resp, err := server.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "patients.csv")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Jane Doe")
	assert.Contains(t, string(raw), token)

	status, _ := do(t, server, http.MethodGet, "/api/admin/patients/export?status=archived", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
