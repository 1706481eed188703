package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// decodeData unpacks the success envelope and returns its data.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder) interface{} {
	t.Helper()
	var envelope struct {
		Data    interface{} `json:"data"`
		Success bool        `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

// decodeError unpacks the error envelope and returns its code and details.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (code string, details map[string]interface{}) {
	t.Helper()
	var envelope struct {
		Error   string                 `json:"error"`
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Error)
	return envelope.Code, envelope.Details
}

func asMap(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	m, ok := v.(map[string]interface{})
	require.True(t, ok, "expected object, got %T", v)
	return m
}

func asList(t *testing.T, v interface{}) []interface{} {
	t.Helper()
	l, ok := v.([]interface{})
	require.True(t, ok, "expected array, got %T", v)
	return l
}

// createWorkspace seeds a workspace through the API and returns its id.
func (e *env) createWorkspace(t *testing.T, user, name, slug string) string {
	t.Helper()
	rec := e.do("POST", "/api/workspaces", user,
		strings.NewReader(fmt.Sprintf(`{"name":%q,"slug":%q}`, name, slug)))
	require.Equal(t, 201, rec.Code, rec.Body.String())
	return asMap(t, decodeData(t, rec))["id"].(string)
}

// createProject seeds a project through the API and returns its id.
func (e *env) createProject(t *testing.T, user, workspaceID, name, slug string) string {
	t.Helper()
	rec := e.do("POST", "/api/projects", user,
		strings.NewReader(fmt.Sprintf(`{"workspaceId":%q,"name":%q,"slug":%q}`, workspaceID, name, slug)))
	require.Equal(t, 201, rec.Code, rec.Body.String())
	return asMap(t, decodeData(t, rec))["id"].(string)
}

// createDocument seeds a document through the API and returns its id.
func (e *env) createDocument(t *testing.T, user, body string) string {
	t.Helper()
	rec := e.do("POST", "/api/documents", user, strings.NewReader(body))
	require.Equal(t, 201, rec.Code, rec.Body.String())
	return asMap(t, decodeData(t, rec))["id"].(string)
}
