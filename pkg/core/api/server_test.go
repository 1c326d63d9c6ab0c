/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/devicewatch/pkg/core"
	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
)

var errBoom = errors.New("boom")

func newTestServer(t *testing.T) (*APIServer, *core.MockService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	svc := core.NewMockService(ctrl)

	s := NewAPIServer(models.CORSConfig{}, WithDeviceService(svc), WithLogger(logger.NewTestLogger()))

	return s, svc
}

func do(t *testing.T, s *APIServer, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	return resp
}

func TestGetDevices(t *testing.T) {
	s, svc := newTestServer(t)

	added := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	svc.EXPECT().ListWithStatus(gomock.Any()).Return([]models.DeviceWithStatus{{
		Device: models.Device{ID: "d1", Name: "cam", Address: "10.0.0.1", DateAdded: added},
		Status: models.NewUnprobedStatus(added),
	}})

	rr := do(t, s, http.MethodGet, "/api/devices", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	assert.JSONEq(t, `[{
		"id": "d1",
		"name": "cam",
		"ip": "10.0.0.1",
		"dateAdded": "2025-02-01T00:00:00Z",
		"status": {
			"online": false,
			"lastSeen": null,
			"pingMs": null,
			"lastChecked": "2025-02-01T00:00:00Z",
			"pingStatus": false
		}
	}]`, rr.Body.String())
}

func TestGetDevicesEmpty(t *testing.T) {
	s, svc := newTestServer(t)

	svc.EXPECT().ListWithStatus(gomock.Any()).Return([]models.DeviceWithStatus{})

	rr := do(t, s, http.MethodGet, "/api/devices", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestAddDeviceJSON(t *testing.T) {
	s, svc := newTestServer(t)

	dev := models.Device{ID: "d1", Name: "cam", Address: "10.0.0.1", DateAdded: time.Now().UTC()}
	svc.EXPECT().AddDevice(gomock.Any(), "cam", "10.0.0.1").Return(dev, nil)

	rr := do(t, s, http.MethodPost, "/api/device", "application/json", `{"name":"cam","ip":"10.0.0.1"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var got models.Device
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "d1", got.ID)
	assert.Equal(t, "10.0.0.1", got.Address)
}

func TestAddDeviceForm(t *testing.T) {
	s, svc := newTestServer(t)

	svc.EXPECT().AddDevice(gomock.Any(), "printer", "printer.lan").Return(models.Device{ID: "d2"}, nil)

	form := url.Values{"name": {"printer"}, "ip": {"printer.lan"}}

	rr := do(t, s, http.MethodPost, "/api/device", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestAddDeviceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "missing fields", err: models.ErrInvalidDevice, code: http.StatusBadRequest, message: "Name and IP are required"},
		{name: "duplicate", err: models.ErrDuplicateAddress, code: http.StatusBadRequest, message: "A device with this IP already exists"},
		{name: "internal", err: errBoom, code: http.StatusInternalServerError, message: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, svc := newTestServer(t)

			svc.EXPECT().AddDevice(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.Device{}, tt.err)

			rr := do(t, s, http.MethodPost, "/api/device", "application/json", `{"name":"","ip":"10.0.0.1"}`)
			require.Equal(t, tt.code, rr.Code)

			resp := decodeError(t, rr)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, tt.code, resp.Status)
		})
	}
}

func TestAddDeviceMalformedBody(t *testing.T) {
	s, _ := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/api/device", "application/json", `{"name":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteDevice(t *testing.T) {
	s, svc := newTestServer(t)

	svc.EXPECT().RemoveDevice(gomock.Any(), "d1").Return(nil)
	svc.EXPECT().RemoveDevice(gomock.Any(), "nope").Return(models.ErrDeviceNotFound)

	rr := do(t, s, http.MethodDelete, "/api/device/d1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	rr = do(t, s, http.MethodDelete, "/api/device/nope", "", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Device not found", decodeError(t, rr).Message)
}

func TestGetDevice(t *testing.T) {
	s, svc := newTestServer(t)

	detail := models.DeviceDetail{
		Device: models.Device{ID: "d1", Name: "cam", Address: "10.0.0.1"},
		Status: models.DeviceStatus{Reachable: true},
	}

	svc.EXPECT().GetOneWithStatus(gomock.Any(), "d1").Return(detail, nil)
	svc.EXPECT().GetOneWithStatus(gomock.Any(), "nope").Return(models.DeviceDetail{}, models.ErrDeviceNotFound)

	rr := do(t, s, http.MethodGet, "/api/device/d1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "cam", body["device"]["name"])
	assert.Equal(t, true, body["status"]["online"])

	rr = do(t, s, http.MethodGet, "/api/device/nope", "", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCheckDevice(t *testing.T) {
	s, svc := newTestServer(t)

	ms := 1.25
	detail := models.DeviceDetail{
		Device: models.Device{ID: "d1", Name: "cam", Address: "10.0.0.1"},
		Status: models.DeviceStatus{Reachable: true, LatencyMs: &ms},
	}

	svc.EXPECT().CheckOneNow(gomock.Any(), "d1").Return(detail, nil)
	svc.EXPECT().CheckOneNow(gomock.Any(), "nope").Return(models.DeviceDetail{}, models.ErrDeviceNotFound)

	rr := do(t, s, http.MethodPost, "/api/device/d1/check", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Device checked", body["message"])
	assert.Contains(t, body, "device")
	assert.InDelta(t, 1.25, body["status"].(map[string]any)["pingMs"], 1e-9)

	rr = do(t, s, http.MethodPost, "/api/device/nope/check", "", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCheckAll(t *testing.T) {
	s, svc := newTestServer(t)

	svc.EXPECT().CheckAllNow(gomock.Any()).Return(nil)

	rr := do(t, s, http.MethodPost, "/api/check-all", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"message":"All devices checked"}`, rr.Body.String())
}

func TestCheckAllOutlastsWriteTimeout(t *testing.T) {
	s, svc := newTestServer(t)

	svc.EXPECT().CheckAllNow(gomock.Any()).DoAndReturn(func(context.Context) error {
		time.Sleep(300 * time.Millisecond)
		return nil
	})

	srv := httptest.NewUnstartedServer(s.Handler())
	srv.Config.WriteTimeout = 50 * time.Millisecond
	srv.Start()

	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/api/check-all", "application/json", http.NoBody)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.SuccessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
}

func TestHealth(t *testing.T) {
	s, svc := newTestServer(t)

	gomock.InOrder(
		svc.EXPECT().Health(gomock.Any()).Return(models.HealthState{DeviceCount: 3}),
		svc.EXPECT().Health(gomock.Any()).Return(models.HealthState{
			Degraded:         true,
			DeviceCount:      3,
			PersistenceError: "disk full",
		}),
	)

	rr := do(t, s, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","degraded":false,"devices":3}`, rr.Body.String())

	rr = do(t, s, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","degraded":true,"devices":3,"persistence_error":"disk full"}`, rr.Body.String())
}

func TestPreflightAndMethods(t *testing.T) {
	s, _ := newTestServer(t)

	rr := do(t, s, http.MethodOptions, "/api/device/d1", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = do(t, s, http.MethodPut, "/api/device/d1", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(t, s, http.MethodGet, "/devices", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNoServiceConfigured(t *testing.T) {
	s := NewAPIServer(models.CORSConfig{})

	rr := do(t, s, http.MethodGet, "/api/devices", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
