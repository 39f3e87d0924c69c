// internal/tests/api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/cache"
	"github.com/smartotem/totem-backend/internal/config"
	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/router"
	"github.com/smartotem/totem-backend/internal/storage"
	"github.com/smartotem/totem-backend/internal/testutil"
	"github.com/smartotem/totem-backend/internal/vision"
)

const adminPassword = "kiosko-admin-123"

var jpegFrame = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

// brokenDecoder makes every frame fail decoding so the pipeline answers with an error profile.
type brokenDecoder struct{}

func (brokenDecoder) Decode([]byte, vision.DecodeOptions) (vision.Frame, error) {
	return nil, errors.New("no codec in tests")
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.Config
	router *gin.Engine
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize("es"))
}

func (suite *APITestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	testutil.Seed(suite.T(), suite.db, testutil.StandardCatalog())

	suite.cfg = &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{AllowedOrigin: []string{"*"}},
		JWT:         config.JWTConfig{SecretKey: "api-test-secret", AccessTokenTTL: 1},
		Vision:      config.VisionConfig{MaxUploadMB: 1, StreamMaxClients: 1},
		Tracking:    config.TrackingConfig{DefaultLimit: 10, MaxLimit: 50},
		Staff:       config.StaffConfig{AdminUsername: "admin", AdminPassword: adminPassword},
	}
	suite.Require().NoError(database.SeedInitialData(suite.db, suite.cfg.Staff))

	suite.router = router.Initialize(suite.db, suite.cfg, router.Infrastructure{
		Cache:    cache.NewMemoryProvider(),
		Reports:  storage.NewLocalStore(suite.T().TempDir(), "shift-summaries"),
		Analyzer: vision.NewAnalyzer(vision.DefaultConfig(), brokenDecoder{}, nil, nil),
	})
}

func (suite *APITestSuite) request(method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var resp envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (suite *APITestSuite) login() string {
	w, resp := suite.request(http.MethodPost, "/v1/auth/login", map[string]string{
		"username": "admin",
		"password": adminPassword,
	}, "")
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	suite.Require().NoError(json.Unmarshal(resp.Data, &data))
	suite.Require().NotEmpty(data.Token)
	return data.Token
}

func (suite *APITestSuite) TestHealth() {
	w, _ := suite.request(http.MethodGet, "/health", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"database":"ok"`)
}

func (suite *APITestSuite) TestStaffLogin() {
	w, resp := suite.request(http.MethodPost, "/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "incorrecta",
	}, "")
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.False(resp.Success)

	token := suite.login()
	w, resp = suite.request(http.MethodGet, "/v1/auth/me", nil, token)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(string(resp.Data), `"username":"admin"`)
	suite.NotContains(string(resp.Data), "password")

	w, _ = suite.request(http.MethodGet, "/v1/auth/me", nil, "")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestShiftRoutesRequireStaff() {
	w, resp := suite.request(http.MethodGet, "/v1/shifts/current", nil, "")
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("UNAUTHORIZED", resp.Error.Code)
}

func (suite *APITestSuite) TestShiftLifecycle() {
	token := suite.login()

	w, resp := suite.request(http.MethodPost, "/v1/shifts", map[string]string{"name": "manana"}, token)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var opened struct {
		Shift struct {
			ID string `json:"id"`
		} `json:"shift"`
	}
	suite.Require().NoError(json.Unmarshal(resp.Data, &opened))

	w, resp = suite.request(http.MethodGet, "/v1/shifts/current", nil, token)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(string(resp.Data), opened.Shift.ID)

	w, _ = suite.request(http.MethodPost, "/v1/shifts", map[string]string{"name": "almuerzo"}, token)
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPost, "/v1/shifts/"+opened.Shift.ID+"/close", nil, token)
	suite.Equal(http.StatusOK, w.Code)

	w, resp = suite.request(http.MethodGet, "/v1/shifts/"+opened.Shift.ID+"/summary", nil, token)
	suite.Equal(http.StatusNotFound, w.Code, "an empty shift never gets a summary")
	suite.Equal("NOT_FOUND", resp.Error.Code)

	w, _ = suite.request(http.MethodGet, "/v1/shifts/current", nil, token)
	suite.Equal(http.StatusNotFound, w.Code)

	w, _ = suite.request(http.MethodGet, "/v1/shifts/not-a-uuid/stats", nil, token)
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodGet, "/v1/shifts/day/2025-13-40", nil, token)
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodGet, "/v1/shifts?sort=started_at&order=asc", nil, token)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("1", w.Header().Get("X-Total-Count"))

	var audits int64
	suite.db.Table("audit_logs").Count(&audits)
	suite.GreaterOrEqual(audits, int64(2), "shift writes are audited")
}

func (suite *APITestSuite) TestKioskJourney() {
	w, _ := suite.request(http.MethodPost, "/v1/sessions", map[string]string{
		"session_id": "kiosk-api",
		"channel":    "voice",
	}, "")
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, resp := suite.request(http.MethodPost, "/v1/voice", map[string]string{
		"session_id": "kiosk-api",
		"transcript": "Busco una polera roja talla S",
	}, "")
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(string(resp.Data), "POL-003-RO-S")

	w, resp = suite.request(http.MethodGet, "/v1/recommendations/category/Poleras?session_id=kiosk-api&limit=3", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var recs struct {
		RecommendationID string `json:"recommendation_id"`
		Items            []struct {
			VariantID string `json:"variantId"`
		} `json:"items"`
	}
	suite.Require().NoError(json.Unmarshal(resp.Data, &recs))
	suite.Require().NotEmpty(recs.RecommendationID)
	suite.Require().NotEmpty(recs.Items)

	w, _ = suite.request(http.MethodPost, "/v1/tracking/click", map[string]interface{}{
		"session_id":        "kiosk-api",
		"recommendation_id": recs.RecommendationID,
		"variant_id":        recs.Items[0].VariantID,
	}, "")
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	w, resp = suite.request(http.MethodGet,
		"/v1/recommendations/"+recs.RecommendationID+"/verify-price/"+recs.Items[0].VariantID, nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(string(resp.Data), `"price"`)

	w, _ = suite.request(http.MethodGet, "/v1/tracking/sessions/kiosk-api/metrics", nil, "")
	suite.Equal(http.StatusUnauthorized, w.Code)

	w, resp = suite.request(http.MethodGet, "/v1/tracking/sessions/kiosk-api/metrics", nil, suite.login())
	suite.Require().Equal(http.StatusOK, w.Code)
	var metrics struct {
		TotalClicked int64   `json:"total_clicked"`
		CTR          float64 `json:"ctr"`
	}
	suite.Require().NoError(json.Unmarshal(resp.Data, &metrics))
	suite.Equal(int64(1), metrics.TotalClicked)
	suite.Greater(metrics.CTR, 0.0)

	w, resp = suite.request(http.MethodPost, "/v1/sessions/kiosk-api/reset", nil, "")
	suite.Equal(http.StatusCreated, w.Code)
	suite.NotContains(string(resp.Data), `"id":"kiosk-api"`)
}

func (suite *APITestSuite) TestSearchAndSuggestions() {
	w, resp := suite.request(http.MethodGet, "/v1/search?q=chaqueta", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(string(resp.Data), "Chaqueta Denim")

	w, _ = suite.request(http.MethodGet, "/v1/search", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)

	w, resp = suite.request(http.MethodGet, "/v1/search/suggestions?prefix=pol", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(string(resp.Data), "polera")
}

func (suite *APITestSuite) TestValidationAndLanguage() {
	w, resp := suite.request(http.MethodPost, "/v1/ratings", map[string]interface{}{
		"session_id":        "kiosk-api",
		"recommendation_id": "0190f7a2-3c4d-7e5f-8a9b-0c1d2e3f4a5b",
		"score":             6,
	}, "")
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_ERROR", resp.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	suite.Equal(http.StatusNotFound, rec.Code)
	suite.Contains(rec.Body.String(), "Session not found")

	w, _ = suite.request(http.MethodGet, "/v1/recommendations/price?min=100", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) frameUpload(fields map[string]string, frame []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		suite.Require().NoError(mw.WriteField(k, v))
	}
	if frame != nil {
		part, err := mw.CreateFormFile("frame", "frame.jpg")
		suite.Require().NoError(err)
		_, err = part.Write(frame)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/vision/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) TestAnalyzeFrame() {
	w := suite.frameUpload(map[string]string{"session_id": "kiosk-cam"}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.frameUpload(map[string]string{"session_id": "kiosk-cam"}, []byte("GIF89a"))
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.frameUpload(map[string]string{"landmarks": "{not json"}, jpegFrame)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.frameUpload(map[string]string{"session_id": "kiosk-cam"}, jpegFrame)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), `"age_bracket":"error"`)

	var detections int64
	suite.db.Table("detections").Count(&detections)
	suite.Zero(detections, "error profiles are not recorded")
}

func (suite *APITestSuite) TestFrameStream() {
	server := httptest.NewServer(suite.router)
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/vision/stream?session_id=kiosk-ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	suite.Require().NoError(err)
	defer conn.Close()

	suite.Require().NoError(conn.WriteMessage(websocket.BinaryMessage, jpegFrame))
	var event struct {
		Seq int `json:"seq"`
		Result struct {
			Profile vision.Profile `json:"profile"`
		} `json:"result"`
	}
	suite.Require().NoError(conn.ReadJSON(&event))
	suite.Equal(1, event.Seq)
	suite.True(event.Result.Profile.IsError())

	// A rejected frame is answered with a localized error, not the raw cause.
	suite.Require().NoError(conn.WriteMessage(websocket.BinaryMessage, []byte("GIF89a not a frame")))
	var rejected struct {
		Seq    int             `json:"seq"`
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	suite.Require().NoError(conn.ReadJSON(&rejected))
	suite.Equal(2, rejected.Seq)
	suite.Empty(rejected.Result)
	suite.Require().NotNil(rejected.Error)
	suite.Equal("BAD_REQUEST", rejected.Error.Code)
	suite.Equal(i18n.T(i18n.DefaultLanguage(), i18n.KeyFrameInvalidType), rejected.Error.Message)
	suite.NotContains(rejected.Error.Message, "content type")

	// StreamMaxClients is 1 so a second viewer is turned away.
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	suite.Require().Error(err)
	suite.Require().NotNil(resp)
	suite.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
