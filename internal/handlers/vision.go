// internal/handlers/vision.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/smartotem/totem-backend/internal/i18n"
	"github.com/smartotem/totem-backend/internal/metrics"
	"github.com/smartotem/totem-backend/internal/services"
	"github.com/smartotem/totem-backend/internal/utils"
	"github.com/smartotem/totem-backend/internal/vision"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 16 << 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type VisionHandler struct {
	visionService  *services.VisionService
	maxUploadBytes int
	sem            chan struct{}
}

func NewVisionHandler(visionService *services.VisionService, maxUploadBytes, maxStreams int) *VisionHandler {
	if maxStreams <= 0 {
		maxStreams = 8
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = vision.MaxUploadBytes
	}
	return &VisionHandler{
		visionService:  visionService,
		maxUploadBytes: maxUploadBytes,
		sem:            make(chan struct{}, maxStreams),
	}
}

// POST /vision/analyze
func (h *VisionHandler) Analyze(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	file, err := c.FormFile("frame")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFrameMissing), nil)
		return
	}
	if file.Size > int64(h.maxUploadBytes) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFrameTooLarge), nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFrameMissing), nil)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, int64(h.maxUploadBytes)+1))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFrameMissing), nil)
		return
	}
	if _, ok := vision.SniffImage(data); !ok {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFrameInvalidType), nil)
		return
	}

	req := services.AnalyzeFrameRequest{
		SessionID: c.PostForm("session_id"),
		Frame:     data,
		Annotate:  formBool(c, "annotate"),
		Recommend: formBool(c, "recommend"),
	}
	if limit, err := strconv.Atoi(c.PostForm("limit")); err == nil {
		req.Limit = limit
	}
	if raw := c.PostForm("landmarks"); raw != "" {
		var landmarks vision.Landmarks
		if err := json.Unmarshal([]byte(raw), &landmarks); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "landmarks"), err.Error())
			return
		}
		req.Landmarks = &landmarks
	}

	result, err := h.visionService.AnalyzeFrame(c.Request.Context(), &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /vision/stream
//
// The kiosk pushes binary JPEG/PNG frames; each one is answered with a JSON
// text message carrying the frame result or an error.
func (h *VisionHandler) Stream(c *gin.Context) {
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		utils.ServiceUnavailableResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyStreamAtCapacity))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(int64(h.maxUploadBytes) + 1)

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	lang := utils.GetLangFromContext(c)
	sessionID := c.Query("session_id")
	opts := streamOptions{
		Annotate:  queryBool(c, "annotate"),
		Recommend: queryBool(c, "recommend"),
		Limit:     queryInt(c, "limit", 0),
	}
	logrus.WithField("session_id", sessionID).Info("Frame stream opened")

	frames := 0
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"session_id": sessionID,
				"frames":     frames,
			}).Info("Frame stream closed")
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		frames++

		event := streamEvent{Seq: frames}
		result, err := h.visionService.AnalyzeFrame(c.Request.Context(), &services.AnalyzeFrameRequest{
			SessionID: sessionID,
			Frame:     data,
			Annotate:  opts.Annotate,
			Recommend: opts.Recommend,
			Limit:     opts.Limit,
		})
		if err != nil {
			status, apiErr := utils.ClientError(lang, err)
			if status == http.StatusInternalServerError {
				logrus.WithError(err).WithField("session_id", sessionID).Error("Stream frame failed")
			}
			event.Error = apiErr
		} else {
			event.Result = result
		}

		if err := conn.WriteJSON(event); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to write stream event")
			return
		}
	}
}

type streamOptions struct {
	Annotate  bool
	Recommend bool
	Limit     int
}

type streamEvent struct {
	Seq    int                   `json:"seq"`
	Result *services.FrameResult `json:"result,omitempty"`
	Error  *utils.APIError       `json:"error,omitempty"`
}

func formBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.PostForm(name))
	return v
}
