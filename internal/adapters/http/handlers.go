package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dkeye/Lobby/internal/app/orch"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type createRoomRequest struct {
	RoomID        string `json:"roomId" binding:"required"`
	RoomPassword  string `json:"roomPassword" binding:"required"`
	AdminPassword string `json:"adminPassword" binding:"required"`
}

type roomActionRequest struct {
	AdminPassword string `json:"adminPassword" binding:"required"`
	Action        string `json:"action" binding:"required"`
}

type uploadForm struct {
	RoomPassword string `form:"roomPassword" binding:"required"`
	Sender       string `form:"sender"`
}

type uploadResponse struct {
	URL       string `json:"url"`
	MediaType string `json:"mediaType"`
	FileName  string `json:"fileName"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
}

var errTooLarge = &domain.Error{Kind: domain.KindValidation, Msg: "File too large"}

type Handlers struct {
	orch           *orch.Orchestrator
	maxUploadBytes int64
}

func NewHandlers(o *orch.Orchestrator, maxUploadBytes int64) *Handlers {
	return &Handlers{orch: o, maxUploadBytes: maxUploadBytes}
}

// CreateRoom handles POST /api/rooms.
func (h *Handlers) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, domain.ErrMissingFields)
		return
	}
	if err := h.orch.CreateRoom(c.Request.Context(), req.RoomID, req.RoomPassword, req.AdminPassword); err != nil {
		abortWithError(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("room_id", req.RoomID).Msg("room created")
	c.JSON(http.StatusCreated, gin.H{"ok": true, "roomId": strings.TrimSpace(req.RoomID)})
}

// RoomAction handles POST /api/rooms/:id/action.
func (h *Handlers) RoomAction(c *gin.Context) {
	var req roomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, domain.ErrMissingFields)
		return
	}
	if err := h.orch.RoomAction(c.Request.Context(), c.Param("id"), req.AdminPassword, req.Action); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RoomInfo handles GET /api/rooms/:id.
func (h *Handlers) RoomInfo(c *gin.Context) {
	info, err := h.orch.RoomInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Upload handles POST /api/rooms/:id/upload (multipart: roomPassword, sender, file).
func (h *Handlers) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, uploadError(err))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, uploadError(err))
		return
	}
	file, err := header.Open()
	if err != nil {
		abortWithError(c, domain.Internal(err))
		return
	}
	defer file.Close()

	msg, err := h.orch.PostFile(c.Request.Context(), orch.Upload{
		RoomID:       c.Param("id"),
		RoomPassword: form.RoomPassword,
		Sender:       form.Sender,
		FileName:     header.Filename,
		MediaType:    header.Header.Get("Content-Type"),
		Body:         file,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("room_id", c.Param("id")).Str("url", msg.URL).Msg("file posted")
	c.JSON(http.StatusCreated, uploadResponse{
		URL:       msg.URL,
		MediaType: msg.MediaType,
		FileName:  msg.FileName,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
	})
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errTooLarge
	}
	return domain.ErrMissingFields
}
