package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Online    bool      `json:"online"`
	Timestamp time.Time `json:"timestamp"`
}

type BackupResponse struct {
	File    string `json:"file"`
	Records int    `json:"records"`
}

// Health needs no API key
func (h *Handlers) Health(c *gin.Context) {
	ok(c, "API de Reconhecimento Facial está online!", HealthResponse{
		Online:    true,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handlers) Backup(c *gin.Context) {
	res, err := h.Service.Backup(c.Request.Context())
	if err != nil {
		h.fail(c, "backup", err)
		return
	}
	h.Logger.Info("backup created", "file", res.Artifact, "location", res.Location, "records", res.Records)
	ok(c, "Backup criado.", BackupResponse{File: res.Artifact, Records: res.Records})
}
