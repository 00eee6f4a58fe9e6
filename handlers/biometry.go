package handlers

import (
	"biometria/biometry"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// EnrollRequest accepts both the current field names and the legacy
// Portuguese ones.
type EnrollRequest struct {
	ID          string `json:"id"`
	CPF         string `json:"cpf"`
	Name        string `json:"name"`
	Nome        string `json:"nome"`
	Photo       string `json:"photo"`
	PhotoBase64 string `json:"photo_base64"`
}

type VerifyRequest struct {
	ID          string `json:"id"`
	CPF         string `json:"cpf"`
	Photo       string `json:"photo"`
	PhotoBase64 string `json:"photo_base64"`
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type StatusResponse struct {
	ID           string     `json:"id"`
	HasBiometry  bool       `json:"has_biometry"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
	Name         string     `json:"name,omitempty"`
}

type EnrollResponse struct {
	ID           string  `json:"id"`
	QualityScore float64 `json:"quality_score"`
}

type NoFaceResponse struct {
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type VerifyResponse struct {
	Validated         bool    `json:"validated"`
	Similarity        string  `json:"similarity"` // Two decimals, kept for older clients
	SimilarityPercent float64 `json:"similarity_percent"`
	Distance          float64 `json:"distance"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Removed int64  `json:"removed"`
}

func (h *Handlers) Status(c *gin.Context) {
	id := c.Param("id")
	res, err := h.Service.Status(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "status", err)
		return
	}
	if !res.Enrolled {
		ok(c, "Sem biometria cadastrada.", StatusResponse{ID: id})
		return
	}
	at := res.EnrolledAt
	ok(c, "Usuário possui biometria.", StatusResponse{
		ID:           id,
		HasBiometry:  true,
		RegisteredAt: &at,
		Name:         res.DisplayName,
	})
}

func (h *Handlers) Register(c *gin.Context) {
	var r EnrollRequest
	if !h.bindJSON(c, "register", &r) {
		return
	}
	id := firstOf(r.ID, r.CPF)
	res, err := h.Service.Enroll(c.Request.Context(), biometry.EnrollRequest{
		IdentityID:  id,
		DisplayName: firstOf(r.Name, r.Nome),
		Photo:       firstOf(r.Photo, r.PhotoBase64),
	})
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	if res.Outcome == biometry.NoFaceDetected {
		negative(c, "Nenhum rosto detectado.", NoFaceResponse{
			Issues:          []string{string(biometry.NoFaceDetected)},
			Recommendations: res.Hints,
		})
		return
	}
	ok(c, "Biometria cadastrada com sucesso!", EnrollResponse{ID: id, QualityScore: res.QualityScore})
}

func (h *Handlers) Validate(c *gin.Context) {
	var r VerifyRequest
	if !h.bindJSON(c, "validate", &r) {
		return
	}
	res, err := h.Service.Verify(c.Request.Context(), biometry.VerifyRequest{
		IdentityID: firstOf(r.ID, r.CPF),
		Photo:      firstOf(r.Photo, r.PhotoBase64),
	})
	if err != nil {
		h.fail(c, "validate", err)
		return
	}
	switch res.Outcome {
	case biometry.NoEnrollment:
		negative(c, "Biometria não encontrada para este CPF.", nil)
		return
	case biometry.NoFaceDetected:
		negative(c, "Foto inválida para validação. Nenhum rosto detectado.", NoFaceResponse{
			Issues:          []string{string(biometry.NoFaceDetected)},
			Recommendations: res.Hints,
		})
		return
	}

	d := res.Decision
	data := VerifyResponse{
		Validated:         d.Match,
		Similarity:        strconv.FormatFloat(d.SimilarityPercent, 'f', 2, 64),
		SimilarityPercent: math.Round(d.SimilarityPercent*100) / 100,
		Distance:          d.Distance,
	}
	if d.Match {
		ok(c, "Acesso Autorizado.", data)
	} else {
		ok(c, "Acesso Negado (Rosto não corresponde).", data)
	}
}

func (h *Handlers) Delete(c *gin.Context) {
	id := c.Param("id")
	res, err := h.Service.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "delete", err)
		return
	}
	if res.Removed == 0 {
		negative(c, "CPF não encontrado.", DeleteResponse{ID: id})
		return
	}
	ok(c, "Dados biométricos removidos.", DeleteResponse{ID: id, Removed: res.Removed})
}
