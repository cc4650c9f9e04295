package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flood-rescue/db"
	"flood-rescue/rescue"
	"flood-rescue/types"
)

// CaseReport is the intake body from the reporting client. Lifecycle
// fields are never accepted from the wire: every report starts waiting,
// unanalyzed and unassigned.
type CaseReport struct {
	Name         string          `json:"name" binding:"required"`
	Contact      string          `json:"contact" binding:"required"`
	Description  string          `json:"description"`
	PeopleCount  int             `json:"people_count"`
	WaterLevel   string          `json:"water_level"`
	ReporterType string          `json:"reporter_type"`
	Location     *types.GeoPoint `json:"location"`
	Address      *types.Address  `json:"address"`
	ImageURL     string          `json:"image_url"`
}

// statusFor maps domain errors onto HTTP codes: missing documents are
// 404, lost state races are 409 so the client knows to re-fetch.
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func CreateCase(c *gin.Context, store db.CaseStore) {
	var report CaseReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newCase := &types.Case{
		Name:         report.Name,
		Contact:      report.Contact,
		Description:  report.Description,
		PeopleCount:  report.PeopleCount,
		WaterLevel:   report.WaterLevel,
		ReporterType: report.ReporterType,
		Location:     report.Location,
		Address:      report.Address,
		ImageURL:     report.ImageURL,
		Status:       types.StatusWaiting,
		Timestamp:    time.Now(),
	}

	id, err := store.Create(c.Request.Context(), newCase)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "status": types.StatusWaiting})
}

func ListCases(c *gin.Context, store db.CaseStore) {
	cases, err := store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

func GetCase(c *gin.Context, store db.CaseStore) {
	found, err := store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, found)
}

// AcceptCase claims a waiting case for the calling officer. A 409 means
// another officer got there first; the body carries the real state so
// the client can refresh.
func AcceptCase(c *gin.Context, coord *rescue.Coordinator) {
	var body struct {
		OfficerName    string `json:"officer_name" binding:"required"`
		OfficerContact string `json:"officer_contact"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := coord.Accept(c.Request.Context(), c.Param("id"), body.OfficerName, body.OfficerContact); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": types.StatusInProgress})
}

func CompleteCase(c *gin.Context, coord *rescue.Coordinator) {
	if err := coord.Complete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": types.StatusCompleted})
}

func MarkRecovery(c *gin.Context, coord *rescue.Coordinator) {
	if err := coord.MarkRecovery(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_black_case": true})
}

func FinishRecovery(c *gin.Context, coord *rescue.Coordinator) {
	if err := coord.FinishRecovery(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
