package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flood-rescue/db"
	"flood-rescue/types"
)

const criticalRiskScore = 8

// Stats aggregates the command-center counters over both collections.
func Stats(c *gin.Context, cases db.CaseStore, centers db.CenterStore) {
	ctx := c.Request.Context()

	allCases, err := cases.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	allCenters, err := centers.ListCenters(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var waiting, working, completed, critical, black int
	for _, cs := range allCases {
		switch cs.Status {
		case types.StatusWaiting:
			waiting++
		case types.StatusInProgress:
			working++
		case types.StatusCompleted:
			completed++
		}
		if cs.Analysis != nil && cs.Analysis.RiskScore >= criticalRiskScore && cs.Status != types.StatusCompleted {
			critical++
		}
		if cs.IsBlackCase {
			black++
		}
	}

	var capacity, occupancy int
	for _, center := range allCenters {
		capacity += center.Capacity
		occupancy += center.CurrentPeople
	}

	c.JSON(http.StatusOK, gin.H{
		"total_cases":     len(allCases),
		"waiting":         waiting,
		"working":         working,
		"completed":       completed,
		"critical":        critical,
		"black_cases":     black,
		"total_centers":   len(allCenters),
		"total_capacity":  capacity,
		"total_occupancy": occupancy,
	})
}

// Export dumps both collections as one JSON document, mirroring the
// command center's backup download.
func Export(c *gin.Context, cases db.CaseStore, centers db.CenterStore) {
	ctx := c.Request.Context()

	allCases, err := cases.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	allCenters, err := centers.ListCenters(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="rescue_data.json"`)
	c.JSON(http.StatusOK, gin.H{
		"requests": allCases,
		"centers":  allCenters,
	})
}
