package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flood-rescue/db"
	"flood-rescue/handlers"
	"flood-rescue/rescue"
	"flood-rescue/shelter"
)

// Deps carries the constructed components the routes close over.
// TriageModel is the bound model ID, or empty when no candidate passed
// its startup probe; the server keeps running either way.
type Deps struct {
	Cases       db.CaseStore
	Centers     db.CenterStore
	Coordinator *rescue.Coordinator
	Ledger      *shelter.Ledger
	TriageModel string
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Flood Rescue backend is running",
		})
	})

	r.GET("/healthz", func(c *gin.Context) {
		triage := "active"
		if d.TriageModel == "" {
			triage = "disabled"
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"triage": triage,
			"model":  d.TriageModel,
		})
	})

	api := r.Group("/api/rescue")
	{
		api.POST("/cases", func(c *gin.Context) { handlers.CreateCase(c, d.Cases) })
		api.GET("/cases", func(c *gin.Context) { handlers.ListCases(c, d.Cases) })
		api.GET("/cases/:id", func(c *gin.Context) { handlers.GetCase(c, d.Cases) })

		api.POST("/cases/:id/accept", func(c *gin.Context) { handlers.AcceptCase(c, d.Coordinator) })
		api.POST("/cases/:id/complete", func(c *gin.Context) { handlers.CompleteCase(c, d.Coordinator) })
		api.POST("/cases/:id/recovery", func(c *gin.Context) { handlers.MarkRecovery(c, d.Coordinator) })
		api.POST("/cases/:id/recovery/finish", func(c *gin.Context) { handlers.FinishRecovery(c, d.Coordinator) })

		api.POST("/centers", func(c *gin.Context) { handlers.CreateCenter(c, d.Ledger) })
		api.GET("/centers", func(c *gin.Context) { handlers.ListCenters(c, d.Ledger) })
		api.GET("/centers/:id", func(c *gin.Context) { handlers.GetCenter(c, d.Ledger) })
		api.POST("/centers/:id/residents", func(c *gin.Context) { handlers.RegisterResident(c, d.Ledger) })

		api.GET("/stats", func(c *gin.Context) { handlers.Stats(c, d.Cases, d.Centers) })
		api.GET("/export", func(c *gin.Context) { handlers.Export(c, d.Cases, d.Centers) })
	}

	return r
}
