package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flood-rescue/shelter"
	"flood-rescue/types"
)

type CenterForm struct {
	Name       string         `json:"name" binding:"required"`
	Location   types.GeoPoint `json:"location"`
	Capacity   int            `json:"capacity"`
	Contact    string         `json:"contact"`
	Facilities []string       `json:"facilities"`
}

func CreateCenter(c *gin.Context, ledger *shelter.Ledger) {
	var form CenterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := ledger.CreateCenter(c.Request.Context(), &types.EvacuationCenter{
		Name:       form.Name,
		Location:   form.Location,
		Capacity:   form.Capacity,
		Contact:    form.Contact,
		Facilities: form.Facilities,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func ListCenters(c *gin.Context, ledger *shelter.Ledger) {
	centers, err := ledger.ListCenters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"centers": centers})
}

func GetCenter(c *gin.Context, ledger *shelter.Ledger) {
	center, err := ledger.GetCenter(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, center)
}

// RegisterResident checks a citizen into a shelter. Over-capacity is
// reported in the body, never as a rejection: software caps must not
// refuse physical entry.
func RegisterResident(c *gin.Context, ledger *shelter.Ledger) {
	var body struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := ledger.Register(c.Request.Context(), c.Param("id"), body.Name, body.Phone)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
