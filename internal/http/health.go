package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database"
)

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Time    string            `json:"time"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports process and database health.
type HealthController struct {
	db      *database.Database
	version string
}

// NewHealthController creates a new health controller.
func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

// Status reports whether the service and its database are reachable.
func (hc *HealthController) Status(c *gin.Context) {
	response := HealthResponse{
		Status:  "healthy",
		Version: hc.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Checks:  map[string]string{},
	}

	if hc.db == nil {
		response.Checks["database"] = "not configured"
		c.JSON(http.StatusOK, response)
		return
	}

	sqlDB, err := hc.db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		response.Status = "unhealthy"
		response.Checks["database"] = "error: " + err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	response.Checks["database"] = "ok"
	c.JSON(http.StatusOK, response)
}
