package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/dictate/version"
)

// VersionReport is the body of GET /version.
type VersionReport struct {
	Service string `json:"service"`
	version.Info
}

// Version serves the build information of the running daemon.
func Version(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, VersionReport{Service: serviceName, Info: version.Get()})
	}
}
