package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode keeps debug output, including error details in responses, to
// development.
func SetGinMode(env string) {
	if env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
}
