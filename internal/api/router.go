// api/router.go
package api

import (
	"github.com/gin-gonic/gin"

	"csvw/internal/dialect"
	"csvw/internal/metadata"
)

// NewRouter wires the validation service routes.
func NewRouter(group *metadata.TableGroup, presets map[string]*dialect.Preset, strict bool) *gin.Engine {
	r := gin.Default()

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/meta", MetaListHandler(group))
		apiGroup.GET("/meta/:table", MetaTableHandler(group))
		apiGroup.GET("/dialects", DialectListHandler(presets))

		apiGroup.GET("/validate", ValidateHandler(group, strict))
		apiGroup.POST("/validate", ValidateUploadHandler(strict))
	}

	return r
}

func RunServer(addr string, group *metadata.TableGroup, presets map[string]*dialect.Preset, strict bool) {
	_ = NewRouter(group, presets, strict).Run(addr)
}
