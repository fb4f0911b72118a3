package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"csvw/internal/dialect"
	"csvw/internal/metadata"
)

// ===== META HANDLERS =====

type metaTableListItem struct {
	URL     string `json:"url"`
	Columns int    `json:"columns"`
}

func MetaListHandler(g *metadata.TableGroup) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make([]metaTableListItem, 0, len(g.Tables))
		for _, t := range g.Tables {
			out = append(out, metaTableListItem{
				URL:     t.LocalName(),
				Columns: len(t.Schema.Columns),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaColumn struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Datatype string `json:"datatype,omitempty"`
	Required bool   `json:"required"`
	Virtual  bool   `json:"virtual,omitempty"`
}

type metaForeignKey struct {
	Columns    []string `json:"columns"`
	RefTable   string   `json:"refTable"`
	RefColumns []string `json:"refColumns"`
}

type metaTable struct {
	URL         string           `json:"url"`
	PrimaryKey  []string         `json:"primaryKey,omitempty"`
	Columns     []metaColumn     `json:"columns"`
	ForeignKeys []metaForeignKey `json:"foreignKeys,omitempty"`
}

func MetaTableHandler(g *metadata.TableGroup) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("table")
		t := g.TableByName(name)
		if t == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
			return
		}

		cols := make([]metaColumn, 0, len(t.Schema.Columns))
		for _, col := range t.Schema.Columns {
			mc := metaColumn{
				Name:     col.Header(),
				Required: col.InheritedRequired(),
				Virtual:  col.Virtual,
			}
			if col.Titles != nil {
				mc.Title = col.Titles.First()
			}
			if dt := col.InheritedDatatype(); dt != nil {
				mc.Datatype = dt.Base
			}
			cols = append(cols, mc)
		}

		fks := make([]metaForeignKey, 0, len(t.Schema.ForeignKeys))
		for _, fk := range t.Schema.ForeignKeys {
			fks = append(fks, metaForeignKey{
				Columns:    fk.ColumnReference,
				RefTable:   fk.Reference.Resource,
				RefColumns: fk.Reference.ColumnReference,
			})
		}

		c.JSON(http.StatusOK, metaTable{
			URL:         t.LocalName(),
			PrimaryKey:  t.Schema.PrimaryKey,
			Columns:     cols,
			ForeignKeys: fks,
		})
	}
}

func DialectListHandler(presets map[string]*dialect.Preset) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make(map[string]*dialect.Preset, len(presets))
		for k, v := range presets {
			out[k] = v
		}
		c.JSON(http.StatusOK, out)
	}
}

// ===== VALIDATION HANDLERS =====

func reportStatus(rep *Report, strict bool) int {
	if strict && !rep.Valid {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

// ValidateHandler validates the configured table group.
func ValidateHandler(g *metadata.TableGroup, strict bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep := ValidateGroup(g)
		c.JSON(reportStatus(rep, strict), rep)
	}
}

// ValidateUploadHandler validates an ad-hoc submission: a multipart form
// with a "metadata" JSON part plus the CSV files it references, matched by
// file name.
func ValidateUploadHandler(strict bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		meta := form.File["metadata"]
		if len(meta) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "metadata part is required"})
			return
		}

		dir, err := os.MkdirTemp("", "csvw-validate-*")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer os.RemoveAll(dir)

		for _, files := range form.File {
			for _, fh := range files {
				dst := filepath.Join(dir, filepath.Base(fh.Filename))
				if err := c.SaveUploadedFile(fh, dst); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
			}
		}

		data, err := os.ReadFile(filepath.Join(dir, filepath.Base(meta[0].Filename)))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		group, err := metadata.FromJSON(data, dir)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rep := ValidateGroup(group)
		c.JSON(reportStatus(rep, strict), rep)
	}
}
