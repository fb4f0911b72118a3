package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"csvw/internal/dialect"
	"csvw/internal/metadata"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testMeta = `{
	"tables": [
		{
			"url": "people.csv",
			"tableSchema": {
				"columns": [
					{"name": "id", "datatype": "integer"},
					{"name": "name", "required": true}
				],
				"primaryKey": ["id"]
			}
		},
		{
			"url": "pets.csv",
			"tableSchema": {
				"columns": [
					{"name": "pet"},
					{"name": "owner", "datatype": "integer"}
				],
				"foreignKeys": [{
					"columnReference": "owner",
					"reference": {"resource": "people.csv", "columnReference": "id"}
				}]
			}
		}
	]
}`

func newTestRouter(t *testing.T, files map[string]string, strict bool) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	g, err := metadata.FromJSON([]byte(testMeta), dir)
	require.NoError(t, err)
	presets := map[string]*dialect.Preset{
		"tsv": {Name: "tsv", Dialect: *dialect.Default()},
	}
	return NewRouter(g, presets, strict)
}

func doRequest(r *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMetaList(t *testing.T) {
	require := require.New(t)

	r := newTestRouter(t, nil, false)
	w := doRequest(r, http.MethodGet, "/api/meta", nil, "")
	require.Equal(http.StatusOK, w.Code)

	var out []map[string]any
	require.NoError(json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(out, 2)
	require.Equal("people.csv", out[0]["url"])
	require.Equal(float64(2), out[0]["columns"])
}

func TestMetaTable(t *testing.T) {
	require := require.New(t)

	r := newTestRouter(t, nil, false)
	w := doRequest(r, http.MethodGet, "/api/meta/pets.csv", nil, "")
	require.Equal(http.StatusOK, w.Code)

	var out metaTable
	require.NoError(json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal("pets.csv", out.URL)
	require.Len(out.Columns, 2)
	require.Equal("owner", out.Columns[1].Name)
	require.Equal("integer", out.Columns[1].Datatype)
	require.Len(out.ForeignKeys, 1)
	require.Equal("people.csv", out.ForeignKeys[0].RefTable)

	w = doRequest(r, http.MethodGet, "/api/meta/missing.csv", nil, "")
	require.Equal(http.StatusNotFound, w.Code)
}

func TestDialectList(t *testing.T) {
	require := require.New(t)

	r := newTestRouter(t, nil, false)
	w := doRequest(r, http.MethodGet, "/api/dialects", nil, "")
	require.Equal(http.StatusOK, w.Code)

	var out map[string]*dialect.Preset
	require.NoError(json.Unmarshal(w.Body.Bytes(), &out))
	require.Contains(out, "tsv")
}

func TestValidateOK(t *testing.T) {
	require := require.New(t)

	r := newTestRouter(t, map[string]string{
		"people.csv": "id,name\n1,Anna\n2,Bob\n",
		"pets.csv":   "pet,owner\nRex,1\nMia,2\n",
	}, true)
	w := doRequest(r, http.MethodGet, "/api/validate", nil, "")
	require.Equal(http.StatusOK, w.Code)

	var rep Report
	require.NoError(json.Unmarshal(w.Body.Bytes(), &rep))
	require.True(rep.Valid)
	require.NotEmpty(rep.ID)
	require.Equal([]string{"people.csv", "pets.csv"}, rep.Checked)
	require.Empty(rep.Issues)
}

func TestValidateViolations(t *testing.T) {
	require := require.New(t)

	r := newTestRouter(t, map[string]string{
		// Duplicate primary key and a required cell left empty.
		"people.csv": "id,name\n1,Anna\n1,Bob\n2,\n",
		// A bad integer and a dangling reference.
		"pets.csv": "pet,owner\nRex,x\nMia,9\n",
	}, true)
	w := doRequest(r, http.MethodGet, "/api/validate", nil, "")
	require.Equal(http.StatusUnprocessableEntity, w.Code)

	var rep Report
	require.NoError(json.Unmarshal(w.Body.Bytes(), &rep))
	require.False(rep.Valid)

	codes := map[string]bool{}
	for _, issue := range rep.Issues {
		codes[issue.Code] = true
	}
	require.True(codes[ErrDuplicatePK], "codes: %v", codes)
	require.True(codes[ErrRequiredMissing], "codes: %v", codes)
	require.True(codes[ErrInvalidValue], "codes: %v", codes)
	require.True(codes[ErrRefNotFound], "codes: %v", codes)
}

func TestValidateMissingColumn(t *testing.T) {
	require := require.New(t)

	r := newTestRouter(t, map[string]string{
		"people.csv": "id\n1\n",
		"pets.csv":   "pet,owner\n",
	}, false)
	w := doRequest(r, http.MethodGet, "/api/validate", nil, "")
	require.Equal(http.StatusOK, w.Code) // lenient mode still answers 200

	var rep Report
	require.NoError(json.Unmarshal(w.Body.Bytes(), &rep))
	require.False(rep.Valid)

	found := false
	for _, issue := range rep.Issues {
		if issue.Code == ErrMissingColumn && issue.Table == "people.csv" {
			found = true
		}
	}
	require.True(found, "issues: %v", rep.Issues)
}

func TestValidateUpload(t *testing.T) {
	require := require.New(t)

	r := newTestRouter(t, nil, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("metadata", "metadata.json")
	require.NoError(err)
	_, err = part.Write([]byte(testMeta))
	require.NoError(err)
	part, err = mw.CreateFormFile("files", "people.csv")
	require.NoError(err)
	_, err = part.Write([]byte("id,name\n1,Anna\n"))
	require.NoError(err)
	part, err = mw.CreateFormFile("files", "pets.csv")
	require.NoError(err)
	_, err = part.Write([]byte("pet,owner\nRex,1\n"))
	require.NoError(err)
	require.NoError(mw.Close())

	w := doRequest(r, http.MethodPost, "/api/validate", &body, mw.FormDataContentType())
	require.Equal(http.StatusOK, w.Code)

	var rep Report
	require.NoError(json.Unmarshal(w.Body.Bytes(), &rep))
	require.True(rep.Valid)
	require.Equal([]string{"people.csv", "pets.csv"}, rep.Checked)
}

func TestValidateUploadBadRequest(t *testing.T) {
	require := require.New(t)

	r := newTestRouter(t, nil, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "people.csv")
	require.NoError(err)
	_, err = part.Write([]byte("id,name\n"))
	require.NoError(err)
	require.NoError(mw.Close())

	w := doRequest(r, http.MethodPost, "/api/validate", &body, mw.FormDataContentType())
	require.Equal(http.StatusBadRequest, w.Code)
}
