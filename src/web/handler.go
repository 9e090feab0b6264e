// Package web serves the upload page: a plan goes in, the text report comes back
// for display or as a download.
package web

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/newrelic/nri-mssql-sqlplan/src/report"
	"github.com/newrelic/nri-mssql-sqlplan/src/showplan"
)

const (
	// MaxUploadSize caps the plan upload; a single plan is small
	MaxUploadSize = 32 << 20

	formField = "plan"
)

var errMissingUpload = errors.New("no plan file uploaded")

var uploadPage = template.Must(template.New("upload").Parse(`<!DOCTYPE html>
<html>
<head><title>Execution plan timings</title></head>
<body>
<h1>Execution plan timings</h1>
<form method="post" action="/extract" enctype="multipart/form-data">
<input type="file" name="{{.Field}}" accept="{{.Accept}}">
<button type="submit">Show</button>
<button type="submit" formaction="/download">Download {{.FileName}}</button>
</form>
</body>
</html>
`))

// NewHandler returns the routes of the upload page.
func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", serveUploadPage)
	mux.HandleFunc("/extract", func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, false)
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, r, true)
	})
	return mux
}

func serveUploadPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := uploadPage.Execute(w, map[string]string{
		"Field":    formField,
		"Accept":   strings.Join(showplan.AcceptedExtensions, ","),
		"FileName": report.DefaultFileName,
	})
	if err != nil {
		log.Error("Could not render upload page: %s", err)
	}
}

func serveReport(w http.ResponseWriter, r *http.Request, download bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, data, err := readUpload(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, showplan.ErrUnsupportedExtension) {
			status = http.StatusUnsupportedMediaType
		}
		http.Error(w, report.FailureMessage(err), status)
		return
	}

	extracted, err := showplan.Extract(data)
	if err != nil {
		log.Error("Failed to process %s: %s", name, err)
		http.Error(w, report.FailureMessage(err), http.StatusUnprocessableEntity)
		return
	}
	log.Info("Extracted %d statements from %s", len(extracted.Records), name)

	w.Header().Set("Content-Type", report.ContentType+"; charset=utf-8")
	if download {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.DefaultFileName))
	}
	if _, err := io.WriteString(w, report.FormatText(extracted)); err != nil {
		log.Error("Could not write report: %s", err)
	}
}

func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, header, err := r.FormFile(formField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, errMissingUpload
		}
		return "", nil, err
	}
	defer file.Close()

	if err := showplan.CheckFileName(header.Filename); err != nil {
		return "", nil, err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return header.Filename, data, nil
}
