package handler

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/atlekbai/metaquery/internal/middleware"
	"github.com/atlekbai/metaquery/internal/result"
	"github.com/atlekbai/metaquery/internal/service"
)

// maxDocumentBytes bounds the size of a posted query document.
const maxDocumentBytes = 1 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *service.MetadataService
}

func New(svc *service.MetadataService) *Handler {
	return &Handler{svc: svc}
}

// Routes returns the API router with the standard middleware chain.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recovery, middleware.Logging, middleware.ContentType)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/models", h.ListModels).Methods(http.MethodGet)
	api.HandleFunc("/models/{domain}/{model}", h.GetModel).Methods(http.MethodGet)
	api.HandleFunc("/query", h.Query).Methods(http.MethodPost)
	api.HandleFunc("/query/mql", h.ToMQL).Methods(http.MethodPost)
	return r
}

// ListModels handles GET /api/models?domain=&model=
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.svc.ListBusinessModels(q.Get("domain"), q.Get("model")))
}

// GetModel handles GET /api/models/{domain}/{model}
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, ok := h.svc.LoadModel(vars["domain"], vars["model"])
	if !ok {
		writeNotFound(w, fmt.Sprintf("No model '%s' in domain '%s'", vars["model"], vars["domain"]))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Query handles POST /api/query?limit=&format=
//
// The body is an MQL document when the Content-Type names XML and a JSON
// query otherwise. format selects the response encoding: json (default),
// cda, xml or xlsx.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidParam, err.Error(), "")
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "":
		format = "json"
	case "json", "cda", "xml", "xlsx":
	default:
		writeError(w, http.StatusBadRequest, codeInvalidParam,
			fmt.Sprintf("unknown format %q", format), "Supported formats: json, cda, xml, xlsx")
		return
	}

	doc, err := readDocument(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDocument, "Query document could not be read", err.Error())
		return
	}

	var (
		rs    *result.ResultSet
		found bool
	)
	if isXML(r, doc) {
		rs, found, err = h.svc.DoXMLQuery(r.Context(), string(doc), limit)
	} else {
		rs, found, err = h.svc.DoJSONQuery(r.Context(), string(doc), limit)
	}
	if err != nil {
		writeQueryError(w, err)
		return
	}
	if !found {
		writeNotFound(w, "The query names a model, category or column that does not exist")
		return
	}

	switch format {
	case "json":
		writeJSON(w, http.StatusOK, rs)
	case "cda":
		body, err := result.CDAJSON(rs)
		if err != nil {
			writeQueryError(w, err)
			return
		}
		writeBody(w, "application/json", body)
	case "xml":
		body, err := xml.Marshal(rs)
		if err != nil {
			writeQueryError(w, err)
			return
		}
		writeBody(w, "application/xml", append([]byte(xml.Header), body...))
	case "xlsx":
		var buf bytes.Buffer
		if err := result.WriteXLSX(&buf, rs); err != nil {
			writeQueryError(w, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="result.xlsx"`)
		writeBody(w, xlsxContentType, buf.Bytes())
	}
}

// ToMQL handles POST /api/query/mql, converting a JSON query to MQL.
func (h *Handler) ToMQL(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDocument, "Query document could not be read", err.Error())
		return
	}
	body, found, err := h.svc.JSONQueryToXML(string(doc))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	if !found {
		writeNotFound(w, "The query names a model that does not exist")
		return
	}
	writeBody(w, "application/xml", body)
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < -1 {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	return n, nil
}

func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, errors.New("empty body")
	}
	return doc, nil
}

func isXML(r *http.Request, doc []byte) bool {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		if strings.HasSuffix(mt, "/xml") || strings.HasSuffix(mt, "+xml") {
			return true
		}
		if mt == "application/json" {
			return false
		}
	}
	return bytes.HasPrefix(bytes.TrimSpace(doc), []byte("<"))
}
