package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/identity"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/middleware"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

var log = logging.New("endpoints")

// maxBodySize bounds JSON request bodies. Object uploads are not JSON and
// use their own limit.
const maxBodySize = 1 << 20

// apiError carries an HTTP status and a detail message through handler
// helpers.
type apiError struct {
	code   int
	detail string
}

func (e *apiError) Error() string { return e.detail }

func newAPIError(code int, format string, args ...interface{}) error {
	return &apiError{code: code, detail: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...interface{}) error {
	return newAPIError(http.StatusBadRequest, format, args...)
}

// errNotFound answers 404 like a missing record.
var errNotFound = &apiError{code: http.StatusNotFound, detail: "Not found."}

func respondWithError(w http.ResponseWriter, code int, detail string) {
	respondWithJSON(w, code, map[string]string{"detail": detail})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// writeError maps an error onto the API's status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiError
	var validation *model.ValidationError

	switch {
	case errors.As(err, &apiErr):
		respondWithError(w, apiErr.code, apiErr.detail)
	case errors.As(err, &validation):
		respondWithJSON(w, http.StatusBadRequest, validation.Fields)
	case errors.Is(err, model.ErrInvalidLaunchConfig):
		respondWithJSON(w, http.StatusBadRequest, map[string][]string{"application_config": {err.Error()}})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, cloud.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, store.ErrConflict):
		respondWithError(w, http.StatusConflict, "A record with these values already exists.")
	case errors.Is(err, cloud.ErrNotSupported):
		respondWithError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, cloud.ErrAuthentication):
		respondWithError(w, http.StatusBadGateway, err.Error())
	default:
		log.WithError(err).WithField("method", r.Method).WithField("path", r.URL.Path).Error("request failed")
		respondWithError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// decodeJSON reads a JSON body into v. Unknown fields are ignored.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return badRequest("Could not read request body.")
	}
	if len(body) > maxBodySize {
		return newAPIError(http.StatusRequestEntityTooLarge, "Request body too large.")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return badRequest("JSON parse error - empty body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return badRequest("JSON parse error - %s", err.Error())
	}
	return nil
}

// pathVar returns a decoded route variable. The router keeps paths encoded.
func pathVar(r *http.Request, name string) string {
	v := mux.Vars(r)[name]
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func uintVar(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(pathVar(r, name), 10, 64)
	if err != nil {
		return 0, errNotFound
	}
	return uint(id), nil
}

// baseURL is the scheme and host the client used to reach the server.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// absURL turns an API path into an absolute URL.
func absURL(r *http.Request, path string) string {
	return baseURL(r) + server.APIPrefix + path
}

// links maps names onto absolute URLs below prefix.
func links(r *http.Request, prefix string, names ...string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = absURL(r, prefix+name+"/")
	}
	return out
}

// Paginated is the envelope of every paginated listing.
type Paginated struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

type pageRequest struct {
	number int
	size   int
}

func (p pageRequest) store() store.Page {
	return store.Page{Offset: (p.number - 1) * p.size, Limit: p.size}
}

// parsePage reads ?page= and ?page_size=. An invalid page is a 404 as in
// any paginated API; an invalid size falls back to the default.
func parsePage(r *http.Request, cfg *config.Config) (pageRequest, error) {
	p := pageRequest{number: 1, size: cfg.PageSize}
	if p.size <= 0 {
		p.size = 10
	}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, newAPIError(http.StatusNotFound, "Invalid page.")
		}
		p.number = n
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.size = n
		}
	}
	if cfg.PageSizeMax > 0 && p.size > cfg.PageSizeMax {
		p.size = cfg.PageSizeMax
	}
	return p, nil
}

func pageLink(r *http.Request, number int) *string {
	u := *r.URL
	q := u.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	link := baseURL(r) + u.RequestURI()
	return &link
}

// paginate builds the envelope for one page of count results.
func paginate(r *http.Request, p pageRequest, count int64, results interface{}) (*Paginated, error) {
	if p.number > 1 && int64((p.number-1)*p.size) >= count {
		return nil, newAPIError(http.StatusNotFound, "Invalid page.")
	}
	out := &Paginated{Count: count, Results: results}
	if int64(p.number*p.size) < count {
		out.Next = pageLink(r, p.number+1)
	}
	if p.number > 1 {
		out.Previous = pageLink(r, p.number-1)
	}
	return out, nil
}

// requiredFields reports every empty value in fields as a required-field
// validation error.
func requiredFields(fields map[string]string) error {
	v := &model.ValidationError{}
	for name, value := range fields {
		if value == "" {
			v.Add(name, "This field is required.")
		}
	}
	return v.Err()
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func remoteIP(id *identity.Identity) string {
	if id == nil || id.RemoteIP == nil {
		return ""
	}
	return id.RemoteIP.String()
}

// requestIP is the client address of an unauthenticated request.
func requestIP(r *http.Request, cfg *config.Config) string {
	if ip := middleware.ClientIP(r, cfg); ip != nil {
		return ip.String()
	}
	return ""
}
