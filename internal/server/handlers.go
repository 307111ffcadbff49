package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/chitboxes/pkg/errors"
	"github.com/matzehuels/chitboxes/pkg/imageio"
	"github.com/matzehuels/chitboxes/pkg/observability"
	"github.com/matzehuels/chitboxes/pkg/pipeline"
)

// CacheHeader reports whether the response was served from the cache.
const CacheHeader = "X-Cache"

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.cfg.Version})
}

func (s *Server) handleBoxes(w http.ResponseWriter, r *http.Request) {
	opts, format, err := s.parseRequest(w, r, true)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", pipeline.ContentTypes[format])
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "chitbox-"+RequestID(r.Context())+"."+format))
	h.Set(CacheHeader, cacheStatus(res.CacheInfo.RenderHit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	opts, _, err := s.parseRequest(w, r, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, hit, err := s.runner.Preview(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentTypes[pipeline.FormatPNG])
	w.Header().Set(CacheHeader, cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if stderrors.Is(err, context.DeadlineExceeded) {
		err = errors.Wrap(errors.ErrCodeTimeout, err, "request timed out")
	}
	observability.HTTP().OnError(ctx, r.Method, r.URL.Path, err)

	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(ctx), "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "id", RequestID(ctx), "code", apiErr.Code, "error", err)
	}
	writeJSON(w, apiErr.Status, apiErr)
}

// parseRequest reads box parameters from the query string or form body.
// Uploaded artwork is decoded only when withImages is set.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request, withImages bool) (pipeline.Options, string, error) {
	var opts pipeline.Options
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(s.cfg.MaxUploadBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return opts, "", NewTooLargeError(s.cfg.MaxUploadBytes)
		}
		return opts, "", NewBadRequestError("malformed form: " + err.Error())
	}

	for _, f := range []struct {
		name string
		dst  *float64
	}{{"width", &opts.Width}, {"height", &opts.Height}, {"depth", &opts.Depth}} {
		v := strings.TrimSpace(r.FormValue(f.name))
		if v == "" {
			return opts, "", errors.New(errors.ErrCodeInvalidDimensions, "%s is required", f.name)
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, "", errors.New(errors.ErrCodeInvalidDimensions, "%s: %q is not a number", f.name, v)
		}
		*f.dst = n
	}

	opts.Destination = "request " + RequestID(r.Context())
	opts.PageSize = r.FormValue("pagesize")
	if v := r.FormValue("sample"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, "", NewBadRequestError(fmt.Sprintf("sample: %q is not a boolean", v))
		}
		opts.Sample = b
	}

	format := strings.ToLower(strings.TrimSpace(r.FormValue("format")))
	if format == "" {
		format = pipeline.DefaultFormat
	}
	opts.Formats = []string{format}

	if withImages && r.MultipartForm != nil {
		if opts.Centre, err = readUpload(r, "centre"); err != nil {
			return opts, "", err
		}
		if opts.Side, err = readUpload(r, "side"); err != nil {
			return opts, "", err
		}
	}
	return opts, format, nil
}

// readUpload decodes the uploaded file in field. A missing field is no image.
func readUpload(r *http.Request, field string) (*imageio.Resource, error) {
	f, hdr, err := r.FormFile(field)
	if stderrors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, NewBadRequestError(fmt.Sprintf("%s: %v", field, err))
	}
	defer f.Close()

	if err := errors.ValidateUploadFilename(hdr.Filename); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, NewBadRequestError(fmt.Sprintf("%s: %v", field, err))
	}
	return imageio.Decode(hdr.Filename, data)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
