package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"yashubustudio/namematch/matcher"
)

const (
	employeeField  = "employee_csv_file"
	usernamesField = "usernames_csv_file"
	reportBaseName = "username_matches"

	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Refiner bool   `json:"refiner"`
	Time    string `json:"time"`
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message, RequestID: getRequestID(c)})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Refiner: s.refiner.Available(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMatch(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultPostForm("format", c.DefaultQuery("format", "csv"))))
	if format != "csv" && format != "xlsx" {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	employees, err := s.readUpload(c, employeeField)
	if err != nil {
		s.uploadError(c, err)
		return
	}
	usernameTable, err := s.readUpload(c, usernamesField)
	if err != nil {
		s.uploadError(c, err)
		return
	}

	usernames, err := matcher.ParseUsernames(usernameTable, s.cfg.Columns)
	if err != nil {
		s.matchError(c, err)
		return
	}
	opts := []matcher.Option{matcher.WithLogger(s.logger.With().Str("request_id", getRequestID(c)).Logger())}
	if s.refiner != nil {
		opts = append(opts, matcher.WithRefiner(s.refiner))
	}
	results, err := matcher.Run(c.Request.Context(), employees, usernames, s.cfg, opts...)
	if err != nil {
		s.matchError(c, err)
		return
	}

	rows := matcher.BuildReport(results)
	var buf bytes.Buffer
	contentType := csvContentType
	if format == "xlsx" {
		contentType = xlsxContentType
		err = matcher.WriteReportXLSX(&buf, rows)
	} else {
		err = matcher.WriteReportCSV(&buf, rows)
	}
	if err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, "failed to write report")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, reportBaseName, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

var errMissingFile = errors.New("missing file")

func (s *Server) readUpload(c *gin.Context, field string) (matcher.Table, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return matcher.Table{}, fmt.Errorf("%w: %s", errMissingFile, field)
		}
		return matcher.Table{}, err
	}
	if header.Filename == "" {
		return matcher.Table{}, fmt.Errorf("%w: %s", errMissingFile, field)
	}
	return readMultipart(header)
}

func readMultipart(header *multipart.FileHeader) (matcher.Table, error) {
	f, err := header.Open()
	if err != nil {
		return matcher.Table{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return matcher.ReadTableFrom(f, header.Filename)
}

func (s *Server) uploadError(c *gin.Context, err error) {
	_ = c.Error(err)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
	case errors.Is(err, errMissingFile):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case matcher.IsInputError(err):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("could not read upload: %v", err))
	}
}

func (s *Server) matchError(c *gin.Context, err error) {
	_ = c.Error(err)
	if matcher.IsInputError(err) {
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if ctxErr := c.Request.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		abortWithError(c, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	abortWithError(c, http.StatusInternalServerError, "matching failed")
}
