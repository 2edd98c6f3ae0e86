package web

import (
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/stack-scanner/internal/imaging"
	"github.com/ironsheep/stack-scanner/internal/links"
	"github.com/ironsheep/stack-scanner/internal/scanner"
	"github.com/ironsheep/stack-scanner/internal/session"
)

// Upload error kinds, in addition to the scanner kinds.
const (
	kindMissingImage = "missing_image"
	kindTooLarge     = "too_large"
)

var (
	errMissingImage = errors.New("no image uploaded")
	errTooLarge     = errors.New("upload too large")
)

type flash struct {
	Kind string // success, warning or error
	Text string
}

type previewView struct {
	Filename string
	DataURI  template.URL
	Width    int
	Height   int
}

type recordView struct {
	Code   string `json:"code"`
	Link   string `json:"link"`
	LinkOK bool   `json:"link_ok"`
}

type pageData struct {
	Flash   *flash
	Preview *previewView
	Records []recordView
	Sink    string
}

func recordViews(records []links.Record) []recordView {
	out := make([]recordView, 0, len(records))
	for _, r := range records {
		out = append(out, recordView{Code: string(r.Code), Link: r.Link, LinkOK: r.LinkOK()})
	}
	return out
}

func (s *Server) render(c *gin.Context, status int, sess *session.Session, f *flash) {
	data := pageData{
		Flash:   f,
		Records: recordViews(sess.Records()),
		Sink:    s.sink,
	}
	if p := sess.Preview(); p != nil {
		data.Preview = &previewView{
			Filename: p.Filename,
			// Thumbnails are generated server-side as PNG data URIs.
			DataURI: template.URL(p.DataURI),
			Width:   p.Width,
			Height:  p.Height,
		}
	}
	c.HTML(status, "index.html", data)
}

// readUpload decodes the "image" form file. A body cut off by limitBody or a
// file over the upload cap is errTooLarge; anything else that leaves no file
// is errMissingImage.
func (s *Server) readUpload(c *gin.Context) (*imaging.Photo, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, "", errTooLarge
		}
		return nil, "", errMissingImage
	}
	if fh.Size > s.maxUpload {
		return nil, fh.Filename, errTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fh.Filename, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	photo, err := imaging.Decode(f)
	if err != nil {
		return nil, fh.Filename, err
	}
	return photo, fh.Filename, nil
}

func (s *Server) index(c *gin.Context) {
	s.render(c, http.StatusOK, sessionFrom(c), nil)
}

func (s *Server) scanForm(c *gin.Context) {
	sess := sessionFrom(c)

	photo, name, err := s.readUpload(c)
	switch {
	case errors.Is(err, errMissingImage):
		s.render(c, http.StatusBadRequest, sess, &flash{Kind: "error", Text: "Choose a photo first."})
		return
	case errors.Is(err, errTooLarge):
		s.render(c, http.StatusRequestEntityTooLarge, sess, &flash{Kind: "error", Text: s.tooLargeMessage()})
		return
	}
	if err == nil {
		var res *scanner.ScanResult
		res, err = s.svc.Scan(c.Request.Context(), sess, photo, name)
		if err == nil {
			f := &flash{Kind: "success", Text: res.Message()}
			if res.NoCodes {
				f.Kind = "warning"
			}
			s.render(c, http.StatusOK, sess, f)
			return
		}
	}

	kind := scanner.Kind(err)
	s.render(c, statusFor(kind), sess, &flash{Kind: "error", Text: scanner.Message(err)})
}

func (s *Server) saveForm(c *gin.Context) {
	sess := sessionFrom(c)

	res, err := s.svc.Save(c.Request.Context(), sess)
	if err != nil {
		s.render(c, statusFor(scanner.Kind(err)), sess, &flash{Kind: "error", Text: scanner.Message(err)})
		return
	}
	s.render(c, http.StatusOK, sess, &flash{Kind: "success", Text: res.Message()})
}

func (s *Server) clearForm(c *gin.Context) {
	sess := sessionFrom(c)
	s.svc.Clear(sess)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) tooLargeMessage() string {
	return fmt.Sprintf("That photo is too large. Upload a picture under %s.", humanBytes(s.maxUpload))
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// apiError writes err as JSON. detail carries the backend's own error text
// for collection failures and is omitted otherwise.
func apiError(c *gin.Context, err error) {
	kind := scanner.Kind(err)
	body := gin.H{"error": scanner.Message(err), "error_kind": kind}
	if cause := scanner.Cause(err); cause != "" {
		body["detail"] = cause
	}
	c.JSON(statusFor(kind), body)
}

func (s *Server) scanAPI(c *gin.Context) {
	sess := sessionFrom(c)

	photo, name, err := s.readUpload(c)
	switch {
	case errors.Is(err, errMissingImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "image form field is required", "error_kind": kindMissingImage})
		return
	case errors.Is(err, errTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": s.tooLargeMessage(), "error_kind": kindTooLarge})
		return
	case err != nil:
		apiError(c, err)
		return
	}

	res, err := s.svc.Scan(c.Request.Context(), sess, photo, name)
	if err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records":    recordViews(res.Records),
		"no_codes":   res.NoCodes,
		"warning":    res.Warning,
		"exposure":   res.Exposure,
		"batch_size": res.BatchSize,
		"message":    res.Message(),
	})
}

func (s *Server) batchAPI(c *gin.Context) {
	records := recordViews(sessionFrom(c).Records())
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

func (s *Server) saveAPI(c *gin.Context) {
	res, err := s.svc.Save(c.Request.Context(), sessionFrom(c))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"saved":       res.Saved,
		"link_errors": res.LinkErrors,
		"message":     res.Message(),
	})
}

func (s *Server) clearAPI(c *gin.Context) {
	n := s.svc.Clear(sessionFrom(c))
	c.JSON(http.StatusOK, gin.H{"discarded": n})
}
