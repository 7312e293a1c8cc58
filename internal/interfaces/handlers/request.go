package handlers

import (
	"io"
	"mime/multipart"
	"strings"
	"time"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/pkg/response"
	"procurement-portal/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// The helpers below write the 4xx response themselves and report ok=false;
// the handler then returns nil.

// Bind parses a JSON or form body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst interface{}) bool {
	if err := c.BodyParser(dst); err != nil {
		_ = response.Error(c, "Malformed request body", fiber.StatusBadRequest, nil)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		_ = response.ValidationFailed(c, validation.Messages(err))
		return false
	}
	return true
}

// ParamUUID reads a path parameter as a uuid.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = response.Error(c, "Invalid "+name, fiber.StatusBadRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

// QueryUUID parses an optional uuid query parameter. Empty yields nil.
func QueryUUID(c *fiber.Ctx, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		_ = response.Error(c, "Invalid "+name, fiber.StatusBadRequest, nil)
		return nil, false
	}
	return &id, true
}

// ParseTime accepts RFC 3339 timestamps and plain dates.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Uploads reads every file under field from a multipart form. A request that is not
// multipart has no uploads. Files over maxBytes are rejected with 413.
func Uploads(c *fiber.Ctx, field string, maxBytes int64) ([]documents.Upload, bool) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, true
	}
	form, err := c.MultipartForm()
	if err != nil {
		_ = response.Error(c, "Malformed multipart form", fiber.StatusBadRequest, nil)
		return nil, false
	}
	headers := form.File[field]
	out := make([]documents.Upload, 0, len(headers))
	for _, fh := range headers {
		if maxBytes > 0 && fh.Size > maxBytes {
			_ = response.Error(c, "File "+fh.Filename+" is too large", fiber.StatusRequestEntityTooLarge, nil)
			return nil, false
		}
		data, err := readFile(fh)
		if err != nil {
			log.Error().Err(err).Str("file", fh.Filename).Msg("upload read failed")
			_ = response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
			return nil, false
		}
		ct := fh.Header.Get(fiber.HeaderContentType)
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		out = append(out, documents.Upload{Name: fh.Filename, ContentType: ct, Data: data})
	}
	return out, true
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// SendFile writes a stored document as an attachment download.
func SendFile(c *fiber.Ctx, name, contentType string, data []byte) error {
	c.Attachment(name)
	if contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	return c.Send(data)
}
