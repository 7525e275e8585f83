package api

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/casaview/casa/internal/domain"
)

// UploadClip uploads a new clip as a multipart request. Progress events
// are sent to the progress channel, if one is given; sends never block,
// so an abandoned subscriber cannot stall the upload. The channel is
// closed when the upload settles either way.
//
// Validation failures surface before any network call.
func (c *Client) UploadClip(ctx context.Context, fields domain.CreateClipFields, file io.Reader, fileSize int64, progress chan<- domain.UploadProgress) (domain.Clip, error) {
	if fields.Title == "" {
		if progress != nil {
			close(progress)
		}
		return domain.Clip{}, &domain.ValidationError{Field: "title"}
	}
	if file == nil {
		if progress != nil {
			close(progress)
		}
		return domain.Clip{}, &domain.ValidationError{Field: "file"}
	}
	name := fields.FileName
	if name == "" {
		name = "clip.mp4"
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		err := writeClipForm(mw, fields, &progressReader{
			r:     file,
			total: fileSize,
			ch:    progress,
		}, name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()
	// The writer goroutine owns sends on the progress channel; closing it
	// before the writer has stopped would race an in-flight send.
	defer func() {
		<-writerDone
		if progress != nil {
			close(progress)
		}
	}()

	body, err := c.doRequest(ctx, http.MethodPost, "/v1/clips", nil, pr, mw.FormDataContentType())
	if err != nil {
		c.logger.Error("clip upload failed", "error", err, "title", fields.Title)
		return domain.Clip{}, err
	}

	dto, err := decode[clipDTO](c, body)
	if err != nil {
		return domain.Clip{}, err
	}

	clip := mapClip(dto)
	c.logger.Info("clip uploaded", "id", clip.ID, "title", clip.Title)
	return clip, nil
}

func writeClipForm(mw *multipart.Writer, fields domain.CreateClipFields, file io.Reader, name string) error {
	if err := mw.WriteField("title", fields.Title); err != nil {
		return err
	}
	if fields.Description != "" {
		if err := mw.WriteField("description", fields.Description); err != nil {
			return err
		}
	}
	if fields.ProjectID != "" {
		if err := mw.WriteField("projectId", fields.ProjectID); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// progressReader counts bytes read from the underlying file and reports
// them on the subscriber channel without blocking.
type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	ch    chan<- domain.UploadProgress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.ch != nil {
			select {
			case p.ch <- domain.UploadProgress{Sent: p.sent, Total: p.total}:
			default:
				// Subscriber not keeping up; drop the event
			}
		}
	}
	return n, err
}
