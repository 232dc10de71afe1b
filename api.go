package emerald

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const maxUploadSize = 10 << 20 // 10MB

const streamKeepalive = 25 * time.Second

type createPostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
	AudioURL string `json:"audioUrl"`
}

type createCommentRequest struct {
	Text string `json:"text"`
}

type bookingRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]any{"success": false, "error": msg})
}

// writeDomainError maps the error taxonomy to a response at the boundary
// nearest the user action. Unexpected errors bubble up to the error handler.
func writeDomainError(c echo.Context, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return jsonError(c, http.StatusBadRequest, ve.Error())
	}
	var ae *AuthorizationError
	if errors.As(err, &ae) {
		return jsonError(c, http.StatusForbidden, ae.Error())
	}
	if errors.Is(err, ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "not found")
	}
	return err
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Repo.ListPosts()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Repo.GetPost(c.Param("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleCreatePost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	id, err := a.Repo.CreatePost(a.currentActor(c), req.Title, req.Content, req.ImageURL, req.AudioURL)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "id": id})
}

func (a *App) handleDeletePost(c echo.Context) error {
	if err := a.Repo.DeletePost(a.currentActor(c), c.Param("id")); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleListComments(c echo.Context) error {
	comments, err := a.Repo.ListComments(c.Param("id"))
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return c.JSON(http.StatusOK, comments)
}

func (a *App) handleCreateComment(c echo.Context) error {
	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	actor := a.currentActor(c)
	cm, err := a.Repo.CreateComment(c.Param("id"), req.Text, actor.UserID, actor.Name)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, cm)
}

// handleCommentStream serves the live comment channel for one post as
// server-sent events. The broker subscription is released when the client
// disconnects.
func (a *App) handleCommentStream(c echo.Context) error {
	sub := a.Repo.SubscribeComments(c.Param("id"))
	defer sub.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cm, ok := <-sub.C:
			if !ok {
				return nil
			}
			data, err := json.Marshal(cm)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: comment\ndata: %s\n\n", data)
			w.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			w.Flush()
		}
	}
}

func (a *App) handleBookSession(c echo.Context) error {
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	id, err := a.Bookings.Submit(req.Name, req.Email, req.Phone, req.Message)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return jsonError(c, http.StatusBadRequest, "Missing required fields")
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "bookingId": id})
}

func (a *App) handleListBookings(c echo.Context) error {
	bookings, err := a.Bookings.List(a.currentActor(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return c.JSON(http.StatusOK, bookings)
}

// handleUploadMedia accepts a single multipart "file" field, uploads it
// through the gateway, and returns the public URL. Image and audio uploads
// on the same submission arrive as separate requests and fail independently.
func (a *App) handleUploadMedia(c echo.Context) error {
	actor := a.currentActor(c)
	if actor.Role != RoleAdmin {
		return c.JSON(http.StatusForbidden, map[string]any{"success": false, "message": "not authorized to upload media"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "No file provided"})
	}
	if file.Size > maxUploadSize {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "File too large (max 10MB)"})
	}
	class, ok := mimeClassOf(file.Header.Get("Content-Type"), file.Filename)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "message": "Unsupported file type"})
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	upload, err := a.Gateway.Upload(file.Filename, class, src)
	if err != nil {
		c.Logger().Errorf("media upload: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "message": "Upload failed"})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "url": upload.URL})
}

// mimeClassOf picks the attachment kind from the declared content type,
// falling back to the filename extension.
func mimeClassOf(contentType, filename string) (MimeClass, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MimeImage, true
	case strings.HasPrefix(contentType, "audio/"):
		return MimeAudio, true
	}
	switch strings.ToLower(strings.TrimPrefix(ext(filename), ".")) {
	case "png", "jpg", "jpeg", "gif":
		return MimeImage, true
	case "mp3", "wav", "ogg", "m4a":
		return MimeAudio, true
	}
	return "", false
}

func ext(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
