package emerald

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// handleHome serves the blog listing page when a Home view is provided.
func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Repo.ListPosts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(posts, a.currentActor(c)))
}

// handlePostPage serves a single post page with its comments.
func (a *App) handlePostPage(c echo.Context) error {
	post, err := a.Repo.GetPost(c.Param("id"))
	if err != nil {
		if err == ErrNotFound {
			if a.Views.NotFound != nil {
				return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
			}
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	comments, err := a.Repo.ListComments(post.ID)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(post, comments, a.currentActor(c)))
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nAllow: /\nDisallow: /api/\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
	}

	// API clients always get the JSON error shape; everything unexpected is
	// logged and surfaced generically.
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if code >= 500 {
			c.Logger().Errorf("server error: %v", err)
			_ = jsonError(c, code, "operation failed")
			return
		}
		_ = jsonError(c, code, http.StatusText(code))
		return
	}

	if code == http.StatusNotFound && a.Views.NotFound != nil {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		if a.Views.ServerError != nil {
			_ = RenderStatus(c, code, a.Views.ServerError())
			return
		}
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// --- RSS feed ---

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Repo.ListPosts()
	if err != nil {
		return err
	}
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := BuildURL(base, "blog", p.ID)
		summary := p.Content
		if len(summary) > 280 {
			summary = summary[:280] + "…"
		}
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: summary,
			PubDate:     p.CreatedAt.Format(time.RFC1123Z),
			GUID:        postURL,
		})
	}
	feed := rss{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Name + " blog",
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
