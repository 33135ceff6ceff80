package serve

import (
	"context"
	"html/template"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/options"
	"github.com/worklift/worklift/pkg/log"
	"github.com/worklift/worklift/util"
)

const shutdownTimeout = 10 * time.Second

// Run serves the output directory until the context is canceled.
func Run(ctx context.Context, opts *options.WorkliftOptions, host string, port int) error {
	dir, err := util.ExpandPath(opts.OutputDir)
	if err != nil {
		return err
	}

	if !util.IsDir(dir) {
		return errors.Errorf("output directory %s does not exist, run an export first", dir)
	}

	server := NewServer(opts.Logger, dir)

	ln, err := server.Listen(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}

	return server.Run(ctx, ln)
}

// Server lists and serves export artifacts over HTTP.
type Server struct {
	echo   *echo.Echo
	logger log.Logger
	dir    string
}

// NewServer returns a new Server instance serving the given directory.
func NewServer(logger log.Logger, dir string) *Server {
	server := &Server{
		logger: logger.WithField(log.FieldKeyPrefix, "serve"),
		dir:    dir,
	}

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.Use(server.recoverMiddleware, server.logMiddleware)
	router.GET("/", server.index)
	router.Static("/files", dir)

	server.echo = router

	return server
}

// Listen binds the address. Port zero picks a free one.
func (server *Server) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.New(err)
	}

	server.logger.Infof("Report server is listening on http://%s", ln.Addr())

	return ln, nil
}

// Run starts the webserver and shuts it down gracefully once the context is
// canceled.
func (server *Server) Run(ctx context.Context, ln net.Listener) error {
	server.logger.Infof("Serving reports from %s.", server.dir)

	errGroup, ctx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		<-ctx.Done()
		server.logger.Infof("Shutting down report server.")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.New(server.echo.Shutdown(shutdownCtx))
	})

	if err := server.echo.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Errorf("report server failed: %w", err)
	}

	return errGroup.Wait()
}

func (server *Server) recoverMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) (handlerErr error) {
		defer errors.Recover(func(err error) {
			server.logger.Error(err.Error())
			server.logger.Trace(errors.ErrorStack(err))

			handlerErr = err
		})

		return next(ctx)
	}
}

func (server *Server) logMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		startedAt := time.Now()
		err := next(ctx)

		server.logger.Debugf("%s %s %d in %s.",
			ctx.Request().Method, ctx.Request().RequestURI, ctx.Response().Status, time.Since(startedAt).Round(time.Millisecond))

		return err
	}
}

// artifact is one served file in the index listing.
type artifact struct {
	Name     string
	Size     string
	Modified time.Time
}

func (server *Server) index(ctx echo.Context) error {
	dirEntries, err := os.ReadDir(server.dir)
	if err != nil {
		return errors.New(err)
	}

	artifacts := make([]artifact, 0, len(dirEntries))

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}

		switch filepath.Ext(dirEntry.Name()) {
		case ".html", ".csv":
		default:
			continue
		}

		info, err := dirEntry.Info()
		if err != nil {
			return errors.New(err)
		}

		artifacts = append(artifacts, artifact{
			Name:     dirEntry.Name(),
			Size:     humanBytes(info.Size()),
			Modified: info.ModTime(),
		})
	}

	// Newest export first.
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Modified.After(artifacts[j].Modified) })

	return indexTemplate.Execute(ctx.Response(), map[string]any{
		"Dir":       server.dir,
		"Artifacts": artifacts,
	})
}

func humanBytes(size int64) string {
	const unit = 1024

	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return strconv.FormatFloat(float64(size)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Worklift Reports</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem auto; max-width: 48rem; padding: 0 1rem; color: #172b4d; }
  h1 { border-bottom: 2px solid #0052cc; padding-bottom: .3rem; }
  .meta { color: #6b778c; font-size: .9rem; }
  table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
  th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #dfe1e6; }
  a { color: #0052cc; text-decoration: none; }
</style>
</head>
<body>
<h1>Worklift Reports</h1>
<p class="meta">{{.Dir}}</p>
{{if .Artifacts}}<table>
<tr><th>File</th><th>Size</th><th>Modified</th></tr>
{{range .Artifacts}}<tr>
<td><a href="/files/{{.Name}}">{{.Name}}</a></td><td>{{.Size}}</td><td>{{.Modified.Format "2006-01-02 15:04:05"}}</td>
</tr>
{{end}}</table>
{{else}}<p>No reports yet. Run <code>worklift export</code> first.</p>
{{end}}
</body>
</html>
`))
