// Package httpapi exposes the pipeline over HTTP: status, model
// topology, one-shot inference and the websocket link.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang/glog"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/robotalks/qnn.go/pkg/framework"
	"github.com/robotalks/qnn.go/pkg/link"
	"github.com/robotalks/qnn.go/pkg/pipeline"
	"github.com/robotalks/qnn.go/pkg/tensor"
	"github.com/robotalks/qnn.go/pkg/transport/websocket"
)

// LinkPath is where the websocket link is mounted.
const LinkPath = "/v1/link"

// Server serves the HTTP API.
type Server struct {
	Addr    string
	Handler *link.Handler

	echo *echo.Echo
	mux  *http.ServeMux
}

// New creates a Server. The websocket link shares h with other
// transports, the pipeline rejects concurrent requests.
func New(addr string, h *link.Handler) *Server {
	s := &Server{Addr: addr, Handler: h, echo: echo.New(), mux: http.NewServeMux()}
	s.echo.Use(middleware.Recover())
	if glog.V(2) {
		s.echo.Use(middleware.RequestLogger())
	}
	s.Register(s.echo)
	s.mux.Handle(LinkPath, websocket.Handler(s.serveLink))
	s.mux.Handle("/", s.echo)
	return s
}

// Register registers the routes.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/status", s.handleStatus)
	e.GET("/v1/model", s.handleModel)
	e.POST("/v1/infer", s.handleInfer)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "http " + s.Addr
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	glog.Infof("serving HTTP on %s", ln.Addr())
	err = framework.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}, func() error {
		return srv.Serve(ln)
	})
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) serveLink(rw *websocket.ReadWriter) {
	glog.Infof("websocket link connected")
	err := link.NewPacketServer(rw, s.Handler).Run(context.Background())
	glog.Infof("websocket link disconnected: %v", err)
}

func (s *Server) pipeline() *pipeline.Pipeline {
	return s.Handler.Pipeline
}

func (s *Server) handleStatus(c *echo.Context) error {
	p := s.pipeline()
	return c.JSON(http.StatusOK, StatusResponse{
		State:     p.State().String(),
		Stats:     p.Stats(),
		Signaling: s.Handler.Signaling.String(),
		Topology:  topologyOf(p),
	})
}

func (s *Server) handleModel(c *echo.Context) error {
	p := s.pipeline()
	m := p.Model()
	resp := ModelResponse{Topology: topologyOf(p), NumParams: m.NumParams()}
	for _, l := range m.Layers() {
		resp.Layers = append(resp.Layers, LayerInfo{
			Name:       l.Name,
			InDim:      l.InDim,
			OutDim:     l.OutDim,
			Activation: l.Activation.String(),
			Shift:      l.Shift,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleInfer(c *echo.Context) error {
	req, err := decodeJSON[InferRequest](c.Request().Body)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := make(tensor.Vec8, len(req.Input))
	for i, v := range req.Input {
		if v < -128 || v > 127 {
			return writeError(c, http.StatusBadRequest, errInputRange(i, v))
		}
		input[i] = int8(v)
	}
	output, err := s.pipeline().Infer(input)
	if err != nil {
		var shapeErr *tensor.ShapeError
		switch {
		case errors.Is(err, pipeline.ErrBusy):
			return writeError(c, http.StatusConflict, err)
		case errors.As(err, &shapeErr):
			return writeError(c, http.StatusBadRequest, err)
		}
		return writeError(c, http.StatusInternalServerError, err)
	}
	resp := InferResponse{Output: make([]int, len(output)), Class: output.ArgMax()}
	for i, v := range output {
		resp.Output[i] = int(v)
	}
	return c.JSON(http.StatusOK, resp)
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func writeError(c *echo.Context, status int, err error) error {
	return c.JSON(status, ErrorResponse{Error: err.Error()})
}
