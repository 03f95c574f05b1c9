// Package server serves MP4 initialization data built from a configuration over HTTP.
package server

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/ugparu/mp4mux/format/mp4"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
	"github.com/ugparu/mp4mux/internal/config"
	"github.com/ugparu/mp4mux/utils/logger"
	"github.com/ugparu/mp4mux/writer/sink"
)

const contentType = "video/mp4"

type Server struct {
	cfg       *config.Config
	server    *http.Server
	router    *gin.Engine
	startOnce *sync.Once
	closeOnce *sync.Once
	deadChan  chan any
}

// New creates a server for cfg listening on cfg.Server.Addr.
func New(cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	router.Use(gin.Recovery())
	pprof.Register(router)

	s := &Server{
		cfg:       cfg,
		router:    router,
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
		deadChan:  make(chan any),
	}
	router.GET("/movie/init.mp4", s.GetInit)
	router.GET("/movie/moov.mp4", s.GetMovie)

	s.server = &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}
	logger.Debug(s, "Initialized and set up")
	return s
}

// Handler returns the router, for use without a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Close is called. A second call logs an error and returns.
func (s *Server) Start() {
	err := errors.New("HTTP server has been started already")
	s.startOnce.Do(func() {
		defer close(s.deadChan)

		logger.Infof(s, "Starting listening on %s", s.server.Addr)
		if err = s.server.ListenAndServe(); err != nil {
			logger.Warning(s, err.Error())
			err = nil
		}
	})
	if err != nil {
		logger.Error(s, err.Error())
	}
}

func (s *Server) Close() {
	s.closeOnce.Do(func() {
		logger.Warning(s, "Stopping and closing")
		if err := s.server.Close(); err != nil {
			logger.Warning(s, err.Error())
		}
	})
}

func (s *Server) Dead() <-chan any {
	return s.deadChan
}

func (s *Server) String() string {
	return "MP4_SERVER"
}

// GetInit streams `ftyp`, the configured padding and `moov`.
func (s *Server) GetInit(c *gin.Context) {
	s.stream(c, func(ctx *mp4.Context, movie *mp4io.Movie) (func() error, error) {
		seg, err := mp4.NewInitSegment(ctx, s.cfg.BuildFileType(), movie, s.cfg.Writer.Padding)
		if err != nil {
			return nil, err
		}
		return seg.WriteAndFlush, nil
	})
}

// GetMovie streams the `moov` box alone.
func (s *Server) GetMovie(c *gin.Context) {
	s.stream(c, func(ctx *mp4.Context, movie *mp4io.Movie) (func() error, error) {
		moov, err := mp4.NewMovieWriter(ctx, movie)
		if err != nil {
			return nil, err
		}
		return moov.WriteAndFlush, nil
	})
}

// stream builds a writer tree bound to the response and runs it. Trees are single-use,
// so every request builds its own.
func (s *Server) stream(c *gin.Context, build func(*mp4.Context, *mp4io.Movie) (func() error, error)) {
	tracker := mp4.NewPositionTracker(sink.NewWriter(c.Writer))
	movie, ctx := s.cfg.Build(tracker)

	writeAndFlush, err := build(ctx, movie)
	if err != nil {
		logger.Errorf(s, "Failed to build writers: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if err = writeAndFlush(); err != nil {
		logger.Errorf(s, "Failed to stream %s after %d bytes: %v", c.Request.URL.Path, tracker.Position(), err)
		return
	}
	logger.Debugf(s, "Served %s: %d bytes in %d chunks", c.Request.URL.Path, tracker.Position(), tracker.Chunks())
}
