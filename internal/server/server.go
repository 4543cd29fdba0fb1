// Package server exposes survey decoding over HTTP
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dyuri/cave3d/internal/binary"
	"github.com/dyuri/cave3d/internal/export"
	"github.com/dyuri/cave3d/internal/geometry"
	"github.com/dyuri/cave3d/internal/input"
	"github.com/dyuri/cave3d/internal/model"
	"github.com/dyuri/cave3d/internal/render"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

// Options configures the server
type Options struct {
	Geometry     geometry.Options
	Charset      encoding.Encoding // Label encoding, nil for UTF-8
	MaxBodyBytes int64
	Logger       logrus.FieldLogger
}

type Server struct {
	opts   Options
	log    logrus.FieldLogger
	router *gin.Engine
}

// New creates a server with its routes registered
func New(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 20
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	s := &Server{opts: opts, log: log, router: gin.New()}
	s.router.Use(gin.Recovery(), s.requestLogger())

	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	s.router.POST("/v1/decode", s.decodeHandler)
	s.router.POST("/v1/plan", s.planHandler)

	return s
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

// decodeHandler decodes the request body and returns the geometry bundle.
// ?format=cbor switches the response encoding.
func (s *Server) decodeHandler(c *gin.Context) {
	bundle, ok := s.decodeBody(c)
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, export.NewDocument(bundle))
	case "cbor":
		var buf bytes.Buffer
		if err := export.WriteCBOR(&buf, bundle); err != nil {
			s.log.WithError(err).Error("encode cbor response")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "cannot encode response",
			})
			return
		}
		c.Data(http.StatusOK, "application/cbor", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "format must be json or cbor",
		})
	}
}

// planHandler decodes the request body and returns a plan-view PNG
func (s *Server) planHandler(c *gin.Context) {
	bundle, ok := s.decodeBody(c)
	if !ok {
		return
	}

	opts := render.DefaultPlanOptions()
	opts.Splays = c.Query("splays") == "true"
	opts.Surface = c.Query("surface") == "true"
	opts.Stations = c.Query("stations") == "true"

	var buf bytes.Buffer
	if err := render.WritePlan(&buf, bundle, opts); err != nil {
		if errors.Is(err, render.ErrNothingToDraw) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": err.Error(),
			})
			return
		}
		s.log.WithError(err).Error("render plan")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "cannot render plan",
		})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// decodeBody reads, inflates and decodes the request body. On failure it
// writes the error response and returns false.
func (s *Server) decodeBody(c *gin.Context) (*model.GeometryBundle, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("body exceeds %d bytes", s.opts.MaxBodyBytes),
			})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "cannot read body",
		})
		return nil, false
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "empty body",
		})
		return nil, false
	}

	data, _, err := input.Inflate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return nil, false
	}

	survey, err := binary.NewReader(data,
		binary.WithCharset(s.opts.Charset),
		binary.WithLogger(s.log),
	).Parse()
	if err != nil {
		resp := gin.H{"error": err.Error()}
		var derr *binary.DecodeError
		if errors.As(err, &derr) {
			resp["offset"] = derr.Offset
			resp["opcode"] = derr.Opcode
		}
		c.JSON(http.StatusBadRequest, resp)
		return nil, false
	}

	bundle, err := geometry.Build(survey, s.opts.Geometry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "cannot build geometry",
		})
		return nil, false
	}
	return bundle, true
}
