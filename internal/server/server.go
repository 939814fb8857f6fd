// Package server exposes an Engine over HTTP: tokenizing, parsing,
// evaluation, bytecode compilation and execution, plus interactive
// sessions that keep their globals between requests.
package server

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/oarkflow/log"

	"github.com/xirelogy/go-mumei"
	"github.com/xirelogy/go-mumei/internal/compiler"
	"github.com/xirelogy/go-mumei/internal/config"
	"github.com/xirelogy/go-mumei/internal/lexer"
	"github.com/xirelogy/go-mumei/internal/parser"
)

type Server struct {
	app      *fiber.App
	engine   *mumei.Engine
	cfg      config.ServerConfig
	logger   *log.Logger
	sessions *sessions
	started  time.Time
}

type SourceRequest struct {
	Source string `json:"source"`
}

type TokenResponse struct {
	Type    string `json:"type"`
	Literal string `json:"literal"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

type EvalResponse struct {
	Result string `json:"result"`
	Output string `json:"output"`
}

type CompileResponse struct {
	Handle uint64 `json:"handle"`
}

type Option func(*serverOptions)

type serverOptions struct {
	accessLog io.Writer
}

// WithAccessLog sends the request log to w instead of stdout.
func WithAccessLog(w io.Writer) Option {
	return func(o *serverOptions) { o.accessLog = w }
}

func New(engine *mumei.Engine, opts ...Option) *Server {
	o := serverOptions{accessLog: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := engine.Config().Server
	app := fiber.New(fiber.Config{
		AppName:               "mumei",
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	s := &Server{
		app:      app,
		engine:   engine,
		cfg:      cfg,
		logger:   engine.Logger(),
		sessions: newSessions(cfg.MaxSessions),
		started:  time.Now(),
	}
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: o.accessLog}))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/api/health", s.healthHandler)
	s.app.Get("/api/stats", s.statsHandler)

	s.app.Post("/api/tokenize", s.tokenizeHandler)
	s.app.Post("/api/ast", s.astHandler)
	s.app.Post("/api/evaluate", s.evaluateHandler)

	s.app.Post("/api/bytecode", s.compileHandler)
	s.app.Get("/api/bytecode/:handle", s.disassembleHandler)
	s.app.Post("/api/bytecode/:handle/execute", s.executeHandler)
	s.app.Post("/api/bytecode/:handle/fast", s.executeFastHandler)
	s.app.Delete("/api/bytecode/:handle", s.releaseHandler)

	s.app.Post("/api/sessions", s.createSessionHandler)
	s.app.Get("/api/sessions/:id", s.sessionNamesHandler)
	s.app.Post("/api/sessions/:id/eval", s.sessionEvalHandler)
	s.app.Delete("/api/sessions/:id", s.closeSessionHandler)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on the configured address until ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Str("engine", s.engine.ID()).Msg("server listening")
		errCh <- s.app.Listen(s.cfg.Addr)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down server")
		return s.app.Shutdown()
	}
}

func (s *Server) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"engine": s.engine.ID(),
		"uptime": time.Since(s.started).String(),
	})
}

func (s *Server) statsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"cache":    s.engine.CacheStats(),
		"jit":      s.engine.JITStats(),
		"sessions": s.sessions.len(),
	})
}

func sourceOf(c *fiber.Ctx) (string, error) {
	var req SourceRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Source) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "source cannot be empty")
	}
	return req.Source, nil
}

func (s *Server) tokenizeHandler(c *fiber.Ctx) error {
	src, err := sourceOf(c)
	if err != nil {
		return err
	}
	toks, err := s.engine.Tokenize(src)
	if err != nil {
		return failure(c, err)
	}
	out := make([]TokenResponse, len(toks))
	for i, t := range toks {
		out[i] = TokenResponse{Type: string(t.Type), Literal: t.Literal, Line: t.Pos.Line, Column: t.Pos.Column}
	}
	return c.JSON(out)
}

func (s *Server) astHandler(c *fiber.Ctx) error {
	src, err := sourceOf(c)
	if err != nil {
		return err
	}
	text, err := s.engine.FormatAST(src)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(fiber.Map{"ast": text})
}

func (s *Server) evaluateHandler(c *fiber.Ctx) error {
	src, err := sourceOf(c)
	if err != nil {
		return err
	}
	var out strings.Builder
	result, err := s.engine.EvaluateWithOutput(src, &out)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(EvalResponse{Result: result, Output: out.String()})
}

func (s *Server) compileHandler(c *fiber.Ctx) error {
	src, err := sourceOf(c)
	if err != nil {
		return err
	}
	h, err := s.engine.CompileToBytecode(src)
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(CompileResponse{Handle: uint64(h)})
}

func handleParam(c *fiber.Ctx) (mumei.Handle, error) {
	h, err := strconv.ParseUint(c.Params("handle"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid handle")
	}
	return mumei.Handle(h), nil
}

func (s *Server) disassembleHandler(c *fiber.Ctx) error {
	h, err := handleParam(c)
	if err != nil {
		return err
	}
	listing, err := s.engine.Disassemble(h)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(fiber.Map{"handle": uint64(h), "listing": listing})
}

func (s *Server) executeHandler(c *fiber.Ctx) error {
	h, err := handleParam(c)
	if err != nil {
		return err
	}
	var out strings.Builder
	result, err := s.engine.ExecuteBytecodeWithOutput(h, &out)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(EvalResponse{Result: result, Output: out.String()})
}

func (s *Server) executeFastHandler(c *fiber.Ctx) error {
	h, err := handleParam(c)
	if err != nil {
		return err
	}
	start := time.Now()
	result, err := s.engine.ExecuteBytecodeFast(h)
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(fiber.Map{"result": result, "executionTime": time.Since(start).Seconds()})
}

func (s *Server) releaseHandler(c *fiber.Ctx) error {
	h, err := handleParam(c)
	if err != nil {
		return err
	}
	if err := s.engine.ReleaseBytecode(h); err != nil {
		return failure(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) createSessionHandler(c *fiber.Ctx) error {
	id, err := s.sessions.open(s.engine)
	if err != nil {
		return failure(c, err)
	}
	s.logger.Debug().Str("session", id).Msg("session opened")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) sessionNamesHandler(c *fiber.Ctx) error {
	sess, err := s.sessions.get(c.Params("id"))
	if err != nil {
		return failure(c, err)
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "names": sess.names()})
}

func (s *Server) sessionEvalHandler(c *fiber.Ctx) error {
	sess, err := s.sessions.get(c.Params("id"))
	if err != nil {
		return failure(c, err)
	}
	src, err := sourceOf(c)
	if err != nil {
		return err
	}
	result, output, err := sess.eval(src)
	if err != nil {
		return c.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error(), "output": output})
	}
	return c.JSON(EvalResponse{Result: result, Output: output})
}

func (s *Server) closeSessionHandler(c *fiber.Ctx) error {
	if err := s.sessions.close(c.Params("id")); err != nil {
		return failure(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func failure(c *fiber.Ctx, err error) error {
	return c.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error()})
}

// statusOf maps engine errors to HTTP status codes: source problems are
// the client's, failures while running are unprocessable.
func statusOf(err error) int {
	var (
		lexErr     *lexer.Error
		parseErr   *parser.Error
		compileErr *compiler.Error
	)
	switch {
	case errors.Is(err, mumei.ErrUnknownHandle), errors.Is(err, errUnknownSession):
		return fiber.StatusNotFound
	case errors.Is(err, errTooManySessions):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &lexErr), errors.As(err, &parseErr), errors.As(err, &compileErr):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusUnprocessableEntity
	}
}
