// StaffSync.AI - HR assistant server.
//
// Boot order: env, config, logging, tracing, storage, policy index, mail,
// model client, assistant, inbox watcher, HTTP server. Every dependency is
// constructed here and injected downward; nothing reaches for globals.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/SameedHusayn/staffsync-ai/internal/auth"
	"github.com/SameedHusayn/staffsync-ai/internal/chat"
	"github.com/SameedHusayn/staffsync-ai/internal/config"
	httpapi "github.com/SameedHusayn/staffsync-ai/internal/http"
	"github.com/SameedHusayn/staffsync-ai/internal/inbox"
	"github.com/SameedHusayn/staffsync-ai/internal/llm"
	"github.com/SameedHusayn/staffsync-ai/internal/mailer"
	"github.com/SameedHusayn/staffsync-ai/internal/observability"
	"github.com/SameedHusayn/staffsync-ai/internal/otp"
	"github.com/SameedHusayn/staffsync-ai/internal/repo"
	"github.com/SameedHusayn/staffsync-ai/internal/search"
	"github.com/SameedHusayn/staffsync-ai/internal/session"
	"github.com/SameedHusayn/staffsync-ai/internal/sysutil"
)

const version = "1.0.0"

// gormDirectory adapts the employee store to the slice the authentication
// gate needs: employee id to OTP delivery address.
type gormDirectory struct {
	db *gorm.DB
}

func (d gormDirectory) EmployeeEmail(ctx context.Context, employeeID string) (string, bool, error) {
	emp, err := repo.GetEmployee(ctx, d.db, employeeID)
	if err != nil {
		return "", false, err
	}
	if emp == nil {
		return "", false, nil
	}
	return emp.Email, true, nil
}

// otpSender narrows the mailer to the gate's delivery contract.
type otpSender struct {
	m mailer.Mailer
}

func (s otpSender) SendOTP(ctx context.Context, email, code string) bool {
	return s.m.SendOTP(ctx, email, code)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database failed")
	}
	if err := repo.SeedFromDir(ctx, db, cfg.SeedDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.SeedDir).Msg("seed database failed")
	}
	log.Info().Str("path", cfg.DBPath).Msg("database ready")

	// Policy search index
	idx, err := buildIndex(cfg.PolicyDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.PolicyDir).Msg("build policy index failed")
	}

	// Outbound mail
	m := mailer.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Sender, cfg.SMTP.Password)

	// Model client
	var llmOpts []llm.OpenAIOption
	if cfg.OpenAI.InlineToolCalls {
		llmOpts = append(llmOpts, llm.WithInlineToolCalls())
	}
	client := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, llmOpts...)

	// Authentication gate and assistant
	ledger := otp.NewLedger(otp.WithTTL(cfg.OTPTTL))
	gate := auth.NewGate(gormDirectory{db: db}, ledger, auth.NewPendingCalls(), otpSender{m: m})
	assistant := chat.New(client, gate, db, idx, m,
		chat.WithRepairBudget(cfg.RepairBudget),
		chat.WithSearchThreshold(cfg.Threshold),
	)

	// Inbox watcher for leave approval replies
	if cfg.IMAP.Enabled {
		go inbox.New(cfg.IMAP, db, m).Run(ctx)
	}

	// HTTP server
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, assistant, session.NewStore(), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server stopped")
}

// buildIndex loads every markdown file under dir into the passage index. A
// missing directory yields an empty index rather than a boot failure, so
// the assistant still answers record questions when no policies ship.
func buildIndex(dir string) (search.Index, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		log.Warn().Str("dir", dir).Msg("no policy documents found")
		return search.NewIndexFromDocuments(nil), nil
	}
	sort.Strings(paths)
	log.Info().Int("files", len(paths)).Msg("policy index built")
	return search.NewIndexFromFiles(paths)
}
