package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/lingoquest/lingoquest/internal/content"
	"github.com/lingoquest/lingoquest/internal/engine"
	"github.com/lingoquest/lingoquest/internal/games"
	"github.com/lingoquest/lingoquest/internal/httpapi"
	"github.com/lingoquest/lingoquest/internal/judge"
	"github.com/lingoquest/lingoquest/internal/llm"
	"github.com/lingoquest/lingoquest/internal/rewards"
	"github.com/lingoquest/lingoquest/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for the chat layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if e.cfg.ContentFile != "" {
			seed, err := content.LoadFile(e.cfg.ContentFile)
			if err != nil {
				return err
			}
			sum, err := content.Apply(ctx, e.st, seed)
			if err != nil {
				return err
			}
			e.log.Info("content applied", "file", e.cfg.ContentFile, "summary", sum.String())
		}

		eng, err := buildEngine(ctx, e)
		if err != nil {
			return err
		}

		sched := scheduler.New(eng, e.cfg.BadgeSweepInterval, e.cfg.Timezone, e.log.With("component", "scheduler"))
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		if e.cfg.LogMode == "prod" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := &http.Server{
			Addr:              e.cfg.HTTPAddr,
			Handler:           httpapi.NewRouter(httpapi.NewHandler(eng, e.log), e.log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			e.log.Info("listening", "addr", e.cfg.HTTPAddr)
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		e.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// buildEngine wires the engine. Without an LLM provider the coherence judge
// is left out and open-ended answers use keyword coverage.
func buildEngine(ctx context.Context, e *env) (*engine.Engine, error) {
	provider, err := llm.NewProvider(ctx, e.cfg.LLM, e.st.EventRepo(), e.log.With("component", "llm"))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	var j games.Judge
	if provider != nil {
		cfg := judge.DefaultConfig()
		cfg.Timeout = e.cfg.JudgeTimeout
		j = judge.New(provider, cfg)
		e.log.Info("coherence judge enabled", "provider", e.cfg.LLM.Provider, "model", provider.ModelID())
	} else {
		e.log.Info("coherence judge disabled; open-ended answers use keyword coverage")
	}

	return engine.New(e.st, engine.Config{
		HistoryCooldown: e.cfg.HistoryCooldown,
		Location:        e.cfg.Timezone,
		Rewards: rewards.Config{
			SpinCooldown:    e.cfg.SpinCooldown,
			GachaDailyLimit: e.cfg.GachaDailyLimit,
		},
	}, engine.Options{
		Judge:  j,
		Logger: e.log.With("component", "engine"),
	}), nil
}
