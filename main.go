package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GrainArc/DropMap/config"
	"github.com/GrainArc/DropMap/models"
	"github.com/GrainArc/DropMap/routers"
	"github.com/GrainArc/DropMap/services"
	"github.com/GrainArc/DropMap/views"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "dropmap",
		Short:        "Lost & found map: submit and browse geotagged item reports",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.xml", "path to config.xml")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the found_items table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := services.NewItemGateway(models.Opener(cfg)).EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			log.Println("Database initialized successfully.")
			return nil
		},
	})
	return cmd
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gateway := services.NewItemGateway(models.Opener(cfg))
	// 数据库不可用时继续启动，后续请求会重连
	if err := gateway.EnsureSchema(ctx); err != nil {
		log.Printf("Error initializing database: %v", err)
	} else {
		log.Println("Database initialized successfully.")
	}

	items := services.NewItemService(gateway, services.NewItemCache(services.SearchTTL))
	page := views.NewPageController(items, services.NewSessionStore(cfg.SessionTTL))

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	routers.DropMapRouters(r, page)

	srv := &http.Server{
		Addr:    cfg.MainRouter,
		Handler: r,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.MainRouter)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
