package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelfsync/internal/shelfd"
	synchub "shelfsync/internal/sync"
	"shelfsync/pkg/database"
	"shelfsync/pkg/utils"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	ephemeral := flag.Bool("ephemeral", false, "in-memory database, lost on exit")
	flag.Parse()

	var db *sql.DB
	if *ephemeral {
		var err error
		db, err = database.OpenMemory()
		if err != nil {
			log.Fatalf("open memory db: %v", err)
		}
	} else {
		db = database.MustOpen(database.DefaultConfig())
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	hub := synchub.NewHub()
	router := shelfd.NewRouter(db, utils.LoadAuthConfig(), hub)

	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[shelfd] listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("[shelfd] shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("[shelfd] server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[shelfd] shutdown error: %v", err)
	}
	log.Println("[shelfd] stopped")
}
