package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"designstudio/internal/adapter/repo"
	"designstudio/internal/infra"
	"designstudio/internal/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	var (
		userFlag  string
		grantFlag int
		setFlag   int
	)
	flag.StringVar(&userFlag, "user", "", "user ID whose balance to change")
	flag.IntVar(&grantFlag, "grant", 0, "credits to add to the current balance")
	flag.IntVar(&setFlag, "set", -1, "overwrite the balance with this value")
	flag.Parse()

	op, err := parseOp(userFlag, grantFlag, setFlag)
	if err != nil {
		exitWithError(err)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}
	cfg := &infra.Config{DatabaseURL: dbURL}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store creditStore
	if cfg.UsesSQLite() {
		db, err := sqlite.Open(cfg.SQLitePath())
		if err != nil {
			exitWithError(err)
		}
		defer db.Close()
		store = db.Credits()
	} else {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			exitWithError(fmt.Errorf("failed to connect database: %w", err))
		}
		defer pool.Close()
		logger := infra.NewLogger("cli").With().Str("cmd", "credits").Logger()
		store = repo.NewCreditRepository(infra.NewSQLRunner(pool, logger))
	}

	balance, err := op.apply(ctx, store)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update credits: %w", err))
	}
	fmt.Printf("User %s balance=%d\n", op.userID, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
