package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaocelulas/igreja/internal/db"
	"github.com/gestaocelulas/igreja/internal/tenant"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	repo := tenant.NewRepository(pool)
	service := tenant.NewService(repo, pool)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		if err := runCreate(ctx, service, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar igreja")
		}
	case "list":
		if err := runList(ctx, service); err != nil {
			log.Fatal().Err(err).Msg("falha ao listar igrejas")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "igreja CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  tenant create --name \"Igreja Graça Viva\"")
	fmt.Fprintln(os.Stderr, "  tenant list")
}

func runCreate(ctx context.Context, service *tenant.Service, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	name := fs.String("name", "", "nome da igreja")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return errors.New("name é obrigatório")
	}

	igreja, err := service.Create(ctx, *name)
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(igreja, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runList(ctx context.Context, service *tenant.Service) error {
	igrejas, err := service.List(ctx)
	if err != nil {
		return err
	}

	if len(igrejas) == 0 {
		fmt.Println("nenhuma igreja cadastrada")
		return nil
	}

	encoded, _ := json.MarshalIndent(igrejas, "", "  ")
	fmt.Println(string(encoded))
	return nil
}
