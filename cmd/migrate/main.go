// Утилита миграций схемы корзин: up, down и status поверх
// встроенных SQL-файлов из internal/storage/postgres.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/cartsvc/internal/storage/postgres"
)

const connectTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run разбирает аргументы и выполняет команду. Вынесен из main,
// чтобы тесты могли проверять поведение без подпроцессов.
func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)

	direction := fs.String("direction", "up", "up|down|status")
	steps := fs.Int("steps", 0, "сколько миграций применить или откатить (0 = все для up, 1 для down)")
	dsn := fs.String("dsn", "", "PostgreSQL DSN (иначе берётся CARTSVC_POSTGRES_DSN)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*dsn)
	if target == "" {
		target = strings.TrimSpace(os.Getenv("CARTSVC_POSTGRES_DSN"))
	}
	if target == "" {
		return errors.New("нужен -dsn или CARTSVC_POSTGRES_DSN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, target)
	if err != nil {
		return fmt.Errorf("открытие postgres: %w", err)
	}
	defer store.Close()

	switch strings.ToLower(strings.TrimSpace(*direction)) {
	case "up":
		if err := store.MigrateUp(ctx, *steps); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return printStatus(ctx, store, out, "migrate up ok")
	case "down":
		n := *steps
		if n <= 0 {
			n = 1
		}
		if err := store.MigrateDown(ctx, n); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return printStatus(ctx, store, out, "migrate down ok")
	case "status":
		return printStatus(ctx, store, out, "migration status")
	default:
		return fmt.Errorf("неизвестное направление %q, ожидали up|down|status", *direction)
	}
}

func printStatus(ctx context.Context, store *postgres.Store, out io.Writer, prefix string) error {
	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("статус миграций: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%s: version=%d applied=%d\n", prefix, version, count)
	return nil
}
