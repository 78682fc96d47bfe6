// Пакет cli — команды операторской утилиты expedientes-ctl:
// миграции схемы, заведение пользователей, импорт книги Excel.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/bigkaa/expedientes/internal/config"
	"github.com/bigkaa/expedientes/internal/database"
)

// NewRootCommand создаёт корневую команду expedientes-ctl.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "expedientes-ctl",
		Short: "Herramienta de operación del sistema de expedientes",
		Long: `Herramienta de operación del sistema de expedientes.

La conexión a PostgreSQL se toma de las variables EX_DB_*.

Ejemplos:
  expedientes-ctl migrate up
  expedientes-ctl user add --email ana@example.com --name "Ana Pérez"
  expedientes-ctl import xlsx datos.xlsx --dry-run`,
		Version:      config.Version,
		SilenceUsage: true,
	}

	root.AddCommand(newMigrateCommand())
	root.AddCommand(newUserCommand())
	root.AddCommand(newImportCommand())
	return root
}

// newLogger — текстовый логгер утилиты в stderr команды.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// connect загружает параметры PostgreSQL и открывает пул.
func connect(ctx context.Context, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}
	return pool, nil
}
