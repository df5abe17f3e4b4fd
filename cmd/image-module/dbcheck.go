package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/image-module/internal/database"
)

// dbcheckTimeout — общий таймаут диагностики.
const dbcheckTimeout = 10 * time.Second

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Диагностика подключения к PostgreSQL",
	Long: `Проверяет подключение к PostgreSQL с текущими параметрами IM_DB_*:
  1. Устанавливает соединение
  2. Выводит версию сервера
  3. Проверяет наличие таблицы images и количество записей`,
	RunE: runDBCheck,
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), dbcheckTimeout)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Подключение к %s:%d/%s (user=%s, sslmode=%s)...\n",
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBSSLMode)

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(out, "✗ Подключение не установлено")
		return err
	}
	defer pool.Close()
	fmt.Fprintln(out, "✓ Подключение установлено")

	diag, err := database.Diagnose(ctx, pool)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  Версия PostgreSQL: %s\n", diag.ServerVersion)
	if !diag.TableExists {
		fmt.Fprintln(out, "✗ Таблица images не найдена (выполните: image-module migrate)")
		return nil
	}
	fmt.Fprintf(out, "✓ Таблица images найдена, записей: %d\n", diag.ImageCount)
	return nil
}
