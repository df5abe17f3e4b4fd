package main

import (
	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/image-module/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применение миграций БД",
	Long:  "Создаёт таблицу images, если её ещё нет. Повторный запуск безопасен.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return database.Migrate(cfg, logger)
	},
}
