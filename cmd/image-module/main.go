// Точка входа Image Module — сервис приёма изображений с камер ESP32-CAM.
// Команды:
//   - serve — применяет миграции, подключается к PostgreSQL и запускает HTTP API
//   - migrate — только применение миграций БД
//   - dbcheck — диагностика подключения к PostgreSQL и таблицы images
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/image-module/internal/config"
)

var (
	// envFile — путь к .env файлу (флаг --env-file)
	envFile string

	// cfg и logger инициализируются в PersistentPreRunE до запуска команды
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "image-module",
	Short: "ESP32-CAM Image Upload API",
	Long: "Image Module принимает изображения с камер по HTTP, сохраняет файлы\n" +
		"на локальный диск и метаданные в PostgreSQL.",
	Version:           config.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initializeApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"файл с переменными окружения IM_* (необязателен)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(dbcheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("Ошибка выполнения команды", slog.String("error", err.Error()))
		} else {
			slog.Error("Ошибка выполнения команды", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}

// initializeApp загружает .env, конфигурацию и настраивает логирование.
// Переменные окружения процесса имеют приоритет над значениями из .env.
func initializeApp(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	logger = config.SetupLogger(cfg)
	return nil
}
