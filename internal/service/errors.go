// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrFileTooLarge — размер файла превышает допустимый максимум.
	ErrFileTooLarge = errors.New("файл слишком большой")
	// ErrNotImage — загружаемый файл не является изображением.
	ErrNotImage = errors.New("файл не является изображением")
	// ErrNotFound — изображение не найдено.
	ErrNotFound = errors.New("изображение не найдено")
	// ErrIO — ошибка записи файла на диск.
	ErrIO = errors.New("ошибка файлового хранилища")
	// ErrWrite — ошибка записи метаданных в БД.
	ErrWrite = errors.New("ошибка записи метаданных")
	// ErrStoreUnavailable — хранилище метаданных недоступно.
	ErrStoreUnavailable = errors.New("хранилище метаданных недоступно")
)
