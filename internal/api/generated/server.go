// Пакет generated — интерфейс HTTP API Image Module и его привязка к chi
// в формате oapi-codegen chi-server. Параметры пути разбираются через
// oapi-codegen/runtime по правилам OpenAPI (style: simple).
package generated

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface — операции API, описанные в openapi.yaml.
type ServerInterface interface {
	// Описание API и список endpoints
	// (GET /)
	GetRoot(w http.ResponseWriter, r *http.Request)
	// Загрузка изображения (multipart/form-data)
	// (POST /upload)
	UploadImage(w http.ResponseWriter, r *http.Request)
	// Список метаданных всех изображений
	// (GET /images)
	ListImages(w http.ResponseWriter, r *http.Request)
	// Метаданные по числовому id или файл изображения по имени
	// (GET /images/{image_id})
	GetImage(w http.ResponseWriter, r *http.Request, imageRef string)
	// Удаление изображения и его метаданных
	// (DELETE /images/{image_id}/delete)
	DeleteImage(w http.ResponseWriter, r *http.Request, imageID int64)
	// Состояние сервиса и подключения к БД
	// (GET /health)
	Health(w http.ResponseWriter, r *http.Request)
	// Readiness probe
	// (GET /health/ready)
	HealthReady(w http.ResponseWriter, r *http.Request)
	// Prometheus метрики
	// (GET /metrics)
	GetMetrics(w http.ResponseWriter, r *http.Request)
	// OpenAPI документ
	// (GET /openapi.json)
	GetOpenAPI(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc — middleware, применяемый к отдельным операциям.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper разбирает параметры запроса и вызывает ServerInterface.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) wrap(h http.Handler) http.Handler {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	return h
}

// GetRoot — обёртка операции GetRoot.
func (siw *ServerInterfaceWrapper) GetRoot(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.GetRoot)).ServeHTTP(w, r)
}

// UploadImage — обёртка операции UploadImage.
func (siw *ServerInterfaceWrapper) UploadImage(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.UploadImage)).ServeHTTP(w, r)
}

// ListImages — обёртка операции ListImages.
func (siw *ServerInterfaceWrapper) ListImages(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.ListImages)).ServeHTTP(w, r)
}

// GetImage — обёртка операции GetImage.
func (siw *ServerInterfaceWrapper) GetImage(w http.ResponseWriter, r *http.Request) {
	var imageRef string

	err := runtime.BindStyledParameterWithOptions("simple", "image_id", chi.URLParam(r, "image_id"), &imageRef,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "image_id", Err: err})
		return
	}

	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetImage(w, r, imageRef)
	})).ServeHTTP(w, r)
}

// DeleteImage — обёртка операции DeleteImage.
func (siw *ServerInterfaceWrapper) DeleteImage(w http.ResponseWriter, r *http.Request) {
	var imageID int64

	err := runtime.BindStyledParameterWithOptions("simple", "image_id", chi.URLParam(r, "image_id"), &imageID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "image_id", Err: err})
		return
	}

	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteImage(w, r, imageID)
	})).ServeHTTP(w, r)
}

// Health — обёртка операции Health.
func (siw *ServerInterfaceWrapper) Health(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.Health)).ServeHTTP(w, r)
}

// HealthReady — обёртка операции HealthReady.
func (siw *ServerInterfaceWrapper) HealthReady(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.HealthReady)).ServeHTTP(w, r)
}

// GetMetrics — обёртка операции GetMetrics.
func (siw *ServerInterfaceWrapper) GetMetrics(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.GetMetrics)).ServeHTTP(w, r)
}

// GetOpenAPI — обёртка операции GetOpenAPI.
func (siw *ServerInterfaceWrapper) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.Handler.GetOpenAPI)).ServeHTTP(w, r)
}

// InvalidParamFormatError — параметр запроса не соответствует схеме.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ChiServerOptions — параметры привязки ServerInterface к chi.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler создаёт http.Handler с маршрутами API на новом chi-роутере.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerFromMux регистрирует маршруты API на переданном роутере.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions регистрирует маршруты API с указанными параметрами.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/", wrapper.GetRoot)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/upload", wrapper.UploadImage)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/images", wrapper.ListImages)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/images/{image_id}", wrapper.GetImage)
	})
	r.Group(func(r chi.Router) {
		r.Delete(options.BaseURL+"/images/{image_id}/delete", wrapper.DeleteImage)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.Health)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health/ready", wrapper.HealthReady)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.GetMetrics)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/openapi.json", wrapper.GetOpenAPI)
	})

	return r
}
