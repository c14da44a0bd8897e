package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid": requestID,
			"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"message":   "Hello. Books api is available. Enjoy :)",
		},
	); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send status response", zap.Error(err))
	}
}

// sendError writes an error response with the given status and message.
func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := WriteErrorResponse(r.Context(), w, NewAPIError(requestID, status, message)); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send error response", zap.Error(err))
	}
}

// sendServiceError translates an error returned by the book service. A *ServiceError
// is rendered with its own status and message, anything else becomes a 500 with
// the fallback message.
func (api *APIHandler) sendServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	logger := api.GetLoggerFromContext(r.Context())
	var serr *ServiceError
	if errors.As(err, &serr) {
		logger.Info(fallback, zap.Int("response.status", serr.Status), zap.String("reason", serr.Message))
		api.sendError(w, r, serr.Status, serr.Message)
		return
	}
	logger.Error(fallback, zap.Error(err))
	api.sendError(w, r, http.StatusInternalServerError, fallback)
}

func (api *APIHandler) send(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := WriteResponse(r.Context(), w, status, data); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send response", zap.Error(err))
	}
}

// bookID reads and validates the `id` path parameter. It answers with 400 when invalid.
func (api *APIHandler) bookID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (int64, bool) {
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.GetLoggerFromContext(r.Context()).Info("book id provided is not valid", zap.String("book.id", ps.ByName("id")))
		api.sendError(w, r, http.StatusBadRequest, "book id provided is not valid")
		return 0, false
	}
	return id, true
}

// CreateBook godoc
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Param book body BookCreateRequest true "Book to create"
// @Success 201 {object} BookResponse
// @Failure 400 {object} APIError
// @Failure 409 {object} APIError
// @Router /api/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	var req BookCreateRequest
	if err := DecodeRequestBody(r, &req); err != nil {
		logger.Info("failed to decode book creation request", zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, "failed to create the book: invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		logger.Info("invalid book creation request", zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	book, err := api.bookService.Create(r.Context(), req)
	if err != nil {
		api.sendServiceError(w, r, err, "failed to create the book")
		return
	}
	logger.Info("success to create book", zap.Int64("book.id", book.ID))
	api.send(w, r, http.StatusCreated, book)
}

// GetAllBooks godoc
// @Summary List all books
// @Tags books
// @Produce json
// @Success 200 {array} BookResponse
// @Router /api/books [get]
//nolint:bodyclose
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	// the whole collection can take longer to send than a single record.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(api.config.Server.LongRequestWriteTimeout)); err != nil {
		logger.Warn("http: failed to update the write deadline", zap.Error(err))
	}

	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.sendServiceError(w, r, err, "failed to get all books")
		return
	}
	logger.Info("success to get all books", zap.Int("books.total", len(books)))
	api.send(w, r, http.StatusOK, books)
}

// GetOneBook godoc
// @Summary Get a book by id
// @Tags books
// @Produce json
// @Param id path int true "Book id"
// @Success 200 {object} BookResponse
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Router /api/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.bookID(w, r, ps)
	if !ok {
		return
	}
	book, err := api.bookService.GetByID(r.Context(), id)
	if err != nil {
		api.sendServiceError(w, r, err, "failed to get the book")
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to get book", zap.Int64("book.id", id))
	api.send(w, r, http.StatusOK, book)
}

// GetBooksByField serves `/api/books/isbn/:isbn` and `/api/books/author/:author`.
// Both share one route since httprouter forbids a static segment next to the `:id`
// wildcard, so the first segment is matched here.
func (api *APIHandler) GetBooksByField(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	switch ps.ByName("id") {
	case "isbn":
		api.GetBookByISBN(w, r, ps.ByName("value"))
	case "author":
		api.GetBooksByAuthor(w, r, ps.ByName("value"))
	default:
		api.NotFound().ServeHTTP(w, r)
	}
}

// GetBookByISBN godoc
// @Summary Get a book by isbn
// @Tags books
// @Produce json
// @Param isbn path string true "Book isbn"
// @Success 200 {object} BookResponse
// @Failure 404 {object} APIError
// @Router /api/books/isbn/{isbn} [get]
func (api *APIHandler) GetBookByISBN(w http.ResponseWriter, r *http.Request, isbn string) {
	book, err := api.bookService.GetByISBN(r.Context(), isbn)
	if err != nil {
		api.sendServiceError(w, r, err, "failed to get the book")
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to get book", zap.Int64("book.id", book.ID), zap.String("book.isbn", isbn))
	api.send(w, r, http.StatusOK, book)
}

// GetBooksByAuthor godoc
// @Summary List the books of an author
// @Tags books
// @Produce json
// @Param author path string true "Exact author name"
// @Success 200 {array} BookResponse
// @Router /api/books/author/{author} [get]
func (api *APIHandler) GetBooksByAuthor(w http.ResponseWriter, r *http.Request, author string) {
	books, err := api.bookService.GetByAuthor(r.Context(), author)
	if err != nil {
		api.sendServiceError(w, r, err, "failed to get the author books")
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to get author books", zap.String("book.author", author), zap.Int("books.total", len(books)))
	api.send(w, r, http.StatusOK, books)
}

// UpdateBook godoc
// @Summary Partially update a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book id"
// @Param book body BookUpdateRequest true "Fields to update"
// @Success 200 {object} BookResponse
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Router /api/books/{id} [patch]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.bookID(w, r, ps)
	if !ok {
		return
	}
	logger := api.GetLoggerFromContext(r.Context())
	var req BookUpdateRequest
	if err := DecodeRequestBody(r, &req); err != nil {
		logger.Info("failed to decode book update request", zap.Int64("book.id", id), zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, "failed to update the book: invalid request body")
		return
	}

	book, err := api.bookService.Update(r.Context(), id, req)
	if err != nil {
		api.sendServiceError(w, r, err, "failed to update the book")
		return
	}
	logger.Info("success to update book", zap.Int64("book.id", id))
	api.send(w, r, http.StatusOK, book)
}

// DeleteOneBook godoc
// @Summary Delete a book
// @Tags books
// @Param id path int true "Book id"
// @Success 204
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Router /api/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := api.bookID(w, r, ps)
	if !ok {
		return
	}
	if err := api.bookService.Delete(r.Context(), id); err != nil {
		api.sendServiceError(w, r, err, "failed to delete the book")
		return
	}
	logger := api.GetLoggerFromContext(r.Context())
	logger.Info("success to delete book", zap.Int64("book.id", id))
	if err := WriteNoContent(r.Context(), w); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}
