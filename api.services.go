package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	GetAll(ctx context.Context) ([]BookResponse, error)
	GetByID(ctx context.Context, id int64) (BookResponse, error)
	GetByISBN(ctx context.Context, isbn string) (BookResponse, error)
	GetByAuthor(ctx context.Context, author string) ([]BookResponse, error)
	Create(ctx context.Context, req BookCreateRequest) (BookResponse, error)
	Update(ctx context.Context, id int64, req BookUpdateRequest) (BookResponse, error)
	Delete(ctx context.Context, id int64) error
}

type BookService struct {
	logger  *zap.Logger
	config  *Config
	storage BookStorage
}

func NewBookService(logger *zap.Logger, config *Config, storage BookStorage) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		storage: storage,
	}
}

func (bs *BookService) GetAll(ctx context.Context) ([]BookResponse, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: get all books: %w", err)
	}
	return NewBookResponses(books), nil
}

func (bs *BookService) GetByID(ctx context.Context, id int64) (BookResponse, error) {
	book, err := bs.findBookByID(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	return NewBookResponse(book), nil
}

func (bs *BookService) GetByISBN(ctx context.Context, isbn string) (BookResponse, error) {
	book, err := bs.storage.GetByISBN(ctx, isbn)
	if errors.Is(err, ErrBookNotFound) {
		return BookResponse{}, NotFoundByISBNError(isbn)
	}
	if err != nil {
		return BookResponse{}, fmt.Errorf("service: get book by isbn: %w", err)
	}
	return NewBookResponse(book), nil
}

func (bs *BookService) GetByAuthor(ctx context.Context, author string) ([]BookResponse, error) {
	books, err := bs.storage.GetByAuthor(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("service: get books by author: %w", err)
	}
	return NewBookResponses(books), nil
}

// Create persists a new book. The uniqueness of the isbn is enforced by the
// storage during the insertion itself, so no lookup is done beforehand.
func (bs *BookService) Create(ctx context.Context, req BookCreateRequest) (BookResponse, error) {
	book, err := bs.storage.Add(ctx, req.ToBook())
	if errors.Is(err, ErrISBNConflict) {
		bs.logger.Info("service: book isbn already exists", zap.String("book.isbn", req.ISBN))
		return BookResponse{}, ISBNConflictError()
	}
	if err != nil {
		return BookResponse{}, fmt.Errorf("service: create book: %w", err)
	}
	return NewBookResponse(book), nil
}

func (bs *BookService) Update(ctx context.Context, id int64, req BookUpdateRequest) (BookResponse, error) {
	existing, err := bs.findBookByID(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}

	book, err := bs.storage.Update(ctx, req.Apply(existing))
	if errors.Is(err, ErrBookNotFound) {
		// deleted between the read and the write.
		return BookResponse{}, NotFoundByIDError(id)
	}
	if err != nil {
		return BookResponse{}, fmt.Errorf("service: update book: %w", err)
	}
	return NewBookResponse(book), nil
}

func (bs *BookService) Delete(ctx context.Context, id int64) error {
	err := bs.storage.Delete(ctx, id)
	if errors.Is(err, ErrBookNotFound) {
		return NotFoundByIDError(id)
	}
	if err != nil {
		return fmt.Errorf("service: delete book: %w", err)
	}
	return nil
}

func (bs *BookService) findBookByID(ctx context.Context, id int64) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	if errors.Is(err, ErrBookNotFound) {
		return Book{}, NotFoundByIDError(id)
	}
	if err != nil {
		return Book{}, fmt.Errorf("service: get book: %w", err)
	}
	return book, nil
}
