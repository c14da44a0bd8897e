package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCreateRequest(isbn, author string) BookCreateRequest {
	return BookCreateRequest{
		ISBN:        isbn,
		Title:       "Title of " + isbn,
		Author:      author,
		Price:       lo.ToPtr(20.0),
		PublishDate: lo.ToPtr(NewDate(2019, time.May, 1)),
	}
}

func requireServiceError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var serr *ServiceError
	require.True(t, errors.As(err, &serr), "expected a service error, got %v", err)
	assert.Equal(t, status, serr.Status)
	assert.Equal(t, message, serr.Message)
}

func TestBookService_MapsStorageErrors(t *testing.T) {
	storage := &MockBookStorage{
		AddFunc: func(ctx context.Context, book Book) (Book, error) {
			return Book{}, ErrISBNConflict
		},
		GetOneFunc: func(ctx context.Context, id int64) (Book, error) {
			return Book{}, ErrBookNotFound
		},
		GetByISBNFunc: func(ctx context.Context, isbn string) (Book, error) {
			return Book{}, ErrBookNotFound
		},
		DeleteFunc: func(ctx context.Context, id int64) error {
			return ErrBookNotFound
		},
	}
	bs := NewBookService(zap.NewNop(), &Config{}, storage)
	ctx := context.Background()

	_, err := bs.Create(ctx, newCreateRequest("isbn-1", "a"))
	requireServiceError(t, err, http.StatusConflict, "Book with this ISBN already exists")

	_, err = bs.GetByID(ctx, 5)
	requireServiceError(t, err, http.StatusNotFound, "Book Not Found with ID: 5")

	_, err = bs.GetByISBN(ctx, "isbn-x")
	requireServiceError(t, err, http.StatusNotFound, "Book Not Found with ISBN: isbn-x")

	_, err = bs.Update(ctx, 6, BookUpdateRequest{Title: lo.ToPtr("t")})
	requireServiceError(t, err, http.StatusNotFound, "Book Not Found with ID: 6")

	err = bs.Delete(ctx, 7)
	requireServiceError(t, err, http.StatusNotFound, "Book Not Found with ID: 7")
}

func TestBookService_WrapsUnexpectedErrors(t *testing.T) {
	failure := errors.New("disk failure")
	storage := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return nil, failure
		},
		GetByAuthorFunc: func(ctx context.Context, author string) ([]Book, error) {
			return nil, failure
		},
		AddFunc: func(ctx context.Context, book Book) (Book, error) {
			return Book{}, failure
		},
	}
	bs := NewBookService(zap.NewNop(), &Config{}, storage)
	ctx := context.Background()

	_, err := bs.GetAll(ctx)
	assert.ErrorIs(t, err, failure)
	_, err = bs.GetByAuthor(ctx, "a")
	assert.ErrorIs(t, err, failure)
	_, err = bs.Create(ctx, newCreateRequest("isbn-1", "a"))
	assert.ErrorIs(t, err, failure)

	var serr *ServiceError
	assert.False(t, errors.As(err, &serr))
}

// The update must only write the provided fields on top of the stored record.
func TestBookService_UpdateMergesFields(t *testing.T) {
	stored := newTestBook("isbn-1", "Jerome Amon")
	stored.ID = 1
	var written Book
	storage := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id int64) (Book, error) {
			return stored, nil
		},
		UpdateFunc: func(ctx context.Context, book Book) (Book, error) {
			written = book
			return book, nil
		},
	}
	bs := NewBookService(zap.NewNop(), &Config{}, storage)

	resp, err := bs.Update(context.Background(), 1, BookUpdateRequest{Price: lo.ToPtr(1.25)})
	require.NoError(t, err)
	expected := stored
	expected.Price = 1.25
	assert.Equal(t, expected, written)
	assert.Equal(t, NewBookResponse(expected), resp)
}

func TestBookService_UpdateRacingDelete(t *testing.T) {
	storage := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id int64) (Book, error) {
			return Book{ID: id}, nil
		},
		UpdateFunc: func(ctx context.Context, book Book) (Book, error) {
			return Book{}, ErrBookNotFound
		},
	}
	bs := NewBookService(zap.NewNop(), &Config{}, storage)
	_, err := bs.Update(context.Background(), 3, BookUpdateRequest{})
	requireServiceError(t, err, http.StatusNotFound, "Book Not Found with ID: 3")
}

// TestBookService_Scenario runs the service against a real store.
//
//nolint:funlen
func TestBookService_Scenario(t *testing.T) {
	bs := NewBookService(zap.NewNop(), &Config{}, newTestBoltStore(t))
	ctx := context.Background()

	all, err := bs.GetAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	created, err := bs.Create(ctx, newCreateRequest("978-1", "Jerome Amon"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	// the created book is reachable by id, by isbn and by author.
	byID, err := bs.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)
	byISBN, err := bs.GetByISBN(ctx, "978-1")
	require.NoError(t, err)
	assert.Equal(t, created, byISBN)
	byAuthor, err := bs.GetByAuthor(ctx, "Jerome Amon")
	require.NoError(t, err)
	assert.Equal(t, []BookResponse{created}, byAuthor)

	// isbn stays unique.
	_, err = bs.Create(ctx, newCreateRequest("978-1", "Someone"))
	requireServiceError(t, err, http.StatusConflict, "Book with this ISBN already exists")

	// a partial update keeps the other fields.
	updated, err := bs.Update(ctx, created.ID, BookUpdateRequest{Title: lo.ToPtr("Second Edition")})
	require.NoError(t, err)
	assert.Equal(t, "Second Edition", updated.Title)
	assert.Equal(t, created.Author, updated.Author)
	assert.Equal(t, created.Price, updated.Price)
	assert.Equal(t, created.PublishDate, updated.PublishDate)
	assert.Equal(t, created.ISBN, updated.ISBN)

	// an empty update is a no-op.
	same, err := bs.Update(ctx, created.ID, BookUpdateRequest{})
	require.NoError(t, err)
	assert.Equal(t, updated, same)

	require.NoError(t, bs.Delete(ctx, created.ID))
	_, err = bs.GetByID(ctx, created.ID)
	requireServiceError(t, err, http.StatusNotFound, "Book Not Found with ID: 1")
	err = bs.Delete(ctx, created.ID)
	requireServiceError(t, err, http.StatusNotFound, "Book Not Found with ID: 1")

	// ids are never reused.
	again, err := bs.Create(ctx, newCreateRequest("978-1", "Jerome Amon"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.ID)
}
