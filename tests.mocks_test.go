package main

import (
	"context"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc         func(ctx context.Context, book Book) (Book, error)
	GetOneFunc      func(ctx context.Context, id int64) (Book, error)
	GetByISBNFunc   func(ctx context.Context, isbn string) (Book, error)
	GetByAuthorFunc func(ctx context.Context, author string) ([]Book, error)
	GetAllFunc      func(ctx context.Context) ([]Book, error)
	UpdateFunc      func(ctx context.Context, book Book) (Book, error)
	DeleteFunc      func(ctx context.Context, id int64) error
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	return m.AddFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockBookStorage) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return m.GetByISBNFunc(ctx, isbn)
}

func (m *MockBookStorage) GetByAuthor(ctx context.Context, author string) ([]Book, error) {
	return m.GetByAuthorFunc(ctx, author)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, book Book) (Book, error) {
	return m.UpdateFunc(ctx, book)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

// MockBookService is a fake BookServiceProvider for the handlers tests.
type MockBookService struct {
	GetAllFunc      func(ctx context.Context) ([]BookResponse, error)
	GetByIDFunc     func(ctx context.Context, id int64) (BookResponse, error)
	GetByISBNFunc   func(ctx context.Context, isbn string) (BookResponse, error)
	GetByAuthorFunc func(ctx context.Context, author string) ([]BookResponse, error)
	CreateFunc      func(ctx context.Context, req BookCreateRequest) (BookResponse, error)
	UpdateFunc      func(ctx context.Context, id int64, req BookUpdateRequest) (BookResponse, error)
	DeleteFunc      func(ctx context.Context, id int64) error
}

func (m *MockBookService) GetAll(ctx context.Context) ([]BookResponse, error) {
	return m.GetAllFunc(ctx)
}

func (m *MockBookService) GetByID(ctx context.Context, id int64) (BookResponse, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockBookService) GetByISBN(ctx context.Context, isbn string) (BookResponse, error) {
	return m.GetByISBNFunc(ctx, isbn)
}

func (m *MockBookService) GetByAuthor(ctx context.Context, author string) ([]BookResponse, error) {
	return m.GetByAuthorFunc(ctx, author)
}

func (m *MockBookService) Create(ctx context.Context, req BookCreateRequest) (BookResponse, error) {
	return m.CreateFunc(ctx, req)
}

func (m *MockBookService) Update(ctx context.Context, id int64, req BookUpdateRequest) (BookResponse, error) {
	return m.UpdateFunc(ctx, id, req)
}

func (m *MockBookService) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDGenerator.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}
