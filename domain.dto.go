package main

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
)

// BookCreateRequest is the payload of a book creation. Price and PublishDate
// are pointers so that a missing value can be told apart from a zero one.
type BookCreateRequest struct {
	ISBN        string   `json:"isbn"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Price       *float64 `json:"price"`
	PublishDate *Date    `json:"publishDate"`
}

// Validate checks that every field of the creation request was provided.
func (r BookCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ISBN, validation.Required),
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Author, validation.Required),
		validation.Field(&r.Price, validation.NotNil),
		validation.Field(&r.PublishDate, validation.NotNil),
	)
}

// ToBook builds the entity to persist. It must be called on a validated request.
func (r BookCreateRequest) ToBook() Book {
	return Book{
		ISBN:        r.ISBN,
		Title:       r.Title,
		Author:      r.Author,
		Price:       lo.FromPtr(r.Price),
		PublishDate: lo.FromPtr(r.PublishDate),
	}
}

// BookUpdateRequest carries a partial update. A nil field keeps the stored value.
// The isbn is not part of it and never changes after creation.
type BookUpdateRequest struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Price       *float64 `json:"price"`
	PublishDate *Date    `json:"publishDate"`
}

// Apply merges the provided fields into book and returns the result.
func (r BookUpdateRequest) Apply(book Book) Book {
	if r.Price != nil {
		book.Price = *r.Price
	}
	if r.Title != nil {
		book.Title = *r.Title
	}
	if r.Author != nil {
		book.Author = *r.Author
	}
	if r.PublishDate != nil {
		book.PublishDate = *r.PublishDate
	}
	return book
}

// BookResponse is the projection of a stored book sent to clients.
type BookResponse struct {
	ID          int64   `json:"id"`
	ISBN        string  `json:"isbn"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Price       float64 `json:"price"`
	PublishDate Date    `json:"publishDate"`
}

func NewBookResponse(book Book) BookResponse {
	return BookResponse(book)
}

func NewBookResponses(books []Book) []BookResponse {
	return lo.Map(books, func(b Book, _ int) BookResponse {
		return NewBookResponse(b)
	})
}
