package main

import (
	"bytes"
	"context"
	"errors"
	"time"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrISBNConflict = errors.New("book isbn already exists")
)

// DateLayout is the wire and storage format of a publish date.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day or timezone.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// DateFromTime drops the clock part of t.
func DateFromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("date must be a string in YYYY-MM-DD format")
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Book represents a book entity. The ID is assigned by the storage on insertion.
type Book struct {
	ID          int64   `json:"id"`
	ISBN        string  `json:"isbn"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Price       float64 `json:"price"`
	PublishDate Date    `json:"publishDate"`
}

// BookStorage defines possible operations on book entity.
//
// Add must assign the ID and reject a duplicate ISBN with ErrISBNConflict
// in a single atomic step. Update and Delete report a missing record with
// ErrBookNotFound.
type BookStorage interface {
	Add(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	GetByAuthor(ctx context.Context, author string) ([]Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, book Book) (Book, error)
	Delete(ctx context.Context, id int64) error
}
