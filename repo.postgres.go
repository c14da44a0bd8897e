package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// uniqueViolation is the postgres error code raised on a unique constraint.
const uniqueViolation = "23505"

const bookColumns = "id, isbn, title, author, price, publish_date"

// PgxQuerier is the subset of the pgx pool used by the storage.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresBookStorage struct {
	logger  *zap.Logger
	db      PgxQuerier
	timeout time.Duration
}

// GetPostgresClient connects to the database described by the config
// and makes sure it is reachable.
func GetPostgresClient(ctx context.Context, config *Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(config.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid url: %w", err)
	}
	if config.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = config.Postgres.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping: %w", err)
	}
	return pool, nil
}

// NewPostgresBookStorage provides an instance of postgres-based book storage.
func NewPostgresBookStorage(logger *zap.Logger, db PgxQuerier, timeout time.Duration) BookStorage {
	return &postgresBookStorage{logger: logger, db: db, timeout: timeout}
}

func (ps *postgresBookStorage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, ps.timeout)
}

func scanBook(row pgx.Row) (Book, error) {
	var book Book
	var published time.Time
	err := row.Scan(&book.ID, &book.ISBN, &book.Title, &book.Author, &book.Price, &published)
	if err != nil {
		return Book{}, err
	}
	book.PublishDate = DateFromTime(published)
	return book, nil
}

// Add inserts the book. The unique constraint on isbn rejects a duplicate
// in the same statement.
func (ps *postgresBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()
	row := ps.db.QueryRow(ctx,
		"INSERT INTO books (isbn, title, author, price, publish_date) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		book.ISBN, book.Title, book.Author, book.Price, book.PublishDate.Time,
	)
	if err := row.Scan(&book.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			ps.logger.Debug("postgres: unique violation", zap.String("constraint", pgErr.ConstraintName))
			return Book{}, ErrISBNConflict
		}
		return Book{}, fmt.Errorf("postgres: add book: %w", err)
	}
	return book, nil
}

func (ps *postgresBookStorage) getOneBy(ctx context.Context, column string, value any) (Book, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()
	book, err := scanBook(ps.db.QueryRow(ctx, "SELECT "+bookColumns+" FROM books WHERE "+column+" = $1", value))
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, fmt.Errorf("postgres: get book by %s: %w", column, err)
	}
	return book, nil
}

func (ps *postgresBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	return ps.getOneBy(ctx, "id", id)
}

func (ps *postgresBookStorage) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return ps.getOneBy(ctx, "isbn", isbn)
}

func (ps *postgresBookStorage) list(ctx context.Context, sql string, args ...any) ([]Book, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()
	rows, err := ps.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Book, error) {
		return scanBook(row)
	})
}

func (ps *postgresBookStorage) GetByAuthor(ctx context.Context, author string) ([]Book, error) {
	books, err := ps.list(ctx, "SELECT "+bookColumns+" FROM books WHERE author = $1 ORDER BY id", author)
	if err != nil {
		return nil, fmt.Errorf("postgres: get books by author: %w", err)
	}
	return books, nil
}

func (ps *postgresBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	books, err := ps.list(ctx, "SELECT "+bookColumns+" FROM books ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("postgres: get all books: %w", err)
	}
	return books, nil
}

// Update overwrites the mutable fields of the book. The isbn is left untouched.
func (ps *postgresBookStorage) Update(ctx context.Context, book Book) (Book, error) {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()
	updated, err := scanBook(ps.db.QueryRow(ctx,
		"UPDATE books SET title = $2, author = $3, price = $4, publish_date = $5 WHERE id = $1 RETURNING "+bookColumns,
		book.ID, book.Title, book.Author, book.Price, book.PublishDate.Time,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, fmt.Errorf("postgres: update book: %w", err)
	}
	return updated, nil
}

func (ps *postgresBookStorage) Delete(ctx context.Context, id int64) error {
	ctx, cancel := ps.withTimeout(ctx)
	defer cancel()
	tag, err := ps.db.Exec(ctx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}
