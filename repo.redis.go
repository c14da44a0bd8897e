package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	HBooks   string = "books"
	HISBNs   string = "books:isbn"
	KBookSeq string = "books:seq"
)

// Results of the book scripts.
const (
	scriptNotFound     int64 = 0
	scriptISBNMismatch int64 = -2
)

// addBookScript reserves the isbn, draws the next id and saves the book
// as a single atomic step. It returns -1 when the isbn is already taken.
var addBookScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then
	return -1
end
local id = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[1], id, ARGV[2])
redis.call('HSET', KEYS[2], ARGV[1], id)
return id
`)

// updateBookScript overwrites a stored book only if it still exists
// with the expected isbn. It returns 0 when the book is missing.
var updateBookScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if not current then
	return 0
end
if cjson.decode(current).isbn ~= ARGV[2] then
	return -2
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
return 1
`)

// deleteBookScript removes a book and releases its isbn in one step.
// It returns 0 when the book is missing.
var deleteBookScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if not current then
	return 0
end
redis.call('HDEL', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[2], cjson.decode(current).isbn)
return 1
`)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// decodeBook rebuilds a book from its hash field. The field is the book id.
func decodeBook(field, value string) (Book, error) {
	var book Book
	if err := json.Unmarshal([]byte(value), &book); err != nil {
		return book, err
	}
	id, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return book, fmt.Errorf("redis: invalid book key %q: %w", field, err)
	}
	book.ID = id
	return book, nil
}

// Add inserts a new book record.
func (rs *redisBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	book.ID = 0
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return Book{}, err
	}
	id, err := addBookScript.Run(ctx, rs.client, []string{HBooks, HISBNs, KBookSeq}, book.ISBN, bookBytes).Int64()
	if err != nil {
		return Book{}, fmt.Errorf("redis: add book: %w", err)
	}
	if id < 0 {
		return Book{}, ErrISBNConflict
	}
	book.ID = id
	return book, nil
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	field := strconv.FormatInt(id, 10)
	bookJSONString, err := rs.client.HGet(ctx, HBooks, field).Result()
	if errors.Is(err, redis.Nil) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return decodeBook(field, bookJSONString)
}

// GetByISBN resolves the book id through the isbn hash.
func (rs *redisBookStorage) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	field, err := rs.client.HGet(ctx, HISBNs, isbn).Result()
	if errors.Is(err, redis.Nil) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	id, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return Book{}, fmt.Errorf("redis: invalid book key %q: %w", field, err)
	}
	return rs.GetOne(ctx, id)
}

// GetByAuthor keeps the books with that exact author.
func (rs *redisBookStorage) GetByAuthor(ctx context.Context, author string) ([]Book, error) {
	books, err := rs.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(books, func(b Book, _ int) bool { return b.Author == author }), nil
}

// GetAll retrieves a list of all books stored in the redis database, by ascending id.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	mapBooks, err := rs.client.HGetAll(ctx, HBooks).Result()
	if err != nil {
		return nil, err
	}
	books := make([]Book, 0, len(mapBooks))
	for field, bookJSONString := range mapBooks {
		book, err := decodeBook(field, bookJSONString)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	slices.SortFunc(books, func(a, b Book) int { return cmp.Compare(a.ID, b.ID) })
	return books, nil
}

// Update replaces an existing book record. The stored isbn is kept.
func (rs *redisBookStorage) Update(ctx context.Context, book Book) (Book, error) {
	field := strconv.FormatInt(book.ID, 10)
	existing, err := rs.GetOne(ctx, book.ID)
	if err != nil {
		return Book{}, err
	}
	book.ISBN = existing.ISBN
	stored := book
	stored.ID = 0
	bookBytes, err := json.Marshal(stored)
	if err != nil {
		return Book{}, err
	}
	res, err := updateBookScript.Run(ctx, rs.client, []string{HBooks}, field, book.ISBN, bookBytes).Int64()
	if err != nil {
		return Book{}, fmt.Errorf("redis: update book: %w", err)
	}
	switch res {
	case scriptNotFound:
		return Book{}, ErrBookNotFound
	case scriptISBNMismatch:
		return Book{}, fmt.Errorf("redis: update book %d: stored isbn changed", book.ID)
	}
	return book, nil
}

// Delete removes a book record and its isbn reservation.
func (rs *redisBookStorage) Delete(ctx context.Context, id int64) error {
	res, err := deleteBookScript.Run(ctx, rs.client, []string{HBooks, HISBNs}, strconv.FormatInt(id, 10)).Int64()
	if err != nil {
		return fmt.Errorf("redis: delete book: %w", err)
	}
	if res == scriptNotFound {
		return ErrBookNotFound
	}
	return nil
}
