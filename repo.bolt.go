package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	books  []byte
	isbns  []byte
}

// isbnBucketName returns the name of the bucket mapping each isbn to its book key.
func isbnBucketName(bucket string) string {
	return bucket + ".isbn"
}

// GetBoltDBClient setup the database and the buckets then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{config.BoltDB.BucketName, isbnBucketName(config.BoltDB.BucketName)} {
			if _, errB := tx.CreateBucketIfNotExists([]byte(name)); errB != nil {
				return fmt.Errorf("failed to create %s bucket: %v", name, errB)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up buckets: %v", err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		books:  []byte(boltConfig.BucketName),
		isbns:  []byte(isbnBucketName(boltConfig.BucketName)),
	}
}

// itob returns an 8-byte big endian representation of v. This keeps
// the cursor iteration in insertion order.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// Add assigns the next sequence as book id then saves the book and its isbn
// index entry within the same transaction.
func (bs *boltBookStorage) Add(_ context.Context, book Book) (Book, error) {
	err := bs.client.Update(func(tx *bolt.Tx) error {
		index := tx.Bucket(bs.isbns)
		if index.Get([]byte(book.ISBN)) != nil {
			return ErrISBNConflict
		}
		bucket := tx.Bucket(bs.books)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		book.ID = int64(seq)
		data, err := json.Marshal(book)
		if err != nil {
			return err
		}
		if err = bucket.Put(itob(book.ID), data); err != nil {
			return err
		}
		return index.Put([]byte(book.ISBN), itob(book.ID))
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

func (bs *boltBookStorage) get(tx *bolt.Tx, key []byte) (Book, error) {
	var book Book
	data := tx.Bucket(bs.books).Get(key)
	if data == nil {
		return book, ErrBookNotFound
	}
	err := json.Unmarshal(data, &book)
	return book, err
}

// GetOne retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) GetOne(_ context.Context, id int64) (Book, error) {
	var book Book
	err := bs.client.View(func(tx *bolt.Tx) error {
		var err error
		book, err = bs.get(tx, itob(id))
		return err
	})
	return book, err
}

// GetByISBN resolves the book key through the isbn index.
func (bs *boltBookStorage) GetByISBN(_ context.Context, isbn string) (Book, error) {
	var book Book
	err := bs.client.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bs.isbns).Get([]byte(isbn))
		if key == nil {
			return ErrBookNotFound
		}
		var err error
		book, err = bs.get(tx, key)
		return err
	})
	return book, err
}

// filter walks the books bucket in id order and keeps the books accepted by keep.
func (bs *boltBookStorage) filter(keep func(Book) bool) ([]Book, error) {
	books := []Book{}
	err := bs.client.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bs.books).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var book Book
			if err := json.Unmarshal(v, &book); err != nil {
				return err
			}
			if keep(book) {
				books = append(books, book)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// GetByAuthor scans the store for books of that exact author.
func (bs *boltBookStorage) GetByAuthor(_ context.Context, author string) ([]Book, error) {
	return bs.filter(func(b Book) bool { return b.Author == author })
}

// GetAll retrieves a list of all books stored in the bolt database.
func (bs *boltBookStorage) GetAll(_ context.Context) ([]Book, error) {
	return bs.filter(func(Book) bool { return true })
}

// Update replaces the stored book. The isbn of the stored record is kept.
func (bs *boltBookStorage) Update(_ context.Context, book Book) (Book, error) {
	err := bs.client.Update(func(tx *bolt.Tx) error {
		existing, err := bs.get(tx, itob(book.ID))
		if err != nil {
			return err
		}
		book.ISBN = existing.ISBN
		data, err := json.Marshal(book)
		if err != nil {
			return err
		}
		return tx.Bucket(bs.books).Put(itob(book.ID), data)
	})
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// Delete removes a book record and its isbn index entry.
func (bs *boltBookStorage) Delete(_ context.Context, id int64) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		book, err := bs.get(tx, itob(id))
		if err != nil {
			return err
		}
		if err = tx.Bucket(bs.books).Delete(itob(id)); err != nil {
			return err
		}
		return tx.Bucket(bs.isbns).Delete([]byte(book.ISBN))
	})
}
