package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(isbn, author string) Book {
	return Book{
		ISBN:        isbn,
		Title:       "Title of " + isbn,
		Author:      author,
		Price:       12.5,
		PublishDate: NewDate(2020, time.March, 14),
	}
}

// testBookStorage runs the behaviors every BookStorage implementation
// must provide against an empty store.
//
//nolint:funlen
func testBookStorage(t *testing.T, store BookStorage) {
	ctx := context.Background()

	t.Run("Empty Store", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)

		_, err = store.GetOne(ctx, 1)
		assert.ErrorIs(t, err, ErrBookNotFound)

		_, err = store.GetByISBN(ctx, "missing")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	var first, second Book
	t.Run("Add Books", func(t *testing.T) {
		var err error
		first, err = store.Add(ctx, newTestBook("isbn-1", "Jerome Amon"))
		require.NoError(t, err)
		assert.Greater(t, first.ID, int64(0))

		second, err = store.Add(ctx, newTestBook("isbn-2", "Ada Lovelace"))
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("Add Duplicate ISBN", func(t *testing.T) {
		_, err := store.Add(ctx, newTestBook("isbn-1", "Someone Else"))
		assert.ErrorIs(t, err, ErrISBNConflict)

		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, books, 2)
	})

	t.Run("Get Existent Book", func(t *testing.T) {
		book, err := store.GetOne(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first, book)

		book, err = store.GetByISBN(ctx, "isbn-2")
		require.NoError(t, err)
		assert.Equal(t, second, book)
	})

	t.Run("Get By Author", func(t *testing.T) {
		books, err := store.GetByAuthor(ctx, "Jerome Amon")
		require.NoError(t, err)
		assert.Equal(t, []Book{first}, books)

		books, err = store.GetByAuthor(ctx, "jerome amon")
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("Get All Ordered", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Book{first, second}, books)
	})

	t.Run("Update Book", func(t *testing.T) {
		changed := first
		changed.Title = "New title"
		changed.Price = 99.9
		updated, err := store.Update(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, changed, updated)

		book, err := store.GetOne(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, changed, book)
		first = book
	})

	t.Run("Update Missing Book", func(t *testing.T) {
		missing := newTestBook("isbn-x", "Nobody")
		missing.ID = second.ID + 100
		_, err := store.Update(ctx, missing)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Delete Book", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, first.ID))

		_, err := store.GetOne(ctx, first.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = store.GetByISBN(ctx, first.ISBN)
		assert.ErrorIs(t, err, ErrBookNotFound)

		err = store.Delete(ctx, first.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("ISBN Reusable After Delete", func(t *testing.T) {
		again, err := store.Add(ctx, newTestBook(first.ISBN, "Jerome Amon"))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, again.ID)
	})

	t.Run("Concurrent Add Same ISBN", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.Add(ctx, newTestBook("isbn-race", fmt.Sprintf("author-%d", i)))
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, ErrISBNConflict)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("Concurrent Writes On Distinct Books", func(t *testing.T) {
		const workers = 6
		targets := make([]Book, workers)
		victims := make([]Book, workers)
		for i := 0; i < workers; i++ {
			var err error
			targets[i], err = store.Add(ctx, newTestBook(fmt.Sprintf("isbn-upd-%d", i), "Writer"))
			require.NoError(t, err)
			victims[i], err = store.Add(ctx, newTestBook(fmt.Sprintf("isbn-del-%d", i), "Writer"))
			require.NoError(t, err)
		}

		var wg sync.WaitGroup
		errs := make(chan error, workers*5)
		for i := 0; i < workers; i++ {
			wg.Add(3)
			go func(b Book) {
				defer wg.Done()
				for n := 0; n < 3; n++ {
					b.Price = float64(n + 1)
					_, err := store.Update(ctx, b)
					errs <- err
				}
			}(targets[i])
			go func(i int) {
				defer wg.Done()
				_, err := store.Add(ctx, newTestBook(fmt.Sprintf("isbn-new-%d", i), "Writer"))
				errs <- err
			}(i)
			go func(id int64) {
				defer wg.Done()
				errs <- store.Delete(ctx, id)
			}(victims[i].ID)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		for _, b := range targets {
			book, err := store.GetOne(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, 3.0, book.Price)
			assert.Equal(t, b.ISBN, book.ISBN)
		}
		for _, b := range victims {
			_, err := store.GetOne(ctx, b.ID)
			assert.ErrorIs(t, err, ErrBookNotFound)
		}
	})
}
