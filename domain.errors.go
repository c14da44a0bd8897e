package main

import (
	"fmt"
	"net/http"
)

// ServiceError is a failure meant for the client. It carries the message
// to display and the http status code the api handlers must respond with.
type ServiceError struct {
	Message string
	Status  int
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError provides a ServiceError with a formatted message.
func NewServiceError(status int, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Message: fmt.Sprintf(format, args...), Status: status}
}

func NotFoundByIDError(id int64) *ServiceError {
	return NewServiceError(http.StatusNotFound, "Book Not Found with ID: %d", id)
}

func NotFoundByISBNError(isbn string) *ServiceError {
	return NewServiceError(http.StatusNotFound, "Book Not Found with ISBN: %s", isbn)
}

func ISBNConflictError() *ServiceError {
	return NewServiceError(http.StatusConflict, "Book with this ISBN already exists")
}
