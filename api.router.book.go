package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.POST("/api/books", m.public(api.CreateBook))
	router.GET("/api/books", m.public(api.GetAllBooks))
	router.GET("/api/books/:id", m.public(api.GetOneBook))
	// serves both /api/books/isbn/:isbn and /api/books/author/:author.
	router.GET("/api/books/:id/:value", m.public(api.GetBooksByField))
	router.PATCH("/api/books/:id", m.public(api.UpdateBook))
	router.DELETE("/api/books/:id", m.public(api.DeleteOneBook))
	return router
}
