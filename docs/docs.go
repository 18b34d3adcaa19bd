// Package docs holds the OpenAPI document served at /swagger. Regenerate with
// `swag init -g internal/http/router.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/movies/": {
            "get": {"tags": ["Movies"], "summary": "List movies (paginated)", "operationId": "listMovies",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListMoviesResponse"}}, "304": {"description": "Not Modified"}}}
        },
        "/movies/{id}/": {
            "get": {"tags": ["Movies"], "summary": "Get a movie", "operationId": "getMovie",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MovieDetailResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/movies/search/": {
            "get": {"tags": ["Movies"], "summary": "Search movies by title", "operationId": "searchMovies",
                "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SearchMoviesResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/movies/genre/{genre}/": {
            "get": {"tags": ["Movies"], "summary": "Movies of a genre", "operationId": "moviesByGenre",
                "parameters": [{"type": "string", "name": "genre", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.GenreMoviesResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/movies/year/{year}/": {
            "get": {"tags": ["Movies"], "summary": "Movies of a year", "operationId": "moviesByYear",
                "parameters": [{"type": "integer", "name": "year", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.YearMoviesResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/movies/create/": {
            "post": {"tags": ["Movies"], "summary": "Create a movie", "operationId": "createMovie",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateMovieRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Movie"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/movies/{id}/delete/": {
            "delete": {"tags": ["Movies"], "summary": "Delete a movie and its reviews", "operationId": "deleteMovie",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/reviews/": {
            "get": {"tags": ["Reviews"], "summary": "List reviews (paginated)", "operationId": "listReviews",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListReviewsResponse"}}, "304": {"description": "Not Modified"}}}
        },
        "/reviews/{id}/": {
            "get": {"tags": ["Reviews"], "summary": "Get a review", "operationId": "getReview",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Review"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/reviews/create/": {
            "post": {"tags": ["Reviews"], "summary": "Submit a review", "operationId": "createReview",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateReviewRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.CreateReviewResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/reviews/{id}/delete/": {
            "delete": {"tags": ["Reviews"], "summary": "Delete a review", "operationId": "deleteReview",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        },
        "/reviews/movie/{movie_id}/": {
            "get": {"tags": ["Reviews"], "summary": "Reviews of a movie", "operationId": "reviewsByMovie",
                "parameters": [{"type": "integer", "name": "movie_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MovieReviewsResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}
        }
    },
    "definitions": {
        "domain.Movie": {"type": "object", "properties": {
            "id": {"type": "integer"}, "title": {"type": "string"}, "year": {"type": "integer"},
            "genre": {"type": "string"}, "synopsis": {"type": "string"}, "poster_url": {"type": "string"},
            "backdrop_url": {"type": "string"}, "cast": {"type": "array", "items": {"type": "string"}},
            "trailer_url": {"type": "string"}, "duration_minutes": {"type": "integer"},
            "average_rating": {"type": "string", "example": "4.5"},
            "created_at": {"type": "string"}, "updated_at": {"type": "string"}}},
        "domain.Review": {"type": "object", "properties": {
            "id": {"type": "integer"}, "reviewer_name": {"type": "string"}, "movie": {"type": "integer"},
            "movie_title": {"type": "string"}, "score": {"type": "integer"}, "comment": {"type": "string"},
            "created_at": {"type": "string"}}},
        "handlers.CreateMovieRequest": {"type": "object", "required": ["genre", "title", "year"], "properties": {
            "title": {"type": "string"}, "year": {"type": "integer"}, "genre": {"type": "string"},
            "synopsis": {"type": "string"}, "poster_url": {"type": "string"}, "backdrop_url": {"type": "string"},
            "cast": {"type": "array", "items": {"type": "string"}}, "trailer_url": {"type": "string"},
            "duration_minutes": {"type": "integer"}}},
        "handlers.CreateReviewRequest": {"type": "object", "required": ["movie", "reviewer_name", "score"], "properties": {
            "reviewer_name": {"type": "string"}, "movie": {"type": "integer"},
            "score": {"type": "integer", "minimum": 1, "maximum": 5}, "comment": {"type": "string"}}},
        "handlers.CreateReviewResponse": {"type": "object", "properties": {
            "message": {"type": "string"}, "review": {"$ref": "#/definitions/domain.Review"}}},
        "handlers.ErrorResponse": {"type": "object", "properties": {
            "request_id": {"type": "string"}, "code": {"type": "string"}, "message": {"type": "string"}}},
        "handlers.MessageResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
        "handlers.Pagination": {"type": "object", "properties": {
            "page": {"type": "integer"}, "page_size": {"type": "integer"},
            "total": {"type": "integer"}, "total_pages": {"type": "integer"}, "has_next": {"type": "boolean"}}},
        "handlers.MovieSummary": {"type": "object", "properties": {
            "id": {"type": "integer"}, "title": {"type": "string"}, "year": {"type": "integer"},
            "genre": {"type": "string"}, "poster_url": {"type": "string"}, "average_rating": {"type": "string"}}},
        "handlers.MovieDetailResponse": {"allOf": [{"$ref": "#/definitions/domain.Movie"},
            {"type": "object", "properties": {"review_count": {"type": "integer"}}}]},
        "handlers.ListMoviesResponse": {"type": "object", "properties": {
            "results": {"type": "array", "items": {"$ref": "#/definitions/handlers.MovieSummary"}},
            "pagination": {"$ref": "#/definitions/handlers.Pagination"}}},
        "handlers.SearchMoviesResponse": {"type": "object", "properties": {
            "count": {"type": "integer"},
            "results": {"type": "array", "items": {"$ref": "#/definitions/handlers.MovieSummary"}}}},
        "handlers.GenreMoviesResponse": {"type": "object", "properties": {
            "genre": {"type": "string"}, "count": {"type": "integer"},
            "results": {"type": "array", "items": {"$ref": "#/definitions/handlers.MovieSummary"}}}},
        "handlers.YearMoviesResponse": {"type": "object", "properties": {
            "year": {"type": "integer"}, "count": {"type": "integer"},
            "results": {"type": "array", "items": {"$ref": "#/definitions/handlers.MovieSummary"}}}},
        "handlers.ListReviewsResponse": {"type": "object", "properties": {
            "results": {"type": "array", "items": {"$ref": "#/definitions/domain.Review"}},
            "pagination": {"$ref": "#/definitions/handlers.Pagination"}}},
        "handlers.MovieReviewsResponse": {"type": "object", "properties": {
            "movie": {"type": "string"}, "average_rating": {"type": "string"},
            "review_count": {"type": "integer"},
            "reviews": {"type": "array", "items": {"$ref": "#/definitions/domain.Review"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Movie Catalog API",
	Description:      "Movies, reviews and cached average ratings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
