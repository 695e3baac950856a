package main

// General API documentation for swaggo. Run `swag init -g cmd/chatd/docs.go -o internal/apidocs`
// to regenerate internal/apidocs.
//
// @title           chatd API
// @version         1.0
// @description     HTTP backend for a chat UI: generation through an LLM inference server and chat persistence.
//
// @contact.name   chatd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
