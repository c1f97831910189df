package main

// General API documentation for swaggo. Run `swag init -g cmd/bloomed/docs.go` to regenerate docs.
//
// @title           bloomed API
// @version         1.0
// @description     Chat-completion service with a house persona over a hosted or local model.
//
// @contact.name   bloomed maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
